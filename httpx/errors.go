package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/cart-survey/log"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Will log an error, and send an HTTP response with status 500 and
// the given fixed message. Error detail never reaches the client.
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error, msg string) {
	log.Errorf("%s: %s", code, err)
	writeError(w, r, http.StatusInternalServerError, msg)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	writeError(w, r, status, errMsg)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
