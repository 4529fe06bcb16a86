package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/mbolis/cart-survey/app"
	"github.com/mbolis/cart-survey/httpx"
	"github.com/mbolis/cart-survey/log"
	"github.com/mbolis/cart-survey/model"
	"github.com/mbolis/cart-survey/widget"
)

// SubmitResponse stores one survey response posted by the storefront widget.
func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body any
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "Invalid or empty request body")
			return
		}

		fields, ok := body.(map[string]any)
		if !ok || len(fields) == 0 {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.empty_body", "Invalid or empty request body")
			return
		}

		if !truthy(fields[model.RatingField]) || !truthy(fields[model.ReasonField]) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.required_fields",
				"Missing required fields: %s (satisfaction) and %s (primary reason)", model.RatingField, model.ReasonField)
			return
		}

		response := model.Response(fields)
		if !truthy(response[model.FieldTimestamp]) {
			response[model.FieldTimestamp] = model.FormatTimestamp(time.Now())
		}

		id, err := app.Responses.Insert(r.Context(), response)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_response", err, "An error occurred while submitting the survey.")
			return
		}

		log.With(log.Fields{"id": id}).Debug("survey response stored")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"success": true,
			"id":      id,
		})
	}
}

// SurveyScript serves the storefront script rendered from the configured survey.
func SurveyScript(app app.App) http.HandlerFunc {
	script, err := widget.Script(app.Survey, widget.ScriptOptions{SubmitURL: app.SubmitURL()})
	if err != nil {
		log.Errorf("widget.script: %s", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if script == nil {
			httpx.LogInternalError(w, r, "widget.script", err, "Survey script unavailable")
			return
		}

		w.Header().Set("Content-Type", "application/javascript")
		w.Write(script)
	}
}

// truthy follows the widget's notion of an answered field:
// missing, null, "", 0 and false all count as absent.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case float64:
		return v != 0
	case bool:
		return v
	}
	return true
}
