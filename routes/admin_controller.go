package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/mbolis/cart-survey/app"
	"github.com/mbolis/cart-survey/httpx"
	"github.com/mbolis/cart-survey/log"
	"github.com/mbolis/cart-survey/model"
	"github.com/mbolis/cart-survey/shopify"
)

const (
	defaultLimit = 100
	defaultSkip  = 0
)

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rg, err := parseRange(r)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.date_range", "%s", err)
			return
		}
		page := parsePage(r)

		responses, total, err := app.Responses.List(r.Context(), rg, page)
		if err != nil {
			httpx.LogInternalError(w, r, "db.list_responses", err, "An error occurred while fetching survey responses.")
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
			"pagination": map[string]any{
				"totalResponses": total,
				"limit":          page.Limit,
				"skip":           page.Skip,
			},
		})
	}
}

func GetAnalytics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rg, err := parseRange(r)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.date_range", "%s", err)
			return
		}

		analytics, err := app.Responses.Analytics(r.Context(), rg)
		if err != nil {
			httpx.LogInternalError(w, r, "db.analytics", err, "An error occurred while fetching survey analytics.")
			return
		}

		render.JSON(w, r, analytics)
	}
}

type scriptTagRequest struct {
	Shop        string `json:"shop"`
	AccessToken string `json:"accessToken"`
}

// CreateScriptTag registers the survey script on a shop's storefront.
func CreateScriptTag(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := scriptTagRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil || req.Shop == "" || req.AccessToken == "" {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.script_tag", "Missing shop or accessToken")
			return
		}
		shop, ok := shopify.ShopDomain(req.Shop)
		if !ok {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.script_tag", "Invalid shop domain")
			return
		}

		tag, err := app.ScriptTags.CreateScriptTag(r.Context(), shop, req.AccessToken, app.ScriptURL())
		if err != nil {
			httpx.LogInternalError(w, r, "shopify.create_script_tag", err, "Failed to create script tag")
			return
		}

		log.With(log.Fields{"shop": shop, "script_tag": tag.ID}).Info("script tag created")

		render.JSON(w, r, map[string]any{
			"success":   true,
			"scriptTag": tag,
		})
	}
}

// parsePage falls back to the defaults for missing, malformed or out of range values.
func parsePage(r *http.Request) model.Page {
	page := model.Page{Limit: defaultLimit, Skip: defaultSkip}

	if n, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && n > 0 {
		page.Limit = n
	}
	if n, err := strconv.ParseInt(r.URL.Query().Get("skip"), 10, 64); err == nil && n > 0 {
		page.Skip = n
	}
	return page
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseRange reads startDate/endDate and normalizes them to the stored
// timestamp format so bounds compare correctly as strings.
func parseRange(r *http.Request) (rg model.Range, err error) {
	q := r.URL.Query()
	rg.Start, err = normalizeDate("startDate", q.Get("startDate"))
	if err != nil {
		return
	}
	rg.End, err = normalizeDate("endDate", q.Get("endDate"))
	return
}

func normalizeDate(name, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return model.FormatTimestamp(t), nil
		}
	}
	return "", fmt.Errorf("invalid %s %q", name, value)
}
