package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/cart-survey/app"
	"github.com/mbolis/cart-survey/routes/middlewares"
)

// maximum accepted request body, survey answers plus a cart snapshot
const maxBodyBytes = 1 << 20

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/survey", func(r chi.Router) {
		r.Use(middlewares.Storefront(app.AllowedOrigins))

		r.With(middleware.RequestSize(maxBodyBytes)).Post("/submit", SubmitResponse(app))
		r.Get("/responses", ListResponses(app))
		r.Get("/analytics", GetAnalytics(app))
	})

	api.Route("/shopify", func(r chi.Router) {
		r.Get("/survey-script", SurveyScript(app))
		r.With(middleware.RequestSize(maxBodyBytes)).Post("/script-tag", CreateScriptTag(app))
	})

	return api
}
