package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middlewares.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/health", Health)

	api.Get("/surveys", ListReceived(app))
	api.Get("/surveys/{uuid}", GetReceived(app))

	api.Post("/"+strings.Trim(app.Endpoint, "/"), ReceiveSurvey(app))

	return api
}
