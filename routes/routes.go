package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pulseboard/pulseboard/app"
	"github.com/pulseboard/pulseboard/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/departments", PublicGetDepartments(app))
	api.Post("/submissions", PublicSubmitFeedback(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Get("/submissions", ListSubmissions(app))
		r.Delete("/submissions", ClearSubmissions(app))
		r.Get("/analytics", GetAnalytics(app))
		r.Post("/sample-data", CreateSampleData(app))

		r.Post("/reports/send", SendReports(app))
		r.Post("/reports/custom", SendCustomReport(app))

		r.Get("/schedule/{department}", GetSchedule(app))
		r.Put("/schedule/{department}", UpdateSchedule(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
