package seasonhttp

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the season API under /api/season. Mutating routes
// share limiter; reads are not limited.
func RegisterRoutes(r chi.Router, h *SeasonHTTPHandlers, limiter *ClientRateLimiter) {
	r.Route("/api/season", func(r chi.Router) {
		r.Get("/standings", h.HandleGetStandings)
		r.Get("/standings.xlsx", h.HandleExportStandings)
		r.Get("/save-code", h.HandleGetSaveCode)
		r.Get("/charts/points.png", h.HandlePointsChart)
		r.Get("/charts/rating.png", h.HandleRatingChart)
		r.Get("/archives", h.HandleListArchives)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(limiter))

			r.Post("/races", h.HandleRecordRace)
			r.Post("/races/import", h.HandleImportRace)
			r.Put("/races/{n}", h.HandleCorrectFeature)
			r.Post("/undo", h.HandleUndo)
			r.Post("/reset", h.HandleReset)
			r.Put("/save-code", h.HandleRestore)
			r.Post("/archives", h.HandleCreateArchive)
			r.Post("/archives/{id}/restore", h.HandleRestoreArchive)
		})
	})
}
