package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes builds the router with standard middleware and the full API
// surface under /api/v1.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/compose", func(r chi.Router) {
			r.Get("/", h.GetComposeState)
			r.Post("/contacts/import", h.ImportContacts)
			r.Post("/contacts", h.AddContact)
			r.Delete("/contacts/{email}", h.RemoveContact)
			r.Put("/selection", h.SetSelection)
			r.Post("/selection/confirm", h.ConfirmSelection)
			r.Post("/generate", h.GenerateDraft)
			r.Get("/templates", h.ListTemplates)
			r.Post("/template", h.ApplyTemplate)
			r.Put("/draft", h.UpdateDraft)
			r.Post("/preview", h.PreviewDraft)
			r.Post("/back", h.BackToGenerate)
			r.Post("/edit", h.EditAgain)
			r.Post("/send", h.SendCampaign)
			r.Post("/start-over", h.StartOver)
		})

		r.Route("/email-tools", func(r chi.Router) {
			r.Post("/generate-content", h.GenerateContent)
			r.Post("/send-bulk", h.SendBulk)
		})

		r.Route("/resumes", func(r chi.Router) {
			r.Get("/", h.ListResumes)
			r.Post("/", h.CreateResume)
			r.Post("/extract", h.ExtractResume)
			r.Get("/{id}", h.GetResume)
			r.Put("/{id}", h.UpdateResume)
			r.Delete("/{id}", h.DeleteResume)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/credentials", h.GetCredentials)
			r.Post("/credentials", h.SaveCredentials)
			r.Post("/test-connection", h.TestConnection)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Delete("/{index}", h.DeleteCampaign)
		})
	})

	return r
}
