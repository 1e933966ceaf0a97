package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/session", func(r chi.Router) {
		r.Post("/", s.createSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)

			r.Post("/message", s.sendMessage)
			r.Post("/file", s.attachFile)
			r.Delete("/file/{filename}", s.detachFile)
		})
	})

	// Model lifecycle
	r.Route("/model", func(r chi.Router) {
		r.Get("/status", s.modelStatus)
		r.Post("/initialize", s.initializeModel)
	})

	// Uploads
	r.Post("/upload", s.uploadFile)

	// Event streaming (SSE)
	r.Get("/event", s.events)

	// Health
	r.Get("/health", s.health)
}
