package api

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/nia-console/internal/middleware"
)

// NewRouter returns the façade router with its global middleware.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(h.allowedOrigins))

	h.RegisterRoutes(r)
	r.Get("/ws/state", h.StreamState)
	return r
}

// RegisterRoutes registers the action routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)

		r.Route("/session", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
		})

		r.Route("/children", func(r chi.Router) {
			r.Post("/", h.CreateChild)
			r.Post("/refresh", h.RefreshChildren)
			r.Post("/{id}/select", h.SelectChild)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/switch-child", h.SwitchChild)
			r.Post("/messages", h.Send)
			r.Post("/messages/{id}/feedback", h.SubmitFeedback)
			r.Post("/new", h.NewConversation)
			r.Post("/folders/{folder}", h.OpenFolder)
			r.Delete("/folders", h.CloseFolder)
			r.Post("/conversations/{id}/load", h.LoadConversation)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Post("/open", h.OpenDashboard)
			r.Post("/close", h.CloseDashboard)
			r.Post("/back", h.Back)
			r.Post("/children/{id}", h.ViewChildDetail)
			r.Post("/conversations/{id}/full", h.OpenFullConversation)
			r.Delete("/conversations/full", h.CloseFullConversation)
		})

		r.Post("/onboarding/next", h.NextOnboarding)
		r.Post("/onboarding/skip", h.SkipOnboarding)
		r.Post("/theme/toggle", h.ToggleTheme)
	})
}
