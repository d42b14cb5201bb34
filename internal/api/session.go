package api

import (
	"net/http"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Consent  bool   `json:"consent"`
}

// Login handles POST /api/session/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, r, h.ctrl.Login(r.Context(), req.Email, req.Password))
}

// Register handles POST /api/session/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, r, h.ctrl.Register(r.Context(), controller.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Consent:  req.Consent,
	}))
}

// Logout handles POST /api/session/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.Logout(r.Context()))
}

// RefreshChildren handles POST /api/children/refresh.
func (h *Handler) RefreshChildren(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.ShowChildList(r.Context()))
}

// CreateChild handles POST /api/children.
func (h *Handler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var in domain.ChildInput
	if !decode(w, r, &in) {
		return
	}
	h.respond(w, r, h.ctrl.CreateChild(r.Context(), in))
}

// SelectChild handles POST /api/children/{id}/select.
func (h *Handler) SelectChild(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.ctrl.SelectChild(r.Context(), id))
}

// NextOnboarding handles POST /api/onboarding/next.
func (h *Handler) NextOnboarding(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.NextOnboarding(r.Context()))
}

// SkipOnboarding handles POST /api/onboarding/skip.
func (h *Handler) SkipOnboarding(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.SkipOnboarding(r.Context()))
}

// ToggleTheme handles POST /api/theme/toggle.
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	_, err := h.ctrl.ToggleTheme(r.Context())
	h.respond(w, r, err)
}
