package api

import "net/http"

// OpenDashboard handles POST /api/dashboard/open.
func (h *Handler) OpenDashboard(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.OpenDashboard(r.Context()))
}

// CloseDashboard handles POST /api/dashboard/close.
func (h *Handler) CloseDashboard(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.CloseDashboard(r.Context()))
}

// Back handles POST /api/dashboard/back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.Back(r.Context()))
}

// ViewChildDetail handles POST /api/dashboard/children/{id}.
func (h *Handler) ViewChildDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.ctrl.ViewChildDetail(r.Context(), id))
}

// OpenFullConversation handles POST /api/dashboard/conversations/{id}/full.
func (h *Handler) OpenFullConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.ctrl.OpenFullConversation(r.Context(), id))
}

// CloseFullConversation handles DELETE /api/dashboard/conversations/full.
func (h *Handler) CloseFullConversation(w http.ResponseWriter, r *http.Request) {
	h.ctrl.CloseFullConversation()
	h.respond(w, r, nil)
}
