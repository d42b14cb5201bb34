package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/nia-console/internal/domain"
)

type sendRequest struct {
	Text  string `json:"text"`
	Depth int    `json:"depth"`
}

type feedbackRequest struct {
	IsHelpful *bool `json:"is_helpful"`
}

// SwitchChild handles POST /api/chat/switch-child.
func (h *Handler) SwitchChild(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.SwitchChild(r.Context()))
}

// Send handles POST /api/chat/messages. A missing depth is the default depth.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Depth == 0 {
		req.Depth = domain.DefaultDepth
	}
	h.respond(w, r, h.ctrl.Send(r.Context(), req.Text, req.Depth))
}

// NewConversation handles POST /api/chat/new.
func (h *Handler) NewConversation(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.NewConversation())
}

// OpenFolder handles POST /api/chat/folders/{folder}.
func (h *Handler) OpenFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := folderParam(r)
	if err != nil || folder == "" {
		Error(w, http.StatusBadRequest, "invalid folder")
		return
	}
	h.respond(w, r, h.ctrl.OpenFolder(r.Context(), folder))
}

// folderParam returns the decoded folder segment. chi routes on RawPath when
// it is set, so only then is the parameter still escaped.
func folderParam(r *http.Request) (string, error) {
	folder := chi.URLParam(r, "folder")
	if r.URL.RawPath == "" {
		return folder, nil
	}
	return url.PathUnescape(folder)
}

// CloseFolder handles DELETE /api/chat/folders.
func (h *Handler) CloseFolder(w http.ResponseWriter, r *http.Request) {
	h.ctrl.CloseFolder()
	h.respond(w, r, nil)
}

// LoadConversation handles POST /api/chat/conversations/{id}/load.
func (h *Handler) LoadConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.ctrl.LoadExisting(r.Context(), id))
}

// SubmitFeedback handles POST /api/chat/messages/{id}/feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}
	if req.IsHelpful == nil {
		Error(w, http.StatusBadRequest, "is_helpful is required")
		return
	}
	h.respond(w, r, h.ctrl.SubmitFeedback(r.Context(), id, *req.IsHelpful))
}
