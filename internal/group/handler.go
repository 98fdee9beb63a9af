package group

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	userentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// Handler exposes /auth/groups.
type Handler struct {
	svc    *GroupService
	logger *zap.SugaredLogger
}

func NewHandler(svc *GroupService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, status, v)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	groups, err := h.svc.List(r.Context())
	h.respond(w, http.StatusOK, groups, err)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	var in Input
	if err := apperr.DecodeJSON(r, &in); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	g, err := h.svc.Create(r.Context(), in)
	h.respond(w, http.StatusCreated, g, err)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	var in Input
	if err := apperr.DecodeJSON(r, &in); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	g, err := h.svc.Update(r.Context(), id, in)
	h.respond(w, http.StatusOK, g, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	members, err := h.svc.Users(r.Context(), id)
	h.respond(w, http.StatusOK, members, err)
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	var in MemberInput
	if err := apperr.DecodeJSON(r, &in); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	members, err := h.svc.AddUser(r.Context(), id, in)
	h.respond(w, http.StatusOK, members, err)
}

func (h *Handler) RemoveUser(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	userID, err := apperr.PathInt64(r, "user_id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	members, err := h.svc.RemoveUser(r.Context(), id, userID)
	h.respond(w, http.StatusOK, members, err)
}

func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	perms, err := h.svc.Permissions(r.Context(), id)
	h.respond(w, http.StatusOK, perms, err)
}

func (h *Handler) AddPermission(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	var in PermissionInput
	if err := apperr.DecodeJSON(r, &in); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	perms, err := h.svc.AddPermission(r.Context(), id, in)
	h.respond(w, http.StatusOK, perms, err)
}

func (h *Handler) RemovePermission(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	perms, err := h.svc.RemovePermission(r.Context(), id, r.PathValue("code"))
	h.respond(w, http.StatusOK, perms, err)
}
