package permission

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	userentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// Handler exposes /auth/permissions.
type Handler struct {
	svc    *PermissionService
	logger *zap.SugaredLogger
}

func NewHandler(svc *PermissionService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	perms, err := h.svc.List(r.Context())
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	var in Input
	if err := apperr.DecodeJSON(r, &in); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, p)
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
