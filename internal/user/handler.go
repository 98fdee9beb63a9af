package user

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// Handler exposes the /users endpoints. Every method receives the
// authenticated actor from the auth gate.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	users, err := h.svc.ListAdmins(r.Context())
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, users)
}

// ByIDs serves GET /users/byIds/{ids} where ids is comma separated.
func (h *Handler) ByIDs(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	var ids []int64
	for _, part := range strings.Split(r.PathValue("ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			apperr.WriteError(w, h.logger, apperr.Validation(map[string]string{"ids": "must be a comma separated list of ids"}))
			return
		}
		ids = append(ids, id)
	}
	users, err := h.svc.GetByIDs(r.Context(), ids)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, actor *entity.User) {
	var in CreateInput
	if err := apperr.DecodeJSON(r, &in); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	u, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, actor *entity.User) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	var in UpdateInput
	if err := apperr.DecodeJSON(r, &in); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	u, err := h.svc.Update(r.Context(), actor, id, in)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request, actor *entity.User) {
	h.setActive(w, r, actor, true)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request, actor *entity.User) {
	h.setActive(w, r, actor, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, actor *entity.User, active bool) {
	id, err := apperr.PathInt64(r, "id")
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	u, err := h.svc.SetActive(r.Context(), actor, id, active)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, u)
}
