package auth

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// Handler exposes the /auth endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := apperr.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		apperr.WriteError(w, h.logger, apperr.FromValidation(err))
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Logout has nothing to revoke; tokens stay valid until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, actor *entity.User) {
	h.logger.Debugw("logout", "user_id", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request, actor *entity.User) {
	view, err := h.svc.Status(r.Context(), actor)
	if err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, view)
}

type RecoverPasswordRequest struct {
	Email string `json:"email"`
}

func (r RecoverPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (h *Handler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req RecoverPasswordRequest
	if err := apperr.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		apperr.WriteError(w, h.logger, apperr.FromValidation(err))
		return
	}
	h.svc.RecoverPassword(r.Context(), req.Email)
	apperr.WriteJSON(w, http.StatusOK, map[string]string{"message": "if the account exists a recovery email was sent"})
}

type ChangePasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
	)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := apperr.DecodeJSON(r, &req); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		apperr.WriteError(w, h.logger, apperr.FromValidation(err))
		return
	}
	if err := h.svc.ChangePassword(r.Context(), req.Token, req.Password); err != nil {
		apperr.WriteError(w, h.logger, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func Health(w http.ResponseWriter, r *http.Request) {
	apperr.WriteJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
