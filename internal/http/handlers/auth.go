package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/http/respond"
	"github.com/hongminglow/budget-be/internal/middleware"
	"github.com/hongminglow/budget-be/internal/models/dto"
	"github.com/hongminglow/budget-be/internal/services"
)

const accountNotFound = "User not found"

// AuthHandler owns register/login/logout and password endpoints.
type AuthHandler struct {
	accounts *services.Accounts
	log      *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *services.Accounts, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log.Named("auth")}
}

// RegisterPublic attaches the routes that need no token.
func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// RegisterProtected attaches the routes that require an authenticated user.
func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Post("/logout", h.handleLogout)
	r.Post("/change-password", h.handleChangePassword)
	r.Get("/me", h.handleMe)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, err := h.accounts.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, h.log, err, accountNotFound)
		return
	}
	respond.JSON(w, http.StatusCreated, "User registered successfully", dto.RegisterResponse{UserID: user.ID.String()})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	token, user, err := h.accounts.Authenticate(r.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, h.log, err, accountNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.accounts.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, h.log, err, accountNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req dto.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	err := h.accounts.ChangePassword(r.Context(), user, services.ChangePasswordInput{
		Current: req.CurrentPassword,
		New:     req.NewPassword,
		Confirm: req.ConfirmPassword,
	})
	if errors.Is(err, services.ErrAuthenticationFailed) {
		respond.Errors(w, http.StatusBadRequest, "Current password is incorrect",
			[]string{"Current password is incorrect"})
		return
	}
	if err != nil {
		writeServiceError(w, h.log, err, accountNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, "Password changed successfully", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}
