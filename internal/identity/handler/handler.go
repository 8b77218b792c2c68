package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodbridge/internal/identity/models"
	identityservice "bloodbridge/internal/identity/service"
	"bloodbridge/internal/platform/middleware"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/httputil"
)

// Service defines the identity operations the handler exposes.
type Service interface {
	RegisterUser(ctx context.Context, params identityservice.RegisterParams) (*models.User, error)
	RegisterAdmin(ctx context.Context, params identityservice.RegisterParams) (*models.User, error)
	Login(ctx context.Context, phone, password string) (*models.User, string, error)
	LoginAdmin(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, jti string) error
}

// Handler handles authentication endpoints.
type Handler struct {
	identity     Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	revocation   middleware.TokenRevocationChecker
}

func New(identity Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocation middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		identity:     identity,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocation:   revocation,
	}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/signin", h.handleSignin)
	r.Post("/admin/signup", h.handleAdminSignup)
	r.Post("/admin/signin", h.handleAdminSignin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocation, h.logger))
		r.Post("/logout", h.handleLogout)
	})
}

type signupRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phoneNumber"`
}

type signinRequest struct {
	Phone    string `json:"phoneNumber"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message string      `json:"message"`
	Data    sessionData `json:"data"`
}

type sessionData struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Phone    string `json:"phoneNumber"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	_, err := h.identity.RegisterUser(r.Context(), identityservice.RegisterParams{
		UserName: req.UserName,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeServiceError(w, r, "signup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"message": "user registered successfully"})
}

func (h *Handler) handleAdminSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	admin, err := h.identity.RegisterAdmin(r.Context(), identityservice.RegisterParams{
		UserName: req.UserName,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeServiceError(w, r, "admin signup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "admin registered successfully",
		"data":    map[string]string{"email": admin.Email},
	})
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, token, err := h.identity.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "signin failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		Message: "login successful",
		Data:    toSessionData(user, token),
	})
}

func (h *Handler) handleAdminSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, token, err := h.identity.LoginAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "admin signin failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		Message: "login successful",
		Data:    toSessionData(user, token),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.identity.Logout(ctx, middleware.GetJTI(ctx)); err != nil {
		h.writeServiceError(w, r, "logout failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func toSessionData(user *models.User, token string) sessionData {
	return sessionData{
		ID:       user.ID.String(),
		UserName: user.UserName,
		Email:    user.Email,
		Phone:    user.Phone,
		Role:     string(user.Role),
		Token:    token,
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
