package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodbridge/internal/donor/models"
	donorservice "bloodbridge/internal/donor/service"
	identitymodels "bloodbridge/internal/identity/models"
	"bloodbridge/internal/platform/middleware"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/httputil"
)

// Service defines the donor profile operations the handler exposes.
type Service interface {
	Register(ctx context.Context, params donorservice.RegisterParams) (*models.Donor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Donor, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// DonationCompleter flips the caller's pending requests and stamps the
// cooldown. Implemented by the request ledger.
type DonationCompleter interface {
	CompleteAllPendingForDonor(ctx context.Context, donorUserID uuid.UUID) error
}

// Handler handles donor self-service endpoints.
type Handler struct {
	donors       Service
	completer    DonationCompleter
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	revocation   middleware.TokenRevocationChecker
}

func New(donors Service, completer DonationCompleter, logger *slog.Logger,
	jwtValidator middleware.JWTValidator, revocation middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		donors:       donors,
		completer:    completer,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocation:   revocation,
	}
}

// RegisterSignup mounts the public donor registration route; main mounts it
// under the auth prefix alongside plain user signup.
func (h *Handler) RegisterSignup(r chi.Router) {
	r.Post("/register/donor", h.handleRegister)
}

// Register mounts the authenticated donor self-service routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocation, h.logger))
		r.Use(middleware.RequireRole(string(identitymodels.RoleDonor), h.logger))
		r.Get("/me", h.handleMe)
		r.Put("/complete", h.handleCompleteDonation)
		r.Delete("/me", h.handleDeleteMe)
	})
}

type registerRequest struct {
	UserName    string `json:"userName"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Phone       string `json:"phoneNumber"`
	BloodGroup  string `json:"bloodGroup"`
	Province    string `json:"province"`
	District    string `json:"district"`
	City        string `json:"city"`
	DateOfBirth string `json:"dateOfBirth"`
}

type donorResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"userId"`
	BloodGroup       string  `json:"bloodGroup"`
	Province         string  `json:"province"`
	District         string  `json:"district"`
	City             string  `json:"city"`
	DateOfBirth      string  `json:"dateOfBirth"`
	LastDonationDate *string `json:"lastDonationDate"`
	NextEligibleDate *string `json:"nextEligibleDate"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "dateOfBirth must be YYYY-MM-DD"))
		return
	}

	donor, err := h.donors.Register(r.Context(), donorservice.RegisterParams{
		UserName:    req.UserName,
		Password:    req.Password,
		Email:       req.Email,
		Phone:       req.Phone,
		BloodGroup:  req.BloodGroup,
		Province:    req.Province,
		District:    req.District,
		City:        req.City,
		DateOfBirth: dob,
	})
	if err != nil {
		h.writeServiceError(w, r, "donor registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "donor registered successfully",
		"data":    toDonorResponse(donor),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	donor, err := h.donors.GetByUserID(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "fetch donor failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "donor fetched successfully",
		"data":    toDonorResponse(donor),
	})
}

func (h *Handler) handleCompleteDonation(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.completer.CompleteAllPendingForDonor(r.Context(), userID); err != nil {
		h.writeServiceError(w, r, "donation completion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "donation marked complete, donor unavailable for 2 months",
	})
}

func (h *Handler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.donors.DeleteByUserID(r.Context(), userID); err != nil {
		h.writeServiceError(w, r, "donor deletion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "donor deleted successfully"})
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing identity context"))
		return uuid.Nil, false
	}
	return id, true
}

func toDonorResponse(d *models.Donor) donorResponse {
	resp := donorResponse{
		ID:          d.ID.String(),
		UserID:      d.UserID.String(),
		BloodGroup:  d.BloodGroup,
		Province:    d.Province,
		District:    d.District,
		City:        d.City,
		DateOfBirth: d.DateOfBirth.Format("2006-01-02"),
	}
	if d.LastDonationDate != nil {
		s := d.LastDonationDate.Format("2006-01-02")
		resp.LastDonationDate = &s
	}
	if d.NextEligibleDate != nil {
		s := d.NextEligibleDate.Format("2006-01-02")
		resp.NextEligibleDate = &s
	}
	return resp
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
