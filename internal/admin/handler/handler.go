package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodbridge/internal/admin/models"
	identitymodels "bloodbridge/internal/identity/models"
	"bloodbridge/internal/platform/middleware"
	requestmodels "bloodbridge/internal/request/models"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/httputil"
)

// Service defines the console operations the handler exposes.
type Service interface {
	ListUsers(ctx context.Context) ([]*identitymodels.User, error)
	ListDonors(ctx context.Context) ([]models.DonorRecord, error)
	ListCompletedDonations(ctx context.Context) ([]requestmodels.BloodRequest, error)
	ListAllRequests(ctx context.Context) ([]requestmodels.BloodRequest, error)
	SetRequestStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	DeleteDonor(ctx context.Context, donorID uuid.UUID) error
	DeleteRequest(ctx context.Context, id uuid.UUID) error
}

// Handler serves the admin console endpoints. Every route requires an
// admin-role token.
type Handler struct {
	console      Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	revocation   middleware.TokenRevocationChecker
}

func New(console Service, logger *slog.Logger,
	jwtValidator middleware.JWTValidator, revocation middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		console:      console,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocation:   revocation,
	}
}

// Register mounts the console routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocation, h.logger))
		r.Use(middleware.RequireRole(string(identitymodels.RoleAdmin), h.logger))

		r.Get("/users", h.handleListUsers)
		r.Get("/donors", h.handleListDonors)
		r.Get("/donations", h.handleListDonations)
		r.Get("/blood-requests", h.handleListRequests)
		r.Put("/blood-requests/{id}", h.handleSetRequestStatus)
		r.Delete("/users/{id}", h.handleDeleteUser)
		r.Delete("/donors/{id}", h.handleDeleteDonor)
		r.Delete("/blood-requests/{id}", h.handleDeleteRequest)
	})
}

type userResponse struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	Email     string `json:"email"`
	Phone     string `json:"phoneNumber"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type donorRecordResponse struct {
	DonorID          string  `json:"donorId"`
	UserID           string  `json:"userId"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phoneNumber"`
	BloodGroup       string  `json:"bloodGroup"`
	Province         string  `json:"province"`
	District         string  `json:"district"`
	City             string  `json:"city"`
	DateOfBirth      string  `json:"dateOfBirth"`
	LastDonationDate *string `json:"lastDonationDate"`
	NextEligibleDate *string `json:"nextEligibleDate"`
}

type requestResponse struct {
	ID             string `json:"id"`
	DonorID        string `json:"donorId"`
	RequesterID    string `json:"requesterId"`
	RequesterName  string `json:"requesterName"`
	RequesterPhone string `json:"requesterPhone"`
	BloodGroup     string `json:"bloodGroup"`
	Address        string `json:"address"`
	Urgent         bool   `json:"urgent"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.console.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "user listing failed", err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:        u.ID.String(),
			UserName:  u.UserName,
			Email:     u.Email,
			Phone:     u.Phone,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt.Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "users fetched successfully",
		"data":    out,
	})
}

func (h *Handler) handleListDonors(w http.ResponseWriter, r *http.Request) {
	records, err := h.console.ListDonors(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "donor listing failed", err)
		return
	}
	out := make([]donorRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toDonorRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "donors fetched successfully",
		"data":    out,
	})
}

func (h *Handler) handleListDonations(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.console.ListCompletedDonations(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "donation listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "donations fetched successfully",
		"data":    toRequestResponses(reqs),
	})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.console.ListAllRequests(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "blood request listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "blood requests fetched successfully",
		"data":    toRequestResponses(reqs),
	})
}

func (h *Handler) handleSetRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.console.SetRequestStatus(r.Context(), id, req.Status); err != nil {
		h.writeServiceError(w, r, "blood request update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "blood request updated successfully",
	})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.console.DeleteUser(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "user deletion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
}

func (h *Handler) handleDeleteDonor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.console.DeleteDonor(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "donor deletion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "donor deleted successfully"})
}

func (h *Handler) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.console.DeleteRequest(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "blood request deletion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "blood request deleted successfully",
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "id must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}

func toDonorRecordResponse(rec models.DonorRecord) donorRecordResponse {
	resp := donorRecordResponse{
		DonorID:     rec.DonorID.String(),
		UserID:      rec.UserID.String(),
		Name:        rec.Name,
		Email:       rec.Email,
		Phone:       rec.Phone,
		BloodGroup:  rec.BloodGroup,
		Province:    rec.Province,
		District:    rec.District,
		City:        rec.City,
		DateOfBirth: rec.DateOfBirth.Format("2006-01-02"),
	}
	if rec.LastDonationDate != nil {
		s := rec.LastDonationDate.Format("2006-01-02")
		resp.LastDonationDate = &s
	}
	if rec.NextEligibleDate != nil {
		s := rec.NextEligibleDate.Format("2006-01-02")
		resp.NextEligibleDate = &s
	}
	return resp
}

func toRequestResponses(reqs []requestmodels.BloodRequest) []requestResponse {
	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, requestResponse{
			ID:             req.ID.String(),
			DonorID:        req.DonorID.String(),
			RequesterID:    req.RequesterID.String(),
			RequesterName:  req.RequesterName,
			RequesterPhone: req.RequesterPhone,
			BloodGroup:     req.BloodGroup,
			Address:        req.Address,
			Urgent:         req.Urgent,
			Status:         string(req.Status),
			CreatedAt:      req.CreatedAt.Format(time.RFC3339),
			UpdatedAt:      req.UpdatedAt.Format(time.RFC3339),
		})
	}
	return out
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
