package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	identitymodels "bloodbridge/internal/identity/models"
	"bloodbridge/internal/platform/middleware"
	"bloodbridge/internal/request/models"
	requestservice "bloodbridge/internal/request/service"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/httputil"
)

// Service defines the request ledger operations the handler exposes.
type Service interface {
	Create(ctx context.Context, params requestservice.CreateParams) (*models.BloodRequest, error)
	ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]models.RequesterView, error)
	ListForDonor(ctx context.Context, donorUserID uuid.UUID) ([]models.BloodRequest, error)
	CompleteForDonor(ctx context.Context, donorUserID, id uuid.UUID) error
	DeleteForDonor(ctx context.Context, donorUserID, id uuid.UUID) error
}

// Handler handles blood request endpoints.
type Handler struct {
	requests     Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	revocation   middleware.TokenRevocationChecker
}

func New(requests Service, logger *slog.Logger,
	jwtValidator middleware.JWTValidator, revocation middleware.TokenRevocationChecker) *Handler {
	return &Handler{
		requests:     requests,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocation:   revocation,
	}
}

// Register mounts the blood request routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocation, h.logger))
		r.Post("/", h.handleCreate)
		r.Get("/mine", h.handleMine)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(identitymodels.RoleDonor), h.logger))
			r.Get("/incoming", h.handleIncoming)
			r.Put("/{id}/complete", h.handleComplete)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

type createRequest struct {
	DonorID    string `json:"donorId"`
	BloodGroup string `json:"bloodGroup"`
	Address    string `json:"address"`
	Urgent     bool   `json:"urgent"`
}

type requestResponse struct {
	ID             string `json:"id"`
	DonorID        string `json:"donorId"`
	RequesterName  string `json:"requesterName"`
	RequesterPhone string `json:"requesterPhone"`
	BloodGroup     string `json:"bloodGroup"`
	Address        string `json:"address"`
	Urgent         bool   `json:"urgent"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

type requesterViewResponse struct {
	requestResponse
	DonorName       string `json:"donorName"`
	DonorPhone      string `json:"donorPhone"`
	DonorBloodGroup string `json:"donorBloodGroup"`
	DonorProvince   string `json:"donorProvince"`
	DonorDistrict   string `json:"donorDistrict"`
	DonorCity       string `json:"donorCity"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	donorID, err := uuid.Parse(req.DonorID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "donorId must be a valid id"))
		return
	}

	created, err := h.requests.Create(r.Context(), requestservice.CreateParams{
		RequesterID: userID,
		DonorID:     donorID,
		BloodGroup:  req.BloodGroup,
		Address:     req.Address,
		Urgent:      req.Urgent,
	})
	if err != nil {
		h.writeServiceError(w, r, "blood request creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "blood request created successfully",
		"data":    toRequestResponse(*created),
	})
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	views, err := h.requests.ListForRequester(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "blood request listing failed", err)
		return
	}
	out := make([]requesterViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, requesterViewResponse{
			requestResponse: toRequestResponse(v.BloodRequest),
			DonorName:       v.DonorName,
			DonorPhone:      v.DonorPhone,
			DonorBloodGroup: v.DonorBloodGroup,
			DonorProvince:   v.DonorProvince,
			DonorDistrict:   v.DonorDistrict,
			DonorCity:       v.DonorCity,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "blood requests fetched successfully",
		"data":    out,
	})
}

func (h *Handler) handleIncoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reqs, err := h.requests.ListForDonor(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "blood request listing failed", err)
		return
	}
	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toRequestResponse(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "blood requests fetched successfully",
		"data":    out,
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reqID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.requests.CompleteForDonor(r.Context(), userID, reqID); err != nil {
		h.writeServiceError(w, r, "blood request completion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "blood request marked complete",
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	reqID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.requests.DeleteForDonor(r.Context(), userID, reqID); err != nil {
		h.writeServiceError(w, r, "blood request deletion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "blood request deleted successfully",
	})
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing identity context"))
		return uuid.Nil, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "id must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}

func toRequestResponse(req models.BloodRequest) requestResponse {
	return requestResponse{
		ID:             req.ID.String(),
		DonorID:        req.DonorID.String(),
		RequesterName:  req.RequesterName,
		RequesterPhone: req.RequesterPhone,
		BloodGroup:     req.BloodGroup,
		Address:        req.Address,
		Urgent:         req.Urgent,
		Status:         string(req.Status),
		CreatedAt:      req.CreatedAt.Format(time.RFC3339),
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
