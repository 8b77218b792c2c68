package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodbridge/internal/matching/models"
	"bloodbridge/internal/platform/middleware"
	dErrors "bloodbridge/pkg/domain-errors"
	"bloodbridge/pkg/platform/httputil"
)

// Service defines the directory queries the handler exposes.
type Service interface {
	ListEligible(ctx context.Context) ([]models.DonorCard, error)
	Search(ctx context.Context, filter models.Filter) ([]models.DonorCard, error)
}

// Handler serves the public donor directory. Both routes work without a
// token; a valid one only adds the caller's id to the response so clients
// can mark the caller's own card.
type Handler struct {
	directory    Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(directory Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{directory: directory, logger: logger, jwtValidator: jwtValidator}
}

// Register mounts the directory routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(h.jwtValidator))
		r.Get("/eligible", h.handleEligible)
		r.Get("/search", h.handleSearch)
	})
}

type cardResponse struct {
	DonorID          string  `json:"donorId"`
	UserID           string  `json:"userId"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phoneNumber"`
	BloodGroup       string  `json:"bloodGroup"`
	Province         string  `json:"province"`
	District         string  `json:"district"`
	City             string  `json:"city"`
	LastDonationDate *string `json:"lastDonationDate"`
	NextEligibleDate *string `json:"nextEligibleDate"`
}

func (h *Handler) handleEligible(w http.ResponseWriter, r *http.Request) {
	cards, err := h.directory.ListEligible(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "eligible donor listing failed", err)
		return
	}
	h.writeDirectory(w, r, cards)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cards, err := h.directory.Search(r.Context(), models.Filter{
		BloodGroup: q.Get("bloodGroup"),
		Address:    q.Get("address"),
	})
	if err != nil {
		h.writeServiceError(w, r, "donor search failed", err)
		return
	}
	h.writeDirectory(w, r, cards)
}

func (h *Handler) writeDirectory(w http.ResponseWriter, r *http.Request, cards []models.DonorCard) {
	out := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardResponse(card))
	}
	body := map[string]any{
		"message": "donors fetched successfully",
		"data":    out,
	}
	if callerID := middleware.GetUserID(r.Context()); callerID != "" {
		body["currentUserId"] = callerID
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

func toCardResponse(card models.DonorCard) cardResponse {
	resp := cardResponse{
		DonorID:    card.DonorID.String(),
		UserID:     card.UserID.String(),
		Name:       card.Name,
		Email:      card.Email,
		Phone:      card.Phone,
		BloodGroup: card.BloodGroup,
		Province:   card.Province,
		District:   card.District,
		City:       card.City,
	}
	if card.LastDonationDate != nil {
		s := card.LastDonationDate.Format("2006-01-02")
		resp.LastDonationDate = &s
	}
	if card.NextEligibleDate != nil {
		s := card.NextEligibleDate.Format("2006-01-02")
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
