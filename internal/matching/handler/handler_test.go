package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	donormodels "bloodbridge/internal/donor/models"
	donorstore "bloodbridge/internal/donor/store"
	identitymodels "bloodbridge/internal/identity/models"
	identitystore "bloodbridge/internal/identity/store"
	jwttoken "bloodbridge/internal/jwt_token"
	matchingservice "bloodbridge/internal/matching/service"
	matchingstore "bloodbridge/internal/matching/store"
	"bloodbridge/pkg/testutil"
)

func newDirectoryRouter(t *testing.T) (chi.Router, *identitystore.Memory, *donorstore.Memory) {
	t.Helper()

	identities := identitystore.NewMemory()
	donors := donorstore.NewMemory()
	svc := matchingservice.New(matchingstore.NewMemory(donors, identities))
	tokens := jwttoken.NewService("test-secret", "bloodbridge", time.Hour)

	h := New(svc, slog.New(slog.DiscardHandler), jwttoken.NewMiddlewareAdapter(tokens))
	r := chi.NewRouter()
	r.Route("/api/donor", h.Register)
	return r, identities, donors
}

func seedDonor(t *testing.T, identities *identitystore.Memory, donors *donorstore.Memory, name, bloodGroup string) {
	t.Helper()

	user := &identitymodels.User{
		ID:       uuid.New(),
		UserName: name,
		Email:    name + "@example.com",
		Phone:    "98000000" + name[:2],
		Role:     identitymodels.RoleDonor,
	}
	require.NoError(t, identities.Create(context.Background(), user))
	require.NoError(t, donors.Create(context.Background(), &donormodels.Donor{
		ID:          uuid.New(),
		UserID:      user.ID,
		BloodGroup:  bloodGroup,
		Province:    "Bagmati",
		District:    "Kathmandu",
		City:        "Kathmandu",
		DateOfBirth: time.Date(1991, time.February, 3, 0, 0, 0, 0, time.UTC),
	}))
}

func TestEligibleListingIsPublic(t *testing.T) {
	router, identities, donors := newDirectoryRouter(t)
	seedDonor(t, identities, donors, "hari", "A+")

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/donor/eligible"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[struct {
		Data []struct {
			Name       string `json:"name"`
			BloodGroup string `json:"bloodGroup"`
		} `json:"data"`
		CurrentUserID string `json:"currentUserId"`
	}](t, rr)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "hari", resp.Data[0].Name)
	require.Empty(t, resp.CurrentUserID)
}

func TestEligibleListingEchoesCaller(t *testing.T) {
	router, identities, donors := newDirectoryRouter(t)
	seedDonor(t, identities, donors, "hari", "A+")

	callerID := uuid.NewString()
	req := testutil.WithAuth(testutil.NewRequest(t, http.MethodGet, "/api/donor/eligible"), callerID, "user")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "currentUserId", callerID)
}

func TestSearchRequiresAFilter(t *testing.T) {
	router, identities, donors := newDirectoryRouter(t)
	seedDonor(t, identities, donors, "hari", "A+")
	seedDonor(t, identities, donors, "gita", "B+")

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/donor/search"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "validation_error")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/donor/search?bloodGroup=B%2B"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}](t, rr)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "gita", resp.Data[0].Name)
}
