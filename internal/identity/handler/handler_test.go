package handler

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	identityservice "bloodbridge/internal/identity/service"
	identitystore "bloodbridge/internal/identity/store"
	"bloodbridge/internal/identity/store/revocation"
	jwttoken "bloodbridge/internal/jwt_token"
	"bloodbridge/pkg/testutil"
)

type AuthHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	store := identitystore.NewMemory()
	trl := revocation.NewMemoryTRL()
	tokens := jwttoken.NewService("test-secret", "bloodbridge", time.Hour)

	svc := identityservice.New(store, tokens,
		identityservice.WithRevocationList(trl))
	h := New(svc, discardLogger(), jwttoken.NewMiddlewareAdapter(tokens), trl)

	s.router = chi.NewRouter()
	s.router.Route("/api/auth", h.Register)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func (s *AuthHandlerSuite) signup(phone string) {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/signup", map[string]string{
		"userName":    "sita",
		"password":    "secret-pass",
		"email":       "sita@example.com",
		"phoneNumber": phone,
	}))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *AuthHandlerSuite) signin(phone, password string) string {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/signin", map[string]string{
		"phoneNumber": phone,
		"password":    password,
	}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[struct {
		Data struct {
			Token string `json:"token"`
			Role  string `json:"role"`
		} `json:"data"`
	}](s.T(), rr)
	s.Equal("user", resp.Data.Role)
	s.NotEmpty(resp.Data.Token)
	return resp.Data.Token
}

func (s *AuthHandlerSuite) TestSignupAndSignin() {
	s.signup("9800000060")

	s.Run("duplicate phone conflicts", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/signup", map[string]string{
			"userName":    "sita",
			"password":    "secret-pass",
			"email":       "sita2@example.com",
			"phoneNumber": "9800000060",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		testutil.AssertErrorCode(s.T(), rr, "conflict")
	})

	s.Run("signin returns a session token", func() {
		s.signin("9800000060", "secret-pass")
	})

	s.Run("wrong password unauthorized", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/signin", map[string]string{
			"phoneNumber": "9800000060",
			"password":    "wrong-pass",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("malformed body rejected", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/api/auth/signup")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *AuthHandlerSuite) TestLogoutRevokesToken() {
	s.signup("9800000061")
	token := s.signin("9800000061", "secret-pass")

	logout := func() *http.Request {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/api/auth/logout")
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	rr := testutil.DoRequest(s.router, logout())
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = testutil.DoRequest(s.router, logout())
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}
