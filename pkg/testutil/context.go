package testutil

import (
	"net/http"

	"bloodbridge/internal/platform/middleware"
)

// WithAuth binds an authenticated caller to the request context, simulating
// what the auth middleware does after validating a token.
func WithAuth(req *http.Request, userID, role string) *http.Request {
	claims := &middleware.JWTClaims{
		UserID: userID,
		Role:   role,
		JTI:    "test-jti",
	}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}
