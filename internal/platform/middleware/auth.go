package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker reports whether a token has been revoked (logout).
type TokenRevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID string
	Phone  string
	Role   string
	JTI    string
}

// Context keys for storing authenticated caller information
type contextKeyUserID struct{}
type contextKeyRole struct{}
type contextKeyPhone struct{}
type contextKeyJTI struct{}

var (
	ctxKeyUserID = contextKeyUserID{}
	ctxKeyRole   = contextKeyRole{}
	ctxKeyPhone  = contextKeyPhone{}
	ctxKeyJTI    = contextKeyJTI{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	id, ok := ctx.Value(ctxKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetRole retrieves the authenticated caller's role from the context.
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(ctxKeyRole).(string)
	if !ok {
		return ""
	}
	return role
}

// GetPhone retrieves the authenticated caller's phone number from the context.
func GetPhone(ctx context.Context) string {
	phone, ok := ctx.Value(ctxKeyPhone).(string)
	if !ok {
		return ""
	}
	return phone
}

// GetJTI retrieves the token ID from the context for revocation on logout.
func GetJTI(ctx context.Context) string {
	jti, ok := ctx.Value(ctxKeyJTI).(string)
	if !ok {
		return ""
	}
	return jti
}

// WithClaims binds the caller identity to the context. Handler tests use it to
// simulate an authenticated request without minting a token.
func WithClaims(ctx context.Context, claims *JWTClaims) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, claims.UserID)
	ctx = context.WithValue(ctx, ctxKeyRole, claims.Role)
	ctx = context.WithValue(ctx, ctxKeyPhone, claims.Phone)
	return context.WithValue(ctx, ctxKeyJTI, claims.JTI)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","error_description":"` + errDesc + `"}`))
}

func bearerToken(r *http.Request) (string, bool) {
	return strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// RequireAuth validates the bearer token, consults the revocation list, and
// stores the caller's claims in the request context.
func RequireAuth(validator JWTValidator, revocation TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Please provide token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if revocation != nil && claims.JTI != "" {
				revoked, err := revocation.IsRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate token")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.JTI,
						"request_id", GetRequestID(ctx),
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid token is presented but lets the
// request through either way. The eligible-donor listing uses it for the
// "is this me" annotation on an otherwise public endpoint.
func OptionalAuth(validator JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if claims, err := validator.ValidateToken(token); err == nil {
					r = r.WithContext(WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route to callers holding the given role. It must run
// after RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if GetUserID(ctx) == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "User not logged in")
				return
			}
			if GetRole(ctx) != role {
				logger.WarnContext(ctx, "forbidden - role mismatch",
					"required_role", role,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Access denied: only "+role+" allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
