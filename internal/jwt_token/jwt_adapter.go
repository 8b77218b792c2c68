package jwttoken

import (
	"bloodbridge/internal/platform/middleware"
)

// MiddlewareAdapter exposes the token service through the middleware's
// validator interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID: claims.UserID,
		Phone:  claims.Phone,
		Role:   claims.Role,
		JTI:    claims.ID,
	}, nil
}
