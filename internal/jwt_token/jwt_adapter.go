package jwttoken

import (
	"vouch/internal/platform/middleware"
	"vouch/pkg/domain"
)

// JWTServiceAdapter bridges JWTService to the auth middleware contract.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{Identity: domain.Identity(claims.Identity)}, nil
}
