package jwttoken

import "userflat/internal/platform/middleware"

// JWTServiceAdapter narrows JWTService to middleware.TokenValidator so the
// middleware package never imports jwt.
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
	return &middleware.Claims{Subject: claims.Subject, ClientID: claims.ClientID}, nil
}
