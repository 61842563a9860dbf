package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "userflat/pkg/domain-errors"
)

// Claims are carried by the service tokens allowed to call POST /users/flatten.
type Claims struct {
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService mints and checks HS256 service tokens. The server only checks;
// minting exists for operators and tests.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	leeway     time.Duration
	now        func() time.Time
}

type Option func(*JWTService)

// WithLeeway tolerates clock skew between token issuer and this service.
func WithLeeway(d time.Duration) Option {
	return func(s *JWTService) { s.leeway = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewJWTService(signingKey, issuer, audience string, opts ...Option) *JWTService {
	s := &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JWTService) GenerateToken(subject, clientID string, expiresIn time.Duration) (string, error) {
	issued := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(expiresIn)),
		},
	})
	return token.SignedString(s.signingKey)
}

func (s *JWTService) key(*jwt.Token) (any, error) {
	return s.signingKey, nil
}

// ValidateToken returns the claims of a well-formed, unexpired token issued by
// and for this service. Every failure is CodeUnauthorized.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	case err != nil:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	case claims.Subject == "":
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return claims, nil
}
