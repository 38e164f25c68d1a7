package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pharmatrace/internal/platform/middleware"
	"pharmatrace/pkg/domain"
	dErrors "pharmatrace/pkg/domain-errors"
)

// Claims represents the JWT claims the session layer issues for a caller.
// The roles slice mirrors what the identity registries verified for the actor
// at token mint time.
type Claims struct {
	Actor string   `json:"actor"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTService handles token creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateCallerToken mints a token binding an actor to its verified roles.
func (s *JWTService) GenerateCallerToken(actor domain.Actor, roles []domain.Role, expiresIn time.Duration) (string, error) {
	roleStrings := make([]string, len(roles))
	for i, r := range roles {
		roleStrings[i] = string(r)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Actor: string(actor),
		Roles: roleStrings,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// VerifyToken implements middleware.TokenVerifier.
func (s *JWTService) VerifyToken(tokenString string) (*middleware.CallerClaims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	if !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.Actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing actor claim")
	}

	roles := make([]domain.Role, len(claims.Roles))
	for i, r := range claims.Roles {
		roles[i] = domain.Role(r)
	}
	return &middleware.CallerClaims{
		Actor: domain.Actor(claims.Actor),
		Roles: roles,
	}, nil
}
