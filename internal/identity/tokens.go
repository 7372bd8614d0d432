package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"loomline/internal/domain"
)

// TokenService signs and verifies the HS256 bearer tokens the resolver
// consumes. Claims carry everything needed to synthesize a degraded
// handle when the customer record is gone.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

type Claims struct {
	CustomerID string
	Email      string
	Name       string
	Role       string
}

func (s *TokenService) Issue(c *domain.Customer) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   c.ID,
		"email": c.Email,
		"name":  c.DisplayName,
		"role":  c.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	})
	return tok.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the identity claims.
// Any parse or validation failure maps to domain.ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (Claims, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, domain.ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, domain.ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	email, _ := mc["email"].(string)
	name, _ := mc["name"].(string)
	role, _ := mc["role"].(string)
	if email == "" {
		return Claims{}, domain.ErrInvalidToken
	}
	if role == "" {
		role = domain.RoleCustomer
	}
	return Claims{CustomerID: sub, Email: domain.NormalizeEmail(email), Name: name, Role: role}, nil
}
