package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/digipay/internal/domain"
)

// Claims represents the JWT claims
type Claims struct {
	UserID   string          `json:"user_id"`
	Role     domain.Role     `json:"role"`
	Approval domain.Approval `json:"approval,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the caller identity.
func (c *Claims) Principal() (domain.Principal, error) {
	p, err := domain.NewPrincipal(c.UserID, c.Role, c.Approval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return p, nil
}

// JWTManager manages JWT token creation and validation
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate generates a new JWT token for a principal
func (m *JWTManager) Generate(p domain.Principal) (string, error) {
	now := time.Now()
	approval, _ := domain.ApprovalOf(p)

	claims := Claims{
		UserID:   p.Subject(),
		Role:     p.Role(),
		Approval: approval,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify verifies a JWT token and returns the claims
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// Resolve verifies tokenString and returns the principal it names.
func (m *JWTManager) Resolve(tokenString string) (domain.Principal, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Principal()
}
