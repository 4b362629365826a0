// internal/pkg/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExtractTokenFromHeader pulls the bearer token out of an Authorization
// header, returning an empty string for any other scheme
func ExtractTokenFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// JWTManager handles token generation and validation
type JWTManager struct {
	secretKey      string
	expiresIn      time.Duration
	refreshExpires time.Duration
	issuer         string
}

// Claims represents the JWT claims carried by access tokens
type Claims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, expiresIn, refreshExpires time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secretKey:      secretKey,
		expiresIn:      expiresIn,
		refreshExpires: refreshExpires,
		issuer:         issuer,
	}
}

// GenerateToken creates a new access token for the user
func (j *JWTManager) GenerateToken(userID uint, email string, isAdmin bool) (string, error) {
	return j.generate(userID, email, isAdmin, j.expiresIn)
}

// GenerateRefreshToken creates a new refresh token for the user
func (j *JWTManager) GenerateRefreshToken(userID uint, email string, isAdmin bool) (string, error) {
	return j.generate(userID, email, isAdmin, j.refreshExpires)
}

func (j *JWTManager) generate(userID uint, email string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Subject:   fmt.Sprintf("%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ValidateToken validates a token and returns its claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token has expired")
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
