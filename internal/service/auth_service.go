package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"heat_sequencing/internal/repository"
)

const defaultTokenTTL = 12 * time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrEmptyUsername   = errors.New("username is empty")
)

// AuthService handles operator auth logic
type AuthService struct {
	authRepo   repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(repo repository.Authorization, signingKey string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{authRepo: repo, signingKey: []byte(signingKey), tokenTTL: tokenTTL}
}

// SignUp hashes password and creates a new operator
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, ErrEmptyUsername
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	return s.authRepo.Create(ctx, username, hash)
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int `json:"operator_id"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	op, err := s.authRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrUserNotFound
	}

	if err := verifyPassword(op.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}

	return s.issueToken(op.ID, time.Now())
}

// ParseToken parses JWT and returns the operator id
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.OperatorID, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// issueToken signs a JWT for an operator, valid from now for the configured TTL.
func (s *AuthService) issueToken(operatorID int, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OperatorID: operatorID,
	})
	return token.SignedString(s.signingKey)
}
