package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogapi/internal/models"
	"blogapi/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// AuthOutcome classifies the result of authenticating a request.
type AuthOutcome int

const (
	// Anonymous requests continue without a user.
	Anonymous AuthOutcome = iota
	// Authenticated requests carry a known user.
	Authenticated
	// Rejected requests presented a token that failed verification.
	Rejected
)

func (o AuthOutcome) String() string {
	switch o {
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "anonymous"
	}
}

// AuthDecision is the outcome of Decide. User is set only when Authenticated,
// Reason only when Rejected.
type AuthDecision struct {
	Outcome AuthOutcome
	User    *models.User
	Reason  string
}

// AuthService verifies bearer tokens and resolves the user they name.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which issued tokens are valid
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		logger:     logger,
	}
}

// IssueToken signs a token whose subject is username.
func (s *AuthService) IssueToken(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   username,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenDurat).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies a token, returning its subject.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

// Decide authenticates a request from its Authorization header value.
//
// Every "Bearer " occurrence is stripped, not just a leading one. A missing
// header or token is anonymous, a bad token is rejected and a valid token
// for an unknown username is anonymous. Only store failures return an error.
func (s *AuthService) Decide(ctx context.Context, authHeader string) (AuthDecision, error) {
	if authHeader == "" {
		return AuthDecision{Outcome: Anonymous}, nil
	}

	tokenString := strings.ReplaceAll(authHeader, "Bearer ", "")
	if tokenString == "" {
		return AuthDecision{Outcome: Anonymous}, nil
	}

	username, err := s.ValidateToken(tokenString)
	if err != nil {
		s.logger.Info("rejected bearer token", zap.Error(err))
		return AuthDecision{Outcome: Rejected, Reason: err.Error()}, nil
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Debug("token subject is not a known user", zap.String("username", username))
			return AuthDecision{Outcome: Anonymous}, nil
		}
		return AuthDecision{}, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	return AuthDecision{Outcome: Authenticated, User: user}, nil
}
