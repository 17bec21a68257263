package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/repository/interfaces"
)

// Claims is the JWT payload issued on login
type Claims struct {
	UserID        string `json:"userId"`
	Role          string `json:"role"`
	AdminVerified string `json:"adminVerified"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies access tokens
type AuthService struct {
	users  interfaces.UserRepository
	secret []byte
	ttl    time.Duration
	logger logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewAuthService creates the auth service
func NewAuthService(users interfaces.UserRepository, secret string, ttl time.Duration, logger logging.Logger, tracer trace.Tracer) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
		tracer: tracer,
		now:    time.Now,
	}
}

// Login verifies credentials and returns a signed token with the user.
// Credential failures are indistinguishable from unknown emails.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.IsNotFound(err) {
			return "", nil, errors.NewForbidden("invalid email or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errors.NewForbidden("invalid email or password")
	}

	if user.IsBlocked {
		return "", nil, errors.NewForbidden("account is blocked")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info(ctx, "User logged in", map[string]interface{}{
		"userId": user.ID.Hex(),
		"role":   string(user.Role),
	})

	return token, user, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:        user.ID.Hex(),
		Role:          string(user.Role),
		AdminVerified: string(user.AdminVerified),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return token, nil
}

// VerifyToken parses and validates a token, returning its claims
func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewForbidden("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.NewForbidden("invalid or expired token")
	}

	return claims, nil
}
