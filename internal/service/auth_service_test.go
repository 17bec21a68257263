package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
)

const testPassword = "correct-horse-battery"

func seedAccount(t *testing.T, users *fakeUserRepo, blocked bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	return users.put(&domain.User{
		Name:          "Tech",
		Email:         "tech@example.com",
		Password:      string(hash),
		Role:          domain.RoleTechnician,
		AdminVerified: domain.VerificationVerified,
		IsBlocked:     blocked,
	})
}

func newAuthService(users *fakeUserRepo) *AuthService {
	return NewAuthService(users, "test-secret", time.Hour, logging.NewNoOpLogger(), testTracer())
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	users := newFakeUserRepo()
	user := seedAccount(t, users, false)
	svc := newAuthService(users)

	token, loggedIn, err := svc.Login(context.Background(), " Tech@Example.com ", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("logged in user = %s, want %s", loggedIn.ID.Hex(), user.ID.Hex())
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, user.ID.Hex())
	}
	if claims.Role != string(domain.RoleTechnician) {
		t.Errorf("claims.Role = %q, want %q", claims.Role, domain.RoleTechnician)
	}
	if claims.AdminVerified != string(domain.VerificationVerified) {
		t.Errorf("claims.AdminVerified = %q, want %q", claims.AdminVerified, domain.VerificationVerified)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		blocked  bool
	}{
		{"wrong password", "tech@example.com", "nope", false},
		{"unknown email", "nobody@example.com", testPassword, false},
		{"blocked account", "tech@example.com", testPassword, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUserRepo()
			seedAccount(t, users, tt.blocked)
			svc := newAuthService(users)

			_, _, err := svc.Login(context.Background(), tt.email, tt.password)
			if !errors.IsForbidden(err) {
				t.Errorf("Login() error = %v, want forbidden", err)
			}
		})
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	users := newFakeUserRepo()
	seedAccount(t, users, false)
	svc := newAuthService(users)
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	token, _, err := svc.Login(context.Background(), "tech@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := svc.VerifyToken(token); !errors.IsForbidden(err) {
		t.Errorf("VerifyToken() error = %v, want forbidden for expired token", err)
	}
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	users := newFakeUserRepo()
	seedAccount(t, users, false)
	issuer := newAuthService(users)

	token, _, err := issuer.Login(context.Background(), "tech@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	verifier := NewAuthService(users, "different-secret", time.Hour, logging.NewNoOpLogger(), testTracer())
	if _, err := verifier.VerifyToken(token); !errors.IsForbidden(err) {
		t.Errorf("VerifyToken() error = %v, want forbidden for wrong secret", err)
	}

	if _, err := issuer.VerifyToken("not-a-token"); !errors.IsForbidden(err) {
		t.Errorf("VerifyToken(garbage) error = %v, want forbidden", err)
	}
}
