package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	tm := NewTokenManager("test-secret", time.Hour)
	return New(store.NewMemory(), tm, "admin@example.com", "sup3rsecret",
		decimal.NewFromInt(10000), zap.NewNop())
}

func TestSignupLoginRoundTrip(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	u, token, err := s.Signup(ctx, "Alice", "Alice@Example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email=%q want lowercased", u.Email)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("role=%s want user", u.Role)
	}
	if token == "" {
		t.Fatal("no token issued")
	}

	got, err := s.UserFromToken(ctx, token)
	if err != nil || got.ID != u.ID {
		t.Fatalf("UserFromToken=%+v err=%v", got, err)
	}

	if _, _, err := s.Login(ctx, "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := s.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password err=%v want ErrInvalidCredentials", err)
	}
	if _, _, err := s.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err=%v want ErrInvalidCredentials", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	if _, _, err := s.Signup(ctx, "Alice", "alice@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}
	_, _, err := s.Signup(ctx, "Other Alice", "alice@example.com", "different")
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("err=%v want ErrEmailTaken", err)
	}
}

func TestSignupValidation(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	for name, args := range map[string][3]string{
		"empty name":     {"", "a@b.com", "hunter22"},
		"bad email":      {"Alice", "not-an-email", "hunter22"},
		"short password": {"Alice", "a@b.com", "abc"},
	} {
		if _, _, err := s.Signup(ctx, args[0], args[1], args[2]); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err=%v want ErrInvalidInput", name, err)
		}
	}
}

func TestAdminCredentialsPromote(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	u, _, err := s.Signup(ctx, "Boss", "admin@example.com", "sup3rsecret")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("role=%s want admin", u.Role)
	}

	// same email with the wrong admin password stays a plain user
	s2 := newService(t)
	u2, _, err := s2.Signup(ctx, "Impostor", "admin@example.com", "guessing1")
	if err != nil {
		t.Fatal(err)
	}
	if u2.Role != domain.RoleUser {
		t.Fatalf("role=%s want user", u2.Role)
	}
}

func TestTokenExpiry(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	base := time.Now()
	tm.now = func() time.Time { return base }

	token, err := tm.Issue("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if id, err := tm.Verify(token); err != nil || id != "user-1" {
		t.Fatalf("verify=%q err=%v", id, err)
	}

	tm.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := tm.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err=%v want ErrInvalidToken", err)
	}
}

func TestTokenTamper(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)
	token, _ := other.Issue("user-1")
	if _, err := tm.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign-key token err=%v want ErrInvalidToken", err)
	}
	if _, err := tm.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token err=%v want ErrInvalidToken", err)
	}
}
