package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage/sqlite"
)

func newAuthenticator(t *testing.T) *PasswordAuthenticator {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := newAuthenticator(t)

	user, err := a.Register(ctx, "Alice@Example.com", "Alice", "correct horse", "myr")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.DefaultCurrency != "MYR" || user.PasswordHash == "correct horse" {
		t.Errorf("unexpected user: %+v", user)
	}

	tests := []struct {
		name     string
		email    string
		password string
		currency string
		wantErr  error
	}{
		{"duplicate email ignores case", "alice@example.com", "another pass", "USD", ErrEmailExists},
		{"weak password", "bob@example.com", "short", "USD", ErrWeakPassword},
		{"bad email", "not-an-email", "long enough", "USD", ErrInvalidEmail},
		{"unknown currency", "carol@example.com", "long enough", "XYZ", ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, "x", tt.password, tt.currency)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("authenticate", func(t *testing.T) {
		got, err := a.Authenticate(ctx, "ALICE@example.com", "correct horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("Authenticate returned %s, want %s", got.ID, user.ID)
		}
		if _, err := a.Authenticate(ctx, "alice@example.com", "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("wrong password error = %v", err)
		}
		if _, err := a.Authenticate(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("unknown email error = %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "alice@example.com"}
	m := NewJWTManager("0123456789abcdef", time.Hour)

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.ID == "" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	t.Run("other secret", func(t *testing.T) {
		other := NewJWTManager("fedcba9876543210", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { m.now = time.Now }()
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		m.Revoke(claims)
		if _, err := m.Validate(token); !errors.Is(err, ErrRevokedToken) {
			t.Errorf("Validate() error = %v, want ErrRevokedToken", err)
		}
		fresh, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := m.Validate(fresh); err != nil {
			t.Errorf("a new token must stay valid: %v", err)
		}
	})
}
