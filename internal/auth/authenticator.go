package auth

import (
	"context"

	"github.com/mmynk/walletledger/internal/models"
)

// Authenticator is the identity boundary of the ledger. The ledger itself
// only ever sees the owner ID it returns.
type Authenticator interface {
	// Register creates an account whose aggregates are reported in defaultCurrency.
	Register(ctx context.Context, email, displayName, credential, defaultCurrency string) (*models.User, error)

	// Authenticate verifies credentials and returns the matching user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks a credential before it is stored.
	ValidateCredential(credential string) error
}
