// Package events publishes ledger change notifications.
//
// Events are emitted after a mutation has committed. Delivery is best
// effort: a failed publish is logged by the caller and never rolls back the
// ledger write.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind is the routing key of an event.
type Kind string

const (
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
	WalletCreated      Kind = "wallet.created"
	WalletUpdated      Kind = "wallet.updated"
	WalletDeleted      Kind = "wallet.deleted"
	WalletArchived     Kind = "wallet.archived"
	WalletAdjusted     Kind = "wallet.adjusted"
	LoanReconciled     Kind = "loan.reconciled"
	LoanDeleted        Kind = "loan.deleted"
	DefaultsSeeded     Kind = "defaults.seeded"
)

// Event is a lightweight change message. Consumers fetch full entities
// from the ledger by ID.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	OwnerID   string    `json:"owner_id"`
	EntityID  string    `json:"entity_id,omitempty"`
	WalletIDs []string  `json:"wallet_ids,omitempty"`
	LoanIDs   []string  `json:"loan_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds an event with a fresh ID and the current time.
func New(kind Kind, ownerID, entityID string) Event {
	return Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		OwnerID:   ownerID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event.
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
