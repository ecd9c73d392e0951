package events

import (
	"context"
	"testing"
)

func TestEventJSON(t *testing.T) {
	e := New(TransactionCreated, "owner-1", "tx-1")
	e.WalletIDs = []string{"w-1", "w-2"}
	e.LoanIDs = []string{"loan-1"}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	got, err := FromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if got.ID != e.ID || got.Kind != TransactionCreated || got.OwnerID != "owner-1" {
		t.Errorf("unexpected event: %+v", got)
	}
	if len(got.WalletIDs) != 2 || len(got.LoanIDs) != 1 {
		t.Errorf("wallet and loan ids lost: %+v", got)
	}
	if !got.Timestamp.Equal(e.Timestamp) {
		t.Errorf("timestamp: got %v, want %v", got.Timestamp, e.Timestamp)
	}
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	if _, err := FromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), New(WalletCreated, "o", "w")); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
