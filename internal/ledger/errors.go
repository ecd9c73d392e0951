package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/walletledger/internal/storage"
)

// Kind classifies a ledger failure for callers.
type Kind int

const (
	KindInternal Kind = iota
	// KindNotFound covers both missing entities and owner mismatches; the
	// two are indistinguishable on purpose.
	KindNotFound
	KindInvalidArgument
	KindConflict
	// KindUnavailable is retryable.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidArgument:
		return "invalid argument"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by every ledger operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below, so errors.Is(err, ErrNotFound) works
// for any NotFound failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
)

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalidf(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

func conflictf(op, format string, args ...any) error {
	return &Error{Kind: KindConflict, Op: op, Err: fmt.Errorf(format, args...)}
}

// wrap classifies a storage error. Ledger errors pass through unchanged.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := KindInternal
	switch {
	case errors.Is(err, storage.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, storage.ErrDuplicate):
		kind = KindConflict
	case errors.Is(err, storage.ErrUnavailable), errors.Is(err, storage.ErrConflict):
		kind = KindUnavailable
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
