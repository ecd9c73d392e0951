package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/walletledger/internal/auth"
	"github.com/mmynk/walletledger/internal/ledger"
	"github.com/mmynk/walletledger/internal/middleware"
	"github.com/mmynk/walletledger/internal/models"
)

// toConnectError maps ledger error kinds onto connect codes. Internal
// details never leave the process.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return connect.NewError(connect.CodeCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	switch ledger.KindOf(err) {
	case ledger.KindNotFound:
		return connect.NewError(connect.CodeNotFound, err)
	case ledger.KindInvalidArgument:
		return connect.NewError(connect.CodeInvalidArgument, err)
	case ledger.KindConflict:
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case ledger.KindUnavailable:
		return connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

// authError maps authenticator failures.
func authError(err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidCurrency):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	}
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// ownerID is the authenticated owner of the request.
func ownerID(ctx context.Context) (string, error) {
	id := middleware.GetUserID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return id, nil
}

// logFailure logs errors the caller cannot fix.
func logFailure(ctx context.Context, msg string, err error, args ...any) {
	if k := ledger.KindOf(err); k == ledger.KindInternal || k == ledger.KindUnavailable {
		slog.ErrorContext(ctx, msg, append(args, "error", err)...)
	}
}

// parseDate reads an optional civil date; "" yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, invalidArgument("%s must be YYYY-MM-DD, got %q", field, s)
	}
	return d, nil
}

func parseDatePtr(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}
