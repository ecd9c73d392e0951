package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs one line per RPC. It must run inside RequireAuth
// to see the owner ID. A nil logger falls back to slog.Default.
//
// Client mistakes (not found, invalid argument, failed precondition...) are
// logged at warn level; internal, unknown and unavailable failures at error.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"owner_id", GetUserID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				logger.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String())
			switch code {
			case connect.CodeInternal, connect.CodeUnknown, connect.CodeUnavailable, connect.CodeDataLoss:
				logger.ErrorContext(ctx, "RPC failed", append(attrs, "error", err)...)
			default:
				logger.WarnContext(ctx, "RPC rejected", append(attrs, "error", err.Error())...)
			}
			return resp, err
		}
	}
}
