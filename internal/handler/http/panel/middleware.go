package panel_http

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"panel/internal/app/panel"
)

// AccountIDHeader carries the caller's account id. It is set by the gateway
// after authentication and is trusted as is.
const AccountIDHeader = "X-Account-ID"

type accountIDKey struct{}

func RequireAccount(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(AccountIDHeader))
			if id == "" {
				logger.Warn("Request without account identity", zap.String("path", r.URL.Path))
				writeJSON(w, logger, http.StatusUnauthorized, panel.Result[any]{
					Success:  false,
					Messages: []panel.Message{{Severity: panel.SeverityError, Message: "missing account identity"}},
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountIDKey{}, id)))
		})
	}
}

func AccountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey{}).(string)
	return id
}
