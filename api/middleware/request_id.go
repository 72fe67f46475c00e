package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 64
)

const ctxTrace contextKey = "trace"

// requestTrace is shared by pointer down the chain so outer middleware can
// see identities resolved by inner middleware (Recoverer reads the user set
// by Authenticate).
type requestTrace struct {
	requestID string
	userID    uuid.UUID
}

// RequestID tags the request with a client-supplied or generated id and
// echoes it on the response. Ids that are too long or carry characters
// outside [A-Za-z0-9._-] are replaced so they cannot pollute logs.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := context.WithValue(r.Context(), ctxTrace, &requestTrace{requestID: reqID})
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if t := traceFrom(ctx); t != nil {
		return t.requestID
	}
	return ""
}

func traceFrom(ctx context.Context) *requestTrace {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(ctxTrace).(*requestTrace)
	return t
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
