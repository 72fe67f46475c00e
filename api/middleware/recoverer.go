package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/api/responses"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope and logs it with the
// route, caller and order or artwork the request was about.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{"panic": fmt.Sprint(rec), "method": r.Method}
					for k, v := range panicScope(r) {
						fields[k] = v
					}
					ctx = logg.WithFields(ctx, fields)
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// panicScope reads what inner layers resolved before the panic: the route
// chi matched, the authenticated user and the resource id in the path.
func panicScope(r *http.Request) map[string]any {
	out := map[string]any{}
	if t := traceFrom(r.Context()); t != nil && t.userID != uuid.Nil {
		out["user_id"] = t.userID.String()
	}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return out
	}
	pattern := rctx.RoutePattern()
	if pattern != "" {
		out["route"] = pattern
	}
	if id := rctx.URLParam("id"); id != "" {
		switch {
		case strings.Contains(pattern, "/order/"):
			out["order_id"] = id
		case strings.Contains(pattern, "/artworks/"):
			out["artwork_id"] = id
		}
	}
	return out
}
