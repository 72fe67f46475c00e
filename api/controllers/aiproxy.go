package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orchidcraft/orchid-backend/api/responses"
	"github.com/orchidcraft/orchid-backend/internal/aiproxy"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
)

type aiForwarder interface {
	Forward(ctx context.Context, upstream aiproxy.Upstream, req aiproxy.Request) (*aiproxy.Response, error)
}

// AIProxy relays the wildcard path under the mount point to the named upstream.
// Errors use the proxy envelope rather than the coded one.
func AIProxy(proxy aiForwarder, upstream aiproxy.Upstream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if proxy == nil {
			responses.WriteProxyError(w, pkgerrors.New(pkgerrors.CodeGateway, "upstream service error"))
			return
		}

		resp, err := proxy.Forward(r.Context(), upstream, aiproxy.Request{
			Method:      r.Method,
			Path:        chi.URLParam(r, "*"),
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Body:        r.Body,
		})
		if err != nil {
			responses.WriteProxyError(w, err)
			return
		}
		responses.WriteRaw(w, resp.Status, resp.ContentType, resp.Body)
	}
}
