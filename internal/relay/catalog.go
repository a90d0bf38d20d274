// Package relay is the server-side credential holder. The browser never sees
// the commerce platform's consumer key pair; every catalog read and order
// creation passes through these handlers.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/impexo/storefront/pkg/httputil"
	applog "github.com/impexo/storefront/pkg/logger"
	"github.com/impexo/storefront/pkg/pagination"
)

// upstreamDoer is what the handlers need from the transport layer. The
// circuit-breaker client satisfies it.
type upstreamDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// forwarded upstream response headers the storefront relies on for paging.
var catalogPassHeaders = []string{"X-Total", "X-Total-Pages", "Cache-Control"}

// CatalogHandler proxies catalog reads to the platform's REST surface,
// attaching the consumer credentials via Basic Auth. Upstream failures and
// non-JSON answers become the diagnostic object so list-shaped clients
// degrade to an empty collection.
type CatalogHandler struct {
	wpBaseURL      string
	consumerKey    string
	consumerSecret string
	http           upstreamDoer
	logger         *slog.Logger
}

// NewCatalogHandler creates the catalog proxy.
func NewCatalogHandler(wpBaseURL, consumerKey, consumerSecret string, doer upstreamDoer, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		wpBaseURL:      strings.TrimRight(wpBaseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		http:           doer,
		logger:         logger,
	}
}

// ServeHTTP forwards GET /api/woocommerce/{rest...} to /wp-json/wc/v3/{rest}.
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")
	if rest == "" || strings.Contains(rest, "..") {
		httputil.WriteDiagnostic(w, http.StatusBadRequest, "invalid catalog path")
		return
	}

	query := r.URL.Query()
	pagination.FromRequest(r).Apply(query)

	upstreamURL := h.wpBaseURL + "/wp-json/wc/v3/" + rest + "?" + query.Encode()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		httputil.WriteDiagnostic(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}
	req.SetBasicAuth(h.consumerKey, h.consumerSecret)
	req.Header.Set("Accept", "application/json")

	logger := applog.WithContext(r.Context(), h.logger)

	resp, err := h.http.Do(r.Context(), req)
	if err != nil {
		logger.Error("catalog upstream unreachable", "path", rest, "error", err)
		httputil.WriteDiagnostic(w, http.StatusBadGateway, "commerce platform unreachable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		logger.Warn("catalog upstream returned non-JSON",
			"path", rest, "status", resp.StatusCode, "content_type", contentType)
		httputil.WriteDiagnostic(w, http.StatusBadGateway, "upstream returned "+contentType)
		return
	}
	if resp.StatusCode >= 400 {
		logger.Warn("catalog upstream error", "path", rest, "status", resp.StatusCode)
		httputil.WriteDiagnostic(w, resp.StatusCode, "upstream returned status "+resp.Status)
		return
	}

	for _, name := range catalogPassHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := copyBody(w, resp); err != nil {
		logger.Warn("catalog response stream interrupted", "path", rest, "error", err)
	}
}
