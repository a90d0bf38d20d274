package relay

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/impexo/storefront/pkg/httputil"
	applog "github.com/impexo/storefront/pkg/logger"
)

// session token headers relayed verbatim in both directions.
var sessionHeaders = []string{"Nonce", "Cart-Token"}

// StoreHandler passes the session cart surface through to the platform. No
// consumer credentials here: the store API authenticates writes with the
// anti-forgery token the browser already holds, so the relay only has to
// carry the token headers both ways without touching them.
type StoreHandler struct {
	wpBaseURL string
	http      *http.Client
	logger    *slog.Logger
}

// NewStoreHandler creates the session cart pass-through. It takes a plain
// HTTP client on purpose: retries belong to the browser-side reconciliation
// client, and replaying a cart write from the relay would double it.
func NewStoreHandler(wpBaseURL string, client *http.Client, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		wpBaseURL: strings.TrimRight(wpBaseURL, "/"),
		http:      client,
		logger:    logger,
	}
}

// ServeHTTP forwards /api/woocommerce/store/v1/{rest...} to
// /wp-json/wc/store/v1/{rest} with method and body intact.
func (h *StoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")
	if rest == "" || strings.Contains(rest, "..") {
		httputil.WriteDiagnostic(w, http.StatusBadRequest, "invalid store path")
		return
	}

	upstreamURL := h.wpBaseURL + "/wp-json/wc/store/v1/" + rest
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL, r.Body)
	if err != nil {
		httputil.WriteDiagnostic(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, name := range sessionHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	logger := applog.WithContext(r.Context(), h.logger)

	resp, err := h.http.Do(req)
	if err != nil {
		logger.Error("store upstream unreachable", "path", rest, "error", err)
		httputil.WriteDiagnostic(w, http.StatusBadGateway, "commerce platform unreachable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for _, name := range sessionHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
			logger.Debug("session header relayed",
				"header", name, "value", applog.Preview(v, 10))
		}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := copyBody(w, resp); err != nil {
		logger.Warn("store response stream interrupted", "path", rest, "error", err)
	}
}
