package relay

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/impexo/storefront/pkg/httputil"
	applog "github.com/impexo/storefront/pkg/logger"
)

// CheckoutHandler forwards order creation to the platform's custom checkout
// endpoint and echoes the upstream status and body back. One upstream call
// per checkout, never retried: creating an order twice is worse than asking
// the shopper to press the button again.
type CheckoutHandler struct {
	wpBaseURL string
	http      *http.Client
	logger    *slog.Logger
}

// NewCheckoutHandler creates the order-creation forwarder.
func NewCheckoutHandler(wpBaseURL string, client *http.Client, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		wpBaseURL: strings.TrimRight(wpBaseURL, "/"),
		http:      client,
		logger:    logger,
	}
}

// ServeHTTP handles POST /api/checkout/create-order.
func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upstreamURL := h.wpBaseURL + "/wp-json/custom-checkout/v1/create-order"

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, upstreamURL, r.Body)
	if err != nil {
		httputil.WriteDiagnostic(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger := applog.WithContext(r.Context(), h.logger)

	resp, err := h.http.Do(req)
	if err != nil {
		logger.Error("checkout upstream unreachable", "error", err)
		httputil.WriteDiagnostic(w, http.StatusBadGateway, "order creation failed: platform unreachable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		logger.Error("checkout upstream returned non-JSON", "status", resp.StatusCode)
		httputil.WriteDiagnostic(w, http.StatusBadGateway, "unexpected answer from order endpoint")
		return
	}

	logger.Info("order forwarded", "upstream_status", resp.StatusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := copyBody(w, resp); err != nil {
		logger.Warn("checkout response stream interrupted", "error", err)
	}
}

func copyBody(w http.ResponseWriter, resp *http.Response) (int64, error) {
	return io.Copy(w, resp.Body)
}
