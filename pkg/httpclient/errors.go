package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/impexo/storefront/pkg/errors"
)

// upstreamErrorBody covers the error shapes the commerce platform produces:
// WP REST errors carry {code, message}, the relay envelope carries
// {error: {code, message}}.
type upstreamErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into the storefront error taxonomy. The response body is fully consumed
// and closed.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return apperrors.Transient(resp.StatusCode,
			fmt.Sprintf("%s returned status %d (failed to read body: %v)", upstream, resp.StatusCode, err))
	}

	message := upstreamMessage(bodyBytes)
	if message == "" {
		message = fmt.Sprintf("%s returned status %d", upstream, resp.StatusCode)
	} else {
		message = fmt.Sprintf("%s: %s", upstream, message)
	}

	return ClassifyStatus(resp.StatusCode, message)
}

// ClassifyStatus maps an upstream HTTP status to the error taxonomy:
// 5xx, 408 and 429 are transient; every other 4xx is a validation error.
func ClassifyStatus(status int, message string) error {
	switch {
	case status >= 500, status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return apperrors.Transient(status, message)
	case status >= 400:
		return apperrors.Validation(status, message)
	default:
		return apperrors.Internal(fmt.Errorf("unexpected status %d: %s", status, message))
	}
}

// upstreamMessage extracts a human-readable message from an upstream error
// body, tolerating both supported shapes. Returns "" when the body is not
// JSON or carries no message.
func upstreamMessage(body []byte) string {
	var parsed upstreamErrorBody
	if json.Unmarshal(body, &parsed) != nil {
		// Not JSON; a short plain-text body is still worth surfacing.
		text := strings.TrimSpace(string(body))
		if len(text) > 0 && len(text) <= 200 && !strings.HasPrefix(text, "<") {
			return text
		}
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	if parsed.Error != nil {
		return parsed.Error.Message
	}
	return ""
}

// DecodeJSON decodes a JSON response body into dst. A body that fails to
// parse yields a NotJSON error so the caller can fall back to an empty
// collection instead of crashing on an HTML error page.
func DecodeJSON(resp *http.Response, dst any) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20)) // 8 MB limit
	if err != nil {
		return apperrors.Transient(resp.StatusCode, fmt.Sprintf("read body: %v", err))
	}

	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		return apperrors.NotJSON(resp.StatusCode, snippet(bodyBytes))
	}
	return nil
}

// snippet returns a short prefix of the body for diagnostics.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
