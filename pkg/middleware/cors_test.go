package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsHandler(cfg CORSConfig) http.Handler {
	return CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
}

func TestCORS_PreflightAnswered200NoBody(t *testing.T) {
	h := corsHandler(DefaultCORSConfig([]string{"https://www.impexo.fr"}))

	r := httptest.NewRequest(http.MethodOptions, "/api/checkout/create-order", nil)
	r.Header.Set("Origin", "https://www.impexo.fr")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "https://www.impexo.fr", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_UnknownOriginFallsBackToFirstAllowed(t *testing.T) {
	h := corsHandler(DefaultCORSConfig([]string{"https://www.impexo.fr", "http://localhost:5173"}))

	r := httptest.NewRequest(http.MethodPost, "/api/checkout/create-order", nil)
	r.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, "https://www.impexo.fr", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_KnownOriginEchoed(t *testing.T) {
	h := corsHandler(DefaultCORSConfig([]string{"https://www.impexo.fr", "http://localhost:5173"}))

	r := httptest.NewRequest(http.MethodPost, "/api/checkout/create-order", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_ExposesSessionTokenHeaders(t *testing.T) {
	h := corsHandler(DefaultCORSConfig([]string{"https://www.impexo.fr"}))

	r := httptest.NewRequest(http.MethodPost, "/api/woocommerce/store/v1/cart", nil)
	r.Header.Set("Origin", "https://www.impexo.fr")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "Nonce")
	assert.Contains(t, exposed, "Cart-Token")
}

func TestCORS_Wildcard(t *testing.T) {
	h := corsHandler(CORSConfig{AllowedOrigins: []string{"*"}})

	r := httptest.NewRequest(http.MethodGet, "/api/woocommerce/products", nil)
	r.Header.Set("Origin", "http://anything.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
