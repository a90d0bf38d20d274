package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/impexo/storefront/pkg/errors"
	"github.com/impexo/storefront/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, Response{Data: map[string]int{"items_count": 2}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"items_count":2}}`, rec.Body.String())
}

func TestWriteDiagnostic_EmptyCollectionFallback(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDiagnostic(rec, http.StatusBadGateway, "upstream returned HTML")

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var diag Diagnostic
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &diag))
	assert.Equal(t, "upstream returned HTML", diag.Error)
	assert.Equal(t, http.StatusBadGateway, diag.Status)
	require.NotNil(t, diag.Data)
	assert.Empty(t, diag.Data)

	// The raw body must carry "data":[] so naive list consumers see a slice.
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/checkout/create-order", nil)

	WriteError(rec, r, apperrors.CheckoutFailed("payment method unavailable"), testLogger())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CHECKOUT_FAILED", resp.Error.Code)
	assert.Equal(t, "payment method unavailable", resp.Error.Message)
}

func TestWriteError_Sentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/woocommerce/products", nil)

	WriteError(rec, r, apperrors.ErrTransient, testLogger())

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TRANSIENT_NETWORK_ERROR", resp.Error.Code)
}

func TestWriteValidationError_FieldMap(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}
	err := validator.Validate(payload{Email: "nope"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Email")
}
