package storeapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionAttach(t *testing.T) {
	s := NewSession()
	s.Harvest(http.Header{"Nonce": {"n1"}, "Cart-Token": {"t1"}})

	read := httptest.NewRequest(http.MethodGet, "/cart", nil)
	s.Attach(read, false)
	assert.Empty(t, read.Header.Get("Nonce"))
	assert.Equal(t, "t1", read.Header.Get("Cart-Token"))

	write := httptest.NewRequest(http.MethodPost, "/cart/add-item", nil)
	s.Attach(write, true)
	assert.Equal(t, "n1", write.Header.Get("Nonce"))
	assert.Equal(t, "t1", write.Header.Get("Cart-Token"))
}

func TestSessionHarvestCaseInsensitive(t *testing.T) {
	s := NewSession()

	h := http.Header{}
	h.Set("nonce", "lower")
	h.Set("CART-TOKEN", "upper")

	nonceUpdated, tokenUpdated := s.Harvest(h)
	assert.True(t, nonceUpdated)
	assert.True(t, tokenUpdated)
	assert.True(t, s.HasNonce())
}

func TestSessionHarvestKeepsTokensWhenHeadersAbsent(t *testing.T) {
	s := NewSession()
	s.Harvest(http.Header{"Nonce": {"n1"}, "Cart-Token": {"t1"}})

	nonceUpdated, tokenUpdated := s.Harvest(http.Header{})
	assert.False(t, nonceUpdated)
	assert.False(t, tokenUpdated)
	assert.True(t, s.HasNonce())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	s.Attach(req, true)
	assert.Equal(t, "n1", req.Header.Get("Nonce"))
}

func TestSessionDiscardNonceKeepsCartToken(t *testing.T) {
	s := NewSession()
	s.Harvest(http.Header{"Nonce": {"n1"}, "Cart-Token": {"t1"}})

	s.DiscardNonce()
	assert.False(t, s.HasNonce())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	s.Attach(req, true)
	assert.Empty(t, req.Header.Get("Nonce"))
	assert.Equal(t, "t1", req.Header.Get("Cart-Token"))
}

func TestSessionReset(t *testing.T) {
	s := NewSession()
	s.Harvest(http.Header{"Nonce": {"n1"}, "Cart-Token": {"t1"}})

	s.Reset()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	s.Attach(req, true)
	assert.Empty(t, req.Header.Get("Nonce"))
	assert.Empty(t, req.Header.Get("Cart-Token"))
}
