package storeapi

import (
	"net/http"
	"sync"
)

// Header names used by the upstream session cart API. Go's http.Header reads
// are canonicalized, so the anti-forgery header is matched case-insensitively
// regardless of how the upstream spells it.
const (
	headerNonce     = "Nonce"
	headerCartToken = "Cart-Token"
)

// Session holds the per-client credential pair: the anti-forgery token
// required on writes and the session token identifying the basket. Both live
// only in memory and are refreshed from response headers whenever present.
// Concurrent calls race last-response-wins; the mutex guards memory safety,
// not ordering.
type Session struct {
	mu        sync.Mutex
	nonce     string
	cartToken string
}

// NewSession creates an empty session. The first priming read populates it.
func NewSession() *Session {
	return &Session{}
}

// Attach sets the session headers on an outgoing request. The session token
// goes on every call when known; the anti-forgery token only on writes.
func (s *Session) Attach(req *http.Request, write bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cartToken != "" {
		req.Header.Set(headerCartToken, s.cartToken)
	}
	if write && s.nonce != "" {
		req.Header.Set(headerNonce, s.nonce)
	}
}

// Harvest replaces the stored tokens with any the response carries. Called on
// every response, success or failure.
func (s *Session) Harvest(h http.Header) (nonceUpdated, tokenUpdated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := h.Get(headerNonce); v != "" {
		nonceUpdated = v != s.nonce
		s.nonce = v
	}
	if v := h.Get(headerCartToken); v != "" {
		tokenUpdated = v != s.cartToken
		s.cartToken = v
	}
	return nonceUpdated, tokenUpdated
}

// HasNonce reports whether an anti-forgery token is held.
func (s *Session) HasNonce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce != ""
}

// DiscardNonce drops the anti-forgery token after the upstream rejected it.
func (s *Session) DiscardNonce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce = ""
}

// Reset drops both tokens, abandoning the upstream basket session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce = ""
	s.cartToken = ""
}
