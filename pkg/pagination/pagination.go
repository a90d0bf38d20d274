package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// Params holds pagination parameters extracted from query strings. The
// catalog proxy normalizes them before forwarding to the upstream so a
// misbehaving client cannot request unbounded pages.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: 20,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Page must be positive; per_page is capped at 100.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if perPage := r.URL.Query().Get("per_page"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 100 {
			p.PerPage = v
		}
	}

	return p
}

// Apply writes the parameters into the given query values, replacing any
// client-supplied values with the normalized ones.
func (p Params) Apply(q url.Values) {
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("per_page", strconv.Itoa(p.PerPage))
}
