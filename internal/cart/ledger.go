package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	apperrors "github.com/impexo/storefront/pkg/errors"
	"github.com/impexo/storefront/internal/money"
)

// Ledger is the authoritative local basket. All mutations go through it, and
// each one is persisted synchronously on a best-effort basis: a store failure
// is logged and swallowed, never surfaced to the caller.
type Ledger struct {
	mu     sync.Mutex
	state  State
	store  Store
	logger *slog.Logger
}

// NewLedger creates an empty ledger backed by the given store.
func NewLedger(store Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger,
	}
}

// Rehydrate replaces the in-memory state with the persisted one. An empty
// slot leaves the ledger empty; a corrupt or unreachable store is logged and
// the ledger starts fresh.
func (l *Ledger) Rehydrate(ctx context.Context) {
	state, err := l.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			l.logger.Warn("ledger rehydration failed, starting empty", "error", err)
		}
		return
	}

	l.mu.Lock()
	l.state = *state
	l.mu.Unlock()

	l.logger.Info("ledger rehydrated",
		"lines", len(state.Items),
		"units", state.ItemCount(),
	)
}

// AddItem inserts a line or merges it into an existing one with the same key.
// New lines go to the front so the most recent addition renders first. The
// quantity is clamped to at least one unit.
func (l *Ledger) AddItem(ctx context.Context, item LineItem) error {
	if item.Key.ProductID == 0 {
		return apperrors.Validation(400, "product id is required")
	}
	item.Quantity = money.ClampQuantity(item.Quantity)

	l.mu.Lock()
	if idx := l.state.findIndex(item.Key); idx >= 0 {
		l.state.Items[idx].Quantity += item.Quantity
		if item.RemoteKey != "" {
			l.state.Items[idx].RemoteKey = item.RemoteKey
		}
	} else {
		l.state.Items = append([]LineItem{item}, l.state.Items...)
	}
	l.mu.Unlock()

	l.persist(ctx)
	return nil
}

// SetQuantity sets the unit count of an existing line. Values below one are
// clamped to one; removal is only ever explicit via RemoveItem.
func (l *Ledger) SetQuantity(ctx context.Context, key LineKey, quantity int) error {
	quantity = money.ClampQuantity(quantity)

	l.mu.Lock()
	idx := l.state.findIndex(key)
	if idx < 0 {
		l.mu.Unlock()
		return apperrors.NotFound("line", key.String())
	}
	l.state.Items[idx].Quantity = quantity
	l.mu.Unlock()

	l.persist(ctx)
	return nil
}

// RemoveItem deletes a line from the ledger.
func (l *Ledger) RemoveItem(ctx context.Context, key LineKey) error {
	l.mu.Lock()
	idx := l.state.findIndex(key)
	if idx < 0 {
		l.mu.Unlock()
		return apperrors.NotFound("line", key.String())
	}
	l.state.Items = append(l.state.Items[:idx], l.state.Items[idx+1:]...)
	l.mu.Unlock()

	l.persist(ctx)
	return nil
}

// Clear empties the ledger and resets the selected offer.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	l.state = State{}
	l.mu.Unlock()

	l.persist(ctx)
}

// SelectOffer records the chosen discount tier. Selecting a tier whose unit
// threshold is not yet met is allowed; the discount stays zero until it is.
func (l *Ledger) SelectOffer(ctx context.Context, offer Offer) error {
	if offer != OfferNone {
		if _, ok := offerTiers[offer]; !ok {
			return apperrors.Validation(400, fmt.Sprintf("unknown offer %q", offer))
		}
	}

	l.mu.Lock()
	l.state.Offer = offer
	l.mu.Unlock()

	l.persist(ctx)
	return nil
}

// Snapshot returns a copy of the current state.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := l.state
	cp.Items = append([]LineItem(nil), l.state.Items...)
	return cp
}

// Items returns a copy of the current lines in display order.
func (l *Ledger) Items() []LineItem {
	return l.Snapshot().Items
}

// ItemCount returns the total unit count.
func (l *Ledger) ItemCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.ItemCount()
}

// Subtotal returns the pre-discount total in cents.
func (l *Ledger) Subtotal() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Subtotal()
}

// Discount returns the active discount amount in cents.
func (l *Ledger) Discount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Discount()
}

// Total returns the payable amount in cents.
func (l *Ledger) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Total()
}

// Offer returns the selected tier.
func (l *Ledger) Offer() Offer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Offer
}

func (l *Ledger) persist(ctx context.Context) {
	state := l.Snapshot()
	if err := l.store.Save(ctx, &state); err != nil {
		l.logger.Warn("ledger persistence failed", "error", err)
	}
}
