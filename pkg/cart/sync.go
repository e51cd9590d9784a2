// Package cart mediates all reads and writes of the server-side cart.
// Mutations follow a strict write-then-refetch discipline: the server owns
// prices, stock and subtotals, so the client never patches its local view.
package cart

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"bookpasal/pkg/domain"
)

// Gateway is the slice of the API client the synchronizer uses.
type Gateway interface {
	Do(ctx context.Context, method, path string, payload, out any) error
}

// Synchronizer keeps an in-memory snapshot of the server-side cart.
type Synchronizer struct {
	gw     Gateway
	logger *slog.Logger

	mu       sync.Mutex
	snapshot domain.Cart
	loaded   bool
	onChange []func()
}

func NewSynchronizer(gw Gateway) *Synchronizer {
	return &Synchronizer{gw: gw, logger: slog.Default()}
}

// OnChange registers a callback fired after every snapshot replacement.
// The wishlist projection subscribes here.
func (s *Synchronizer) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Current re-fetches the authoritative cart and replaces the snapshot.
func (s *Synchronizer) Current(ctx context.Context) (domain.Cart, error) {
	var c domain.Cart
	if err := s.gw.Do(ctx, http.MethodGet, "/orders/carts/current/", nil, &c); err != nil {
		return domain.Cart{}, err
	}
	s.replace(c)
	return c, nil
}

// AddItem adds quantity copies of a book, then re-fetches.
func (s *Synchronizer) AddItem(ctx context.Context, bookID int64, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}
	payload := map[string]any{"book_id": bookID, "quantity": quantity}
	if err := s.gw.Do(ctx, http.MethodPost, "/orders/carts/add_item/", payload, nil); err != nil {
		return domain.Cart{}, err
	}
	return s.Current(ctx)
}

// UpdateQuantity sets a book's quantity, then re-fetches. A quantity of zero
// or below is a removal; the server has no defined state for quantity 0.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, bookID int64, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, bookID)
	}
	payload := map[string]any{"book_id": bookID, "quantity": quantity}
	if err := s.gw.Do(ctx, http.MethodPatch, "/orders/carts/update_quantity/", payload, nil); err != nil {
		return domain.Cart{}, err
	}
	return s.Current(ctx)
}

// RemoveItem removes a book from the cart, then re-fetches.
func (s *Synchronizer) RemoveItem(ctx context.Context, bookID int64) (domain.Cart, error) {
	payload := map[string]any{"book_id": bookID}
	if err := s.gw.Do(ctx, http.MethodPost, "/orders/carts/remove_item/", payload, nil); err != nil {
		return domain.Cart{}, err
	}
	return s.Current(ctx)
}

// Snapshot returns the last re-fetched cart without touching the network.
func (s *Synchronizer) Snapshot() (domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, s.loaded
}

// Contains reports whether a book id is in the snapshot.
func (s *Synchronizer) Contains(bookID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.snapshot.Items {
		if item.Book == bookID {
			return true
		}
	}
	return false
}

// Clear empties the local view only. Used after a CASH checkout, where the
// server clears the cart atomically with order creation.
func (s *Synchronizer) Clear() {
	s.replace(domain.Cart{})
}

func (s *Synchronizer) replace(c domain.Cart) {
	s.mu.Lock()
	s.snapshot = c
	s.loaded = true
	listeners := make([]func(), len(s.onChange))
	copy(listeners, s.onChange)
	s.mu.Unlock()
	s.logger.Debug("cart snapshot replaced", "items", len(c.Items))
	for _, fn := range listeners {
		fn()
	}
}
