// Package wishlist mirrors the cart synchronizer's write-then-refetch
// contract for the wishlist collection, and derives the effective wishlist:
// the server's wishlist minus whatever is already in the cart. The exclusion
// is a view-level projection, not a server-side constraint.
package wishlist

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"bookpasal/pkg/cart"
	"bookpasal/pkg/domain"
)

// Synchronizer keeps an in-memory snapshot of the server-side wishlist and
// joins it against the cart synchronizer's snapshot.
type Synchronizer struct {
	gw     cart.Gateway
	carts  *cart.Synchronizer
	logger *slog.Logger

	mu       sync.Mutex
	snapshot []domain.WishlistItem
	loaded   bool
}

func NewSynchronizer(gw cart.Gateway, carts *cart.Synchronizer) *Synchronizer {
	return &Synchronizer{gw: gw, carts: carts, logger: slog.Default()}
}

// All re-fetches the authoritative wishlist and replaces the snapshot.
func (s *Synchronizer) All(ctx context.Context) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	if err := s.gw.Do(ctx, http.MethodGet, "/books/wishlist/", nil, &items); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snapshot = items
	s.loaded = true
	s.mu.Unlock()
	s.logger.Debug("wishlist snapshot replaced", "items", len(items))
	return items, nil
}

// Add puts a book on the wishlist, then re-fetches.
func (s *Synchronizer) Add(ctx context.Context, bookID int64) ([]domain.WishlistItem, error) {
	payload := map[string]any{"book_id": bookID}
	if err := s.gw.Do(ctx, http.MethodPost, "/books/wishlist/add/", payload, nil); err != nil {
		return nil, err
	}
	return s.All(ctx)
}

// Remove deletes a wishlist entry by its item id, then re-fetches.
func (s *Synchronizer) Remove(ctx context.Context, itemID int64) ([]domain.WishlistItem, error) {
	payload := map[string]any{"wishlist_item_id": itemID}
	if err := s.gw.Do(ctx, http.MethodPost, "/books/wishlist/remove/", payload, nil); err != nil {
		return nil, err
	}
	return s.All(ctx)
}

// Effective is the displayed wishlist: the latest snapshot with every book
// already in the cart filtered out. Recomputed from both snapshots on each
// call, so it is current whenever either source changed.
func (s *Synchronizer) Effective() []domain.WishlistItem {
	s.mu.Lock()
	items := s.snapshot
	s.mu.Unlock()

	out := make([]domain.WishlistItem, 0, len(items))
	for _, item := range items {
		if s.carts.Contains(item.Book) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Count is the badge count, derived from Effective so a book moved to the
// cart is never double-counted.
func (s *Synchronizer) Count() int {
	return len(s.Effective())
}

// MoveToCart adds the book to the cart and then removes the wishlist entry,
// in that order. If the cart call fails the wishlist entry is left alone:
// "still in wishlist" beats "in neither". If the removal fails the book is
// in both collections; that partial outcome stands and the error propagates.
func (s *Synchronizer) MoveToCart(ctx context.Context, bookID, itemID int64) error {
	if _, err := s.carts.AddItem(ctx, bookID, 1); err != nil {
		return err
	}
	if _, err := s.Remove(ctx, itemID); err != nil {
		return err
	}
	return nil
}
