package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"bookpasal/pkg/api"
	"bookpasal/pkg/cart"
	"bookpasal/pkg/domain"
	"bookpasal/pkg/session"
)

// fakeStore serves both the cart and wishlist endpoints against one state.
type fakeStore struct {
	mu                 sync.Mutex
	cartQty            map[int64]int
	wishlist           map[int64]int64 // itemID -> bookID
	failCartAdd        bool
	failWishlistDelete bool
}

func (f *fakeStore) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/orders/carts/current/":
			c := domain.Cart{ID: 1}
			for book, qty := range f.cartQty {
				c.Items = append(c.Items, domain.CartItem{Book: book, Quantity: qty})
			}
			c.ItemsCount = len(c.Items)
			_ = json.NewEncoder(w).Encode(c)
		case "/orders/carts/add_item/":
			if f.failCartAdd {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "out of stock"})
				return
			}
			var body struct {
				BookID   int64 `json:"book_id"`
				Quantity int   `json:"quantity"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.cartQty[body.BookID] += body.Quantity
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		case "/books/wishlist/":
			ids := make([]int64, 0, len(f.wishlist))
			for id := range f.wishlist {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			items := make([]domain.WishlistItem, 0, len(ids))
			for _, id := range ids {
				items = append(items, domain.WishlistItem{
					ID:        id,
					Book:      f.wishlist[id],
					BookTitle: fmt.Sprintf("book-%d", f.wishlist[id]),
				})
			}
			_ = json.NewEncoder(w).Encode(items)
		case "/books/wishlist/add/":
			var body struct {
				BookID int64 `json:"book_id"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.wishlist[int64(len(f.wishlist)+1)] = body.BookID
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "Book added to wishlist"})
		case "/books/wishlist/remove/":
			if f.failWishlistDelete {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "boom"})
				return
			}
			var body struct {
				ItemID int64 `json:"wishlist_item_id"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			delete(f.wishlist, body.ItemID)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "Book removed from wishlist"})
		default:
			http.NotFound(w, r)
		}
	})
}

func newSyncs(t *testing.T, f *fakeStore) (*cart.Synchronizer, *Synchronizer) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	store, err := session.New(session.NewMemoryCredentialStore())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	if err := store.Login(domain.User{ID: 1, Username: "sita"}, "access", "refresh"); err != nil {
		t.Fatalf("login: %v", err)
	}
	gw := api.New(srv.URL, store)
	carts := cart.NewSynchronizer(gw)
	return carts, NewSynchronizer(gw, carts)
}

func TestEffectiveExcludesBooksInCart(t *testing.T) {
	f := &fakeStore{
		cartQty:  map[int64]int{10: 1},
		wishlist: map[int64]int64{1: 10, 2: 20},
	}
	carts, wl := newSyncs(t, f)
	ctx := context.Background()

	if _, err := carts.Current(ctx); err != nil {
		t.Fatalf("fetch cart: %v", err)
	}
	if _, err := wl.All(ctx); err != nil {
		t.Fatalf("fetch wishlist: %v", err)
	}

	eff := wl.Effective()
	if len(eff) != 1 || eff[0].Book != 20 {
		t.Fatalf("effective wishlist = %+v, want only book 20", eff)
	}
	if wl.Count() != 1 {
		t.Fatalf("count = %d, want 1 (raw length would be 2)", wl.Count())
	}

	// Adding the remaining book to the cart empties the effective view
	// without another wishlist fetch.
	if _, err := carts.AddItem(ctx, 20, 1); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if got := wl.Effective(); len(got) != 0 {
		t.Fatalf("effective wishlist after cart add = %+v, want empty", got)
	}
}

func TestMoveToCartStopsWhenCartAddFails(t *testing.T) {
	f := &fakeStore{
		cartQty:     map[int64]int{},
		wishlist:    map[int64]int64{1: 10},
		failCartAdd: true,
	}
	_, wl := newSyncs(t, f)
	ctx := context.Background()
	if _, err := wl.All(ctx); err != nil {
		t.Fatalf("fetch wishlist: %v", err)
	}

	if err := wl.MoveToCart(ctx, 10, 1); err == nil {
		t.Fatal("expected cart add failure")
	}
	// Item must still be only in the wishlist.
	if len(f.wishlist) != 1 {
		t.Fatal("wishlist removal must not run after a failed cart add")
	}
	if len(f.cartQty) != 0 {
		t.Fatal("cart must be untouched")
	}
}

func TestMoveToCartPartialFailureLeavesBookInBoth(t *testing.T) {
	f := &fakeStore{
		cartQty:            map[int64]int{},
		wishlist:           map[int64]int64{1: 10},
		failWishlistDelete: true,
	}
	carts, wl := newSyncs(t, f)
	ctx := context.Background()
	if _, err := wl.All(ctx); err != nil {
		t.Fatalf("fetch wishlist: %v", err)
	}

	err := wl.MoveToCart(ctx, 10, 1)
	if err == nil {
		t.Fatal("expected wishlist removal failure")
	}
	// Documented partial outcome: book 10 in both collections, not silently
	// corrected.
	if f.cartQty[10] != 1 {
		t.Fatal("book should be in the cart")
	}
	if f.wishlist[1] != 10 {
		t.Fatal("book should still be on the server wishlist")
	}
	// The effective view hides it, because the cart snapshot now has it.
	if !carts.Contains(10) {
		t.Fatal("cart snapshot should contain the book after the refetch")
	}
	if got := wl.Effective(); len(got) != 0 {
		t.Fatalf("effective view should suppress the duplicated book, got %+v", got)
	}
}
