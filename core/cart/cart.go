package cart

import (
	"errors"
	"sync"
)

// ErrCheckoutInFlight is returned by buyer-facing mutations while a
// checkout run holds the store. Selectors and ClearShopItems stay
// available so the orchestrator can reconcile per-shop outcomes.
var ErrCheckoutInFlight = errors.New("checkout in flight, cart is locked")

// Line is one product selected by the buyer. Name, UnitPrice, ImageURL,
// ShopName and Stock are snapshots taken when the product was added and
// are never re-fetched while the line lives in the cart.
type Line struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unitPrice"`
	ImageURL  string `json:"imageUrl,omitempty"`
	ShopID    string `json:"shopId"`
	ShopName  string `json:"shopName"`
	Quantity  int    `json:"quantity"`
	Stock     int    `json:"stock"`
}

// ShopGroup is the derived per-shop view of the cart used to split a
// checkout into one order per shop.
type ShopGroup struct {
	ShopID   string `json:"shopId"`
	ShopName string `json:"shopName"`
	Items    []Line `json:"items"`
	Subtotal int    `json:"subtotal"`
}

// Store holds the pending selections of one buyer device. It is the only
// place cart lines are mutated. Every successful mutation triggers a
// best-effort write of the serialized cart to durable storage; a failed
// write is logged by the saver and never surfaced here.
type Store struct {
	mu    sync.Mutex
	key   string
	items map[string]*Line
	order []string
	busy  bool
	save  func(Snapshot)
}

// NewStore builds an empty store for the given device key. The save
// function receives a snapshot after each mutation; nil disables
// persistence.
func NewStore(key string, save func(Snapshot)) *Store {
	return &Store{
		key:   key,
		items: make(map[string]*Line),
		save:  save,
	}
}

// AddItem inserts the product with quantity 1, or bumps the quantity of
// an already-present line, clamped so it never exceeds the stock
// snapshot. The candidate's Quantity field is ignored.
func (s *Store) AddItem(l Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrCheckoutInFlight
	}

	if cur, ok := s.items[l.ProductID]; ok {
		cur.Quantity = min(cur.Quantity+1, cur.Stock)
		s.persist()
		return nil
	}

	l.Quantity = 1
	s.items[l.ProductID] = &l
	s.order = append(s.order, l.ProductID)
	s.persist()
	return nil
}

func (s *Store) RemoveItem(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrCheckoutInFlight
	}

	s.remove(productID)
	s.persist()
	return nil
}

// UpdateQuantity sets a line's quantity, clamped to the stock snapshot.
// A quantity of zero or less removes the line. Unknown products are a
// no-op, not an error.
func (s *Store) UpdateQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrCheckoutInFlight
	}

	cur, ok := s.items[productID]
	if !ok {
		return nil
	}

	if quantity <= 0 {
		s.remove(productID)
	} else {
		cur.Quantity = min(quantity, cur.Stock)
	}

	s.persist()
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrCheckoutInFlight
	}

	s.items = make(map[string]*Line)
	s.order = nil
	s.persist()
	return nil
}

// ClearShopItems drops every line belonging to one shop. It is the
// checkout orchestrator's reconciliation hook and therefore works even
// while the checkout lock is held.
func (s *Store) ClearShopItems(shopID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range append([]string(nil), s.order...) {
		if s.items[id].ShopID == shopID {
			s.remove(id)
		}
	}
	s.persist()
}

// Begin flips the store into checkout mode, locking out buyer-facing
// mutations until End is called.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrCheckoutInFlight
	}
	s.busy = true
	return nil
}

func (s *Store) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// Items returns the lines in insertion order.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// ItemCount sums the quantities of every line.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, l := range s.items {
		n += l.Quantity
	}
	return n
}

// Total sums unitPrice*quantity over every line, using the price
// snapshots taken at add time.
func (s *Store) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tot int
	for _, l := range s.items {
		tot += l.UnitPrice * l.Quantity
	}
	return tot
}

// GroupByShop partitions the lines by shop. Groups appear in the
// insertion order of each shop's first line, lines keep their own
// insertion order, and every line lands in exactly one group.
func (s *Store) GroupByShop() []ShopGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []ShopGroup
	index := make(map[string]int)

	for _, id := range s.order {
		l := s.items[id]
		i, ok := index[l.ShopID]
		if !ok {
			i = len(groups)
			index[l.ShopID] = i
			groups = append(groups, ShopGroup{ShopID: l.ShopID, ShopName: l.ShopName})
		}
		groups[i].Items = append(groups[i].Items, *l)
		groups[i].Subtotal += l.UnitPrice * l.Quantity
	}
	return groups
}

// remove and persist expect the caller to hold the mutex.
func (s *Store) remove(productID string) {
	if _, ok := s.items[productID]; !ok {
		return
	}
	delete(s.items, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) persist() {
	if s.save == nil {
		return
	}

	snap := Snapshot{Version: SchemaVersion, Key: s.key}
	for _, id := range s.order {
		snap.Items = append(snap.Items, *s.items[id])
	}
	s.save(snap)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
