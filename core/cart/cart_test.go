package cart

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lineX() Line {
	return Line{ProductID: "x", Name: "Dried Mangoes", UnitPrice: 100, ShopID: "s1", ShopName: "Sweets", Stock: 5}
}

func lineY() Line {
	return Line{ProductID: "y", Name: "Woven Basket", UnitPrice: 50, ShopID: "s2", ShopName: "Crafts", Stock: 1}
}

func TestAddItemKeepsProductsUnique(t *testing.T) {
	s := NewStore("test", nil)

	for i := 0; i < 3; i++ {
		if err := s.AddItem(lineX()); err != nil {
			t.Fatalf("adding item: %v", err)
		}
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", items[0].Quantity)
	}
}

func TestAddItemIncrementsByOne(t *testing.T) {
	s := NewStore("test", nil)

	s.AddItem(lineX())
	if got := s.Items()[0].Quantity; got != 1 {
		t.Fatalf("after first add: expected quantity 1, got %d", got)
	}

	s.AddItem(lineX())
	if got := s.Items()[0].Quantity; got != 2 {
		t.Fatalf("after second add: expected quantity 2, got %d", got)
	}
}

func TestAddItemClampsToStock(t *testing.T) {
	s := NewStore("test", nil)

	z := Line{ProductID: "z", Name: "Puso Hangers", UnitPrice: 10, ShopID: "s1", ShopName: "Sweets", Stock: 5}
	for i := 0; i < 6; i++ {
		s.AddItem(z)
	}

	if got := s.Items()[0].Quantity; got != 5 {
		t.Fatalf("expected quantity clamped to 5, got %d", got)
	}
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		want     int
		removed  bool
	}{
		{"clamps to stock", 9, 5, false},
		{"sets within stock", 3, 3, false},
		{"zero removes", 0, 0, true},
		{"negative removes", -5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore("test", nil)
			s.AddItem(lineX())

			if err := s.UpdateQuantity("x", tt.quantity); err != nil {
				t.Fatalf("updating quantity: %v", err)
			}

			items := s.Items()
			if tt.removed {
				if len(items) != 0 {
					t.Fatalf("expected line removed, still have %d lines", len(items))
				}
				return
			}

			if items[0].Quantity != tt.want {
				t.Fatalf("expected quantity %d, got %d", tt.want, items[0].Quantity)
			}
		})
	}
}

func TestUpdateQuantityUnknownProduct(t *testing.T) {
	s := NewStore("test", nil)
	s.AddItem(lineX())

	if err := s.UpdateQuantity("ghost", 3); err != nil {
		t.Fatalf("updating unknown product: %v", err)
	}

	if len(s.Items()) != 1 {
		t.Fatal("unknown product update must not touch other lines")
	}
}

func TestRemoveItem(t *testing.T) {
	s := NewStore("test", nil)
	s.AddItem(lineX())

	s.RemoveItem("ghost")
	if len(s.Items()) != 1 {
		t.Fatal("removing an absent product must be a no-op")
	}

	s.RemoveItem("x")
	if len(s.Items()) != 0 {
		t.Fatal("expected empty cart after removal")
	}
}

func TestClear(t *testing.T) {
	s := NewStore("test", nil)
	s.AddItem(lineX())
	s.AddItem(lineY())

	s.Clear()

	if len(s.Items()) != 0 || s.ItemCount() != 0 || s.Total() != 0 {
		t.Fatal("expected empty cart after clear")
	}
}

func TestClearShopItems(t *testing.T) {
	s := NewStore("test", nil)
	s.AddItem(lineX())
	s.AddItem(lineY())

	s.ClearShopItems("s1")

	items := s.Items()
	if len(items) != 1 || items[0].ShopID != "s2" {
		t.Fatalf("expected only shop s2 lines to survive, got %+v", items)
	}
}

func TestSelectors(t *testing.T) {
	s := NewStore("test", nil)

	// Product X: shop s1, price 100, quantity 2, stock 5.
	s.AddItem(lineX())
	s.AddItem(lineX())
	// Product Y: shop s2, price 50, quantity 1, stock 1.
	s.AddItem(lineY())

	if got := s.ItemCount(); got != 3 {
		t.Fatalf("expected item count 3, got %d", got)
	}
	if got := s.Total(); got != 250 {
		t.Fatalf("expected total 250, got %d", got)
	}

	groups := s.GroupByShop()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	subtotals := []int{groups[0].Subtotal, groups[1].Subtotal}
	if diff := cmp.Diff([]int{200, 50}, subtotals); diff != "" {
		t.Fatalf("unexpected subtotals: %s", diff)
	}
}

func TestGroupByShopPartitions(t *testing.T) {
	s := NewStore("test", nil)
	s.AddItem(lineX())
	s.AddItem(lineY())
	s.AddItem(Line{ProductID: "w", Name: "Otap", UnitPrice: 30, ShopID: "s1", ShopName: "Sweets", Stock: 10})

	groups := s.GroupByShop()

	// Groups follow the insertion order of each shop's first line.
	order := []string{groups[0].ShopID, groups[1].ShopID}
	if diff := cmp.Diff([]string{"s1", "s2"}, order); diff != "" {
		t.Fatalf("unexpected group order: %s", diff)
	}

	var lines, subtotal int
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, l := range g.Items {
			if seen[l.ProductID] {
				t.Fatalf("product %s appears in two groups", l.ProductID)
			}
			seen[l.ProductID] = true
			lines++
		}
		subtotal += g.Subtotal
	}

	if lines != len(s.Items()) {
		t.Fatalf("grouping dropped lines: %d grouped, %d in cart", lines, len(s.Items()))
	}
	if subtotal != s.Total() {
		t.Fatalf("group subtotals sum to %d, cart total is %d", subtotal, s.Total())
	}
}

func TestCheckoutLock(t *testing.T) {
	s := NewStore("test", nil)
	s.AddItem(lineX())

	if err := s.Begin(); err != nil {
		t.Fatalf("beginning checkout: %v", err)
	}

	if err := s.Begin(); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected ErrCheckoutInFlight on re-entry, got %v", err)
	}
	if err := s.AddItem(lineY()); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected AddItem to be locked out, got %v", err)
	}
	if err := s.UpdateQuantity("x", 3); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected UpdateQuantity to be locked out, got %v", err)
	}
	if err := s.RemoveItem("x"); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected RemoveItem to be locked out, got %v", err)
	}
	if err := s.Clear(); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected Clear to be locked out, got %v", err)
	}

	// The orchestrator's reconciliation hook stays available.
	s.ClearShopItems("s1")
	if len(s.Items()) != 0 {
		t.Fatal("expected ClearShopItems to work during checkout")
	}

	s.End()
	if err := s.AddItem(lineY()); err != nil {
		t.Fatalf("expected mutations to resume after End, got %v", err)
	}
}

func TestPersistOnEveryMutation(t *testing.T) {
	var snaps []Snapshot
	s := NewStore("device-1", func(snap Snapshot) { snaps = append(snaps, snap) })

	s.AddItem(lineX())
	s.UpdateQuantity("x", 4)
	s.RemoveItem("x")

	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}

	last := snaps[len(snaps)-1]
	if last.Version != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, last.Version)
	}
	if last.Key != "device-1" {
		t.Fatalf("expected snapshot key device-1, got %s", last.Key)
	}
	if len(last.Items) != 0 {
		t.Fatalf("expected final snapshot empty, got %d items", len(last.Items))
	}
}

func TestRestore(t *testing.T) {
	snap := Snapshot{
		Version: SchemaVersion,
		Key:     "device-1",
		Items: []Line{
			{ProductID: "x", UnitPrice: 100, ShopID: "s1", Quantity: 7, Stock: 5},
			{ProductID: "y", UnitPrice: 50, ShopID: "s2", Quantity: 0, Stock: 3},
			{ProductID: "w", UnitPrice: 30, ShopID: "s1", Quantity: 2, Stock: 2},
		},
	}

	s := NewStore("device-1", nil)
	s.restore(snap)

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 restored lines, got %d", len(items))
	}
	if items[0].ProductID != "x" || items[0].Quantity != 5 {
		t.Fatalf("expected x clamped to stock 5, got %+v", items[0])
	}
	if items[1].ProductID != "w" {
		t.Fatalf("expected w restored, got %+v", items[1])
	}
}
