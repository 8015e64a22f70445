package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sugbuph/market/core/cart"
)

type fakePlacer struct {
	failShop string
	calls    []PlaceInput
}

func (f *fakePlacer) Place(ctx context.Context, in PlaceInput) (PlacedOrder, error) {
	f.calls = append(f.calls, in)

	if in.ShopID == f.failShop {
		return PlacedOrder{}, errors.New("backend rejected the order")
	}

	var subtotal int
	for _, it := range in.Items {
		subtotal += it.UnitPrice * it.Quantity
	}

	return PlacedOrder{
		ID:          "ord-" + in.ShopID,
		Number:      "SB-" + in.ShopID,
		ShopID:      in.ShopID,
		Subtotal:    subtotal,
		ShippingFee: in.ShippingFee,
		Total:       subtotal + in.ShippingFee,
	}, nil
}

type stuckPlacer struct{}

func (stuckPlacer) Place(ctx context.Context, in PlaceInput) (PlacedOrder, error) {
	<-ctx.Done()
	return PlacedOrder{}, ctx.Err()
}

func testLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func seedCart(t *testing.T, shops ...string) *cart.Store {
	t.Helper()

	s := cart.NewStore("test", nil)
	for i, shop := range shops {
		err := s.AddItem(cart.Line{
			ProductID: fmt.Sprintf("p%d", i),
			Name:      "Product " + shop,
			UnitPrice: 100 * (i + 1),
			ShopID:    shop,
			ShopName:  "Shop " + shop,
			Stock:     10,
		})
		if err != nil {
			t.Fatalf("seeding cart: %v", err)
		}
	}
	return s
}

func form() Form {
	return Form{ShippingAddress: "123 Osmena Blvd, Cebu City", ContactPhone: "+63 900 000 0000"}
}

func TestRunRefusesEmptyCart(t *testing.T) {
	orch := NewOrchestrator(&fakePlacer{}, 0, testLog())
	s := cart.NewStore("test", nil)

	res, err := orch.Run(context.Background(), s, "buyer-1", form())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if res.State != Idle {
		t.Fatalf("expected state Idle, got %s", res.State)
	}
}

func TestRunRefusesMissingBuyer(t *testing.T) {
	orch := NewOrchestrator(&fakePlacer{}, 0, testLog())
	s := seedCart(t, "a")

	if _, err := orch.Run(context.Background(), s, "", form()); !errors.Is(err, ErrNoBuyer) {
		t.Fatalf("expected ErrNoBuyer, got %v", err)
	}
}

func TestRunRefusesBlankAddress(t *testing.T) {
	orch := NewOrchestrator(&fakePlacer{}, 0, testLog())
	s := seedCart(t, "a")

	f := form()
	f.ShippingAddress = "   "
	if _, err := orch.Run(context.Background(), s, "buyer-1", f); !errors.Is(err, ErrShippingAddress) {
		t.Fatalf("expected ErrShippingAddress, got %v", err)
	}

	if len(s.Items()) != 1 {
		t.Fatal("a refused run must not touch the cart")
	}
}

func TestRunRefusesUnpurchasableLine(t *testing.T) {
	orch := NewOrchestrator(&fakePlacer{}, 0, testLog())

	s := cart.NewStore("test", nil)
	gone := cart.Line{ProductID: "sold-out", Name: "Sold Out", UnitPrice: 100, ShopID: "a", ShopName: "Shop a", Stock: 0}
	// Two adds on zero stock clamp the quantity to zero.
	s.AddItem(gone)
	s.AddItem(gone)

	if _, err := orch.Run(context.Background(), s, "buyer-1", form()); !errors.Is(err, ErrZeroQuantity) {
		t.Fatalf("expected ErrZeroQuantity, got %v", err)
	}
}

func TestRunFullSuccess(t *testing.T) {
	placer := &fakePlacer{}
	orch := NewOrchestrator(placer, 0, testLog())
	s := seedCart(t, "a", "b", "c")

	res, err := orch.Run(context.Background(), s, "buyer-1", form())
	if err != nil {
		t.Fatalf("running checkout: %v", err)
	}

	if res.State != Completed {
		t.Fatalf("expected state Completed, got %s", res.State)
	}
	if res.LastOrderID != "ord-c" {
		t.Fatalf("expected last order id ord-c, got %s", res.LastOrderID)
	}
	if len(s.Items()) != 0 {
		t.Fatalf("expected empty cart, %d lines remain", len(s.Items()))
	}

	shops := make([]string, 0, len(placer.calls))
	for _, c := range placer.calls {
		shops = append(shops, c.ShopID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, shops); diff != "" {
		t.Fatalf("groups submitted out of order: %s", diff)
	}

	// Every group carries the shared shipping details and its own
	// idempotency key.
	keys := make(map[string]bool)
	for _, c := range placer.calls {
		if c.ShippingAddress != form().ShippingAddress {
			t.Fatalf("shop %s missing the shared address", c.ShopID)
		}
		if c.IdempotencyKey == "" || keys[c.IdempotencyKey] {
			t.Fatalf("shop %s has a missing or reused idempotency key", c.ShopID)
		}
		keys[c.IdempotencyKey] = true
	}
}

func TestRunPartialFailure(t *testing.T) {
	placer := &fakePlacer{failShop: "b"}
	orch := NewOrchestrator(placer, 0, testLog())
	s := seedCart(t, "a", "b", "c")

	res, err := orch.Run(context.Background(), s, "buyer-1", form())

	var perr *PlacementError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a PlacementError, got %v", err)
	}
	if perr.ShopID != "b" {
		t.Fatalf("expected shop b to be the failure, got %s", perr.ShopID)
	}
	if res.State != PartiallyFailed {
		t.Fatalf("expected state PartiallyFailed, got %s", res.State)
	}

	// Shop a was placed and cleared; b and c stay for a clean retry.
	shops := make(map[string]bool)
	for _, l := range s.Items() {
		shops[l.ShopID] = true
	}
	if shops["a"] || !shops["b"] || !shops["c"] {
		t.Fatalf("expected only shops b and c left in cart, got %v", shops)
	}

	// Shop c was never submitted.
	if len(placer.calls) != 2 {
		t.Fatalf("expected processing to stop at the failure, got %d calls", len(placer.calls))
	}

	if len(res.Orders) != 1 || res.Orders[0].ID != "ord-a" {
		t.Fatalf("expected exactly the shop a order to be reported, got %+v", res.Orders)
	}
}

func TestRunTimeoutFailsGroup(t *testing.T) {
	orch := NewOrchestrator(stuckPlacer{}, 10*time.Millisecond, testLog())
	s := seedCart(t, "a")

	res, err := orch.Run(context.Background(), s, "buyer-1", form())

	var perr *PlacementError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a PlacementError on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the deadline to surface through the wrap, got %v", err)
	}
	if res.State != PartiallyFailed {
		t.Fatalf("expected state PartiallyFailed, got %s", res.State)
	}
	if len(s.Items()) != 1 {
		t.Fatal("a timed-out group must stay in the cart")
	}
}

func TestRunLockedOutWhileInFlight(t *testing.T) {
	orch := NewOrchestrator(&fakePlacer{}, 0, testLog())
	s := seedCart(t, "a")

	if err := s.Begin(); err != nil {
		t.Fatalf("beginning checkout: %v", err)
	}
	defer s.End()

	if _, err := orch.Run(context.Background(), s, "buyer-1", form()); !errors.Is(err, cart.ErrCheckoutInFlight) {
		t.Fatalf("expected ErrCheckoutInFlight, got %v", err)
	}
}

func TestRunReleasesLock(t *testing.T) {
	orch := NewOrchestrator(&fakePlacer{failShop: "a"}, 0, testLog())
	s := seedCart(t, "a")

	if _, err := orch.Run(context.Background(), s, "buyer-1", form()); err == nil {
		t.Fatal("expected the run to fail")
	}

	if err := s.UpdateQuantity("p0", 2); err != nil {
		t.Fatalf("expected cart to unlock after the run, got %v", err)
	}
}
