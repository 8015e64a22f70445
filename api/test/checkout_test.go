package test

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sugbuph/market/core/checkout"
	"github.com/sugbuph/market/core/order"
	"github.com/sugbuph/market/core/product"
)

func signupBuyer(t *testing.T, env *TestEnv, email string) {
	t.Helper()

	env.request(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": "buyerpass1",
		"fullName": "Test Buyer",
		"role":     "buyer",
	}, http.StatusCreated, nil)
}

func TestCheckoutRequiresAuth(t *testing.T) {
	env, err := NewTestEnv(t)
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	sh, ps := env.SeedShop(t, "Sweets", "sweets",
		seedProduct{Name: "Dried Mangoes", Price: 100, Stock: 5},
	)

	env.ResetSession(t)
	env.AddToCart(t, sh, ps[0])

	env.request(t, http.MethodPost, "/checkout", map[string]string{
		"shippingAddress": "123 Osmena Blvd, Cebu City",
	}, http.StatusUnauthorized, nil)
}

func TestCheckoutMultiShop(t *testing.T) {
	env, err := NewTestEnv(t)
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	sweets, sweetsPs := env.SeedShop(t, "Sweets", "sweets",
		seedProduct{Name: "Dried Mangoes", Price: 100, Stock: 5},
	)
	env.ResetSession(t)
	crafts, craftsPs := env.SeedShop(t, "Crafts", "crafts",
		seedProduct{Name: "Woven Basket", Price: 250, Stock: 3},
	)
	mango, basket := sweetsPs[0], craftsPs[0]

	env.ResetSession(t)
	signupBuyer(t, env, "buyer@checkout.test")

	env.AddToCart(t, sweets, mango)
	env.AddToCart(t, sweets, mango)
	env.AddToCart(t, crafts, basket)

	var res checkout.Result
	env.request(t, http.MethodPost, "/checkout", map[string]interface{}{
		"shippingAddress": "123 Osmena Blvd, Cebu City",
		"contactPhone":    "+63 900 000 0000",
		"shippingFee":     50,
	}, http.StatusOK, &res)

	if res.State != checkout.Completed {
		t.Fatalf("expected state completed, got %s", res.State)
	}
	if len(res.Orders) != 2 {
		t.Fatalf("expected one order per shop, got %d", len(res.Orders))
	}

	shops := []string{res.Orders[0].ShopID, res.Orders[1].ShopID}
	if diff := cmp.Diff([]string{sweets.ID, crafts.ID}, shops); diff != "" {
		t.Fatalf("orders out of cart order: %s", diff)
	}
	if res.Orders[0].Total != 2*100+50 || res.Orders[1].Total != 250+50 {
		t.Fatalf("unexpected order totals: %+v", res.Orders)
	}
	if res.LastOrderID != res.Orders[1].ID {
		t.Fatalf("expected last order id %s, got %s", res.Orders[1].ID, res.LastOrderID)
	}

	// A completed checkout empties the cart.
	var v cartView
	env.request(t, http.MethodGet, "/cart", nil, http.StatusOK, &v)
	if v.ItemCount != 0 {
		t.Fatalf("expected empty cart after checkout, got %+v", v)
	}

	// Placement decremented the real stock.
	var p product.Product
	env.request(t, http.MethodGet, "/products/"+mango.ID, nil, http.StatusOK, &p)
	if p.Stock != 3 {
		t.Fatalf("expected mango stock 3 after checkout, got %d", p.Stock)
	}

	var orders []order.Order
	env.request(t, http.MethodGet, "/orders", nil, http.StatusOK, &orders)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders in history, got %d", len(orders))
	}
}

func TestCheckoutPartialFailure(t *testing.T) {
	env, err := NewTestEnv(t)
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	sweets, sweetsPs := env.SeedShop(t, "Sweets", "sweets",
		seedProduct{Name: "Dried Mangoes", Price: 100, Stock: 5},
	)
	env.ResetSession(t)
	crafts, craftsPs := env.SeedShop(t, "Crafts", "crafts",
		seedProduct{Name: "Woven Basket", Price: 250, Stock: 3},
	)
	mango, basket := sweetsPs[0], craftsPs[0]

	env.ResetSession(t)
	signupBuyer(t, env, "buyer@partial.test")

	env.AddToCart(t, sweets, mango)
	env.AddToCart(t, crafts, basket)

	// The basket sells out between add-to-cart and checkout; the cart's
	// stock snapshot is now stale.
	if _, err := env.DB.Exec("UPDATE products SET stock = 0 WHERE product_id = $1", basket.ID); err != nil {
		t.Fatalf("draining basket stock: %v", err)
	}

	var fail struct {
		Error        string                 `json:"error"`
		State        checkout.State         `json:"state"`
		FailedShopID string                 `json:"failedShopId"`
		Orders       []checkout.PlacedOrder `json:"orders"`
	}
	env.request(t, http.MethodPost, "/checkout", map[string]string{
		"shippingAddress": "123 Osmena Blvd, Cebu City",
	}, http.StatusBadGateway, &fail)

	if fail.State != checkout.PartiallyFailed {
		t.Fatalf("expected state partially_failed, got %s", fail.State)
	}
	if fail.FailedShopID != crafts.ID {
		t.Fatalf("expected shop %s to fail, got %s", crafts.ID, fail.FailedShopID)
	}
	if len(fail.Orders) != 1 || fail.Orders[0].ShopID != sweets.ID {
		t.Fatalf("expected exactly the sweets order placed, got %+v", fail.Orders)
	}

	// The confirmed shop's lines are gone; the failed one's remain for a
	// retry.
	var v cartView
	env.request(t, http.MethodGet, "/cart", nil, http.StatusOK, &v)
	if len(v.Items) != 1 || v.Items[0].ProductID != basket.ID {
		t.Fatalf("expected only the basket left in the cart, got %+v", v.Items)
	}

	// The shop recovers stock and the retry completes with just the
	// remaining group.
	if _, err := env.DB.Exec("UPDATE products SET stock = 3 WHERE product_id = $1", basket.ID); err != nil {
		t.Fatalf("restoring basket stock: %v", err)
	}

	var res checkout.Result
	env.request(t, http.MethodPost, "/checkout", map[string]string{
		"shippingAddress": "123 Osmena Blvd, Cebu City",
	}, http.StatusOK, &res)

	if res.State != checkout.Completed || len(res.Orders) != 1 {
		t.Fatalf("expected the retry to place one order, got %+v", res)
	}
	if res.Orders[0].ShopID != crafts.ID {
		t.Fatalf("expected the retry to cover crafts, got %+v", res.Orders)
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	env, err := NewTestEnv(t)
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	signupBuyer(t, env, "buyer@empty.test")

	env.request(t, http.MethodPost, "/checkout", map[string]string{
		"shippingAddress": "123 Osmena Blvd, Cebu City",
	}, http.StatusUnprocessableEntity, nil)
}
