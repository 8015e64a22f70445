package test

import (
	"net/http"
	"testing"
)

func TestCartAPI(t *testing.T) {
	env, err := NewTestEnv(t)
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	sh, ps := env.SeedShop(t, "Sweets", "sweets",
		seedProduct{Name: "Dried Mangoes", Price: 100, Stock: 5},
		seedProduct{Name: "Otap", Price: 30, Stock: 10},
	)
	mango, otap := ps[0], ps[1]

	// Shopping happens on an anonymous device.
	env.ResetSession(t)

	env.AddToCart(t, sh, mango)
	v := env.AddToCart(t, sh, mango)
	if v.ItemCount != 2 || v.Total != 200 {
		t.Fatalf("after two adds: count %d total %d", v.ItemCount, v.Total)
	}
	if len(v.Items) != 1 {
		t.Fatalf("duplicate adds must merge into one line, got %d", len(v.Items))
	}

	// Requesting more than the stock snapshot clamps.
	env.request(t, http.MethodPut, "/cart/items/"+mango.ID,
		map[string]int{"quantity": 99}, http.StatusOK, &v)
	if v.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity clamped to 5, got %d", v.Items[0].Quantity)
	}

	v = env.AddToCart(t, sh, otap)
	if len(v.Groups) != 1 {
		t.Fatalf("same-shop lines must share a group, got %d groups", len(v.Groups))
	}
	if v.Total != 5*100+30 {
		t.Fatalf("expected total %d, got %d", 5*100+30, v.Total)
	}

	env.request(t, http.MethodDelete, "/cart/items/"+mango.ID, nil, http.StatusOK, &v)
	if len(v.Items) != 1 || v.Items[0].ProductID != otap.ID {
		t.Fatalf("expected only %s left, got %+v", otap.Name, v.Items)
	}

	env.request(t, http.MethodDelete, "/cart", nil, http.StatusNoContent, nil)
	env.request(t, http.MethodGet, "/cart", nil, http.StatusOK, &v)
	if v.ItemCount != 0 || len(v.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", v)
	}
}

func TestCartSurvivesSignOut(t *testing.T) {
	env, err := NewTestEnv(t)
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	sh, ps := env.SeedShop(t, "Crafts", "crafts",
		seedProduct{Name: "Woven Basket", Price: 250, Stock: 3},
	)

	env.ResetSession(t)
	env.request(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "buyer@cart.test",
		"password": "buyerpass1",
		"fullName": "Cart Buyer",
		"role":     "buyer",
	}, http.StatusCreated, nil)

	env.AddToCart(t, sh, ps[0])

	// The cart belongs to the device, not the account.
	env.request(t, http.MethodPost, "/auth/logout", nil, http.StatusNoContent, nil)

	var v cartView
	env.request(t, http.MethodGet, "/cart", nil, http.StatusOK, &v)
	if v.ItemCount != 1 {
		t.Fatalf("expected cart to survive sign-out, got %+v", v)
	}
}

func TestCartRehydratesFromStorage(t *testing.T) {
	env, err := NewTestEnv(t)
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	sh, ps := env.SeedShop(t, "Lechon House", "lechon",
		seedProduct{Name: "Lechon Belly", Price: 500, Stock: 4},
	)

	env.ResetSession(t)
	for i := 0; i < 2; i++ {
		env.AddToCart(t, sh, ps[0])
	}

	// A restart loses the in-memory stores; the next read must come
	// from the durable snapshot.
	env.Restart(t)

	var v cartView
	env.request(t, http.MethodGet, "/cart", nil, http.StatusOK, &v)
	if v.ItemCount != 2 || v.Total != 1000 {
		t.Fatalf("expected rehydrated cart with 2 units, got %+v", v)
	}
}
