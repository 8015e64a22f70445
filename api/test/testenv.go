package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	"github.com/sugbuph/market/api"
	"github.com/sugbuph/market/api/background"
	"github.com/sugbuph/market/config"
	"github.com/sugbuph/market/core/cart"
	"github.com/sugbuph/market/core/checkout"
	"github.com/sugbuph/market/core/order"
	"github.com/sugbuph/market/core/product"
	"github.com/sugbuph/market/core/shop"
	"github.com/sugbuph/market/database"
	"github.com/sugbuph/market/rate"

	_ "github.com/lib/pq"
)

// TestEnv runs the real server against throwaway Postgres and Redis
// containers.
type TestEnv struct {
	DB     *sqlx.DB
	URL    string
	Server *httptest.Server

	client  *http.Client
	log     *logrus.Logger
	session *scs.SessionManager
	rdb     *redis.Client
	bg      *background.Background
}

func NewTestEnv(t *testing.T) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	pg, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=market",
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() { pool.Purge(pg) })

	rd, err := pool.Run("redis", "7-alpine", nil)
	if err != nil {
		return nil, fmt.Errorf("starting redis container: %w", err)
	}
	t.Cleanup(func() { pool.Purge(rd) })

	var db *sqlx.DB
	err = pool.Retry(func() error {
		db, err = database.Open(config.DB{
			User:       "postgres",
			Password:   "postgres",
			Host:       "localhost:" + pg.GetPort("5432/tcp"),
			Name:       "market",
			DisableTLS: true,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:" + rd.GetPort("6379/tcp")})
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	session := scs.New()
	session.Lifetime = 24 * time.Hour

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	e := &TestEnv{
		DB:      db,
		client:  &http.Client{Jar: jar},
		log:     logger,
		session: session,
		rdb:     rdb,
	}

	e.Server = httptest.NewServer(e.mux())
	e.URL = e.Server.URL
	t.Cleanup(func() { e.Server.Close() })

	return e, nil
}

// mux assembles a fresh server stack over the env's shared database,
// Redis and session store.
func (e *TestEnv) mux() http.Handler {
	e.bg = background.New(e.log)
	carts := cart.NewManager(cart.NewRedisPersister(e.rdb, time.Hour), e.bg, e.log)
	orch := checkout.NewOrchestrator(order.NewPlacer(e.DB), 5*time.Second, e.log)

	return api.APIMux(api.APIConfig{
		Log:      e.log,
		DB:       e.DB,
		Session:  e.session,
		Carts:    carts,
		Checkout: orch,
		Limiter:  rate.NewLimiter(1000, 10, 1000),
	})
}

// Restart swaps in a fresh server sharing the same backing stores,
// simulating a process restart. Pending cart writes are drained first.
func (e *TestEnv) Restart(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.bg.Shutdown(ctx); err != nil {
		t.Fatalf("draining background tasks: %v", err)
	}

	e.Server.Close()
	e.Server = httptest.NewServer(e.mux())
	e.URL = e.Server.URL
}

func (e *TestEnv) Client() *http.Client {
	return e.client
}

// ResetSession swaps the cookie jar, simulating a different device.
func (e *TestEnv) ResetSession(t *testing.T) {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("building cookie jar: %v", err)
	}
	e.client.Jar = jar
}

// request issues a JSON request and decodes the response into out when
// out is non-nil, failing the test on an unexpected status code.
func (e *TestEnv) request(t *testing.T, method, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := e.client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if w.StatusCode != wantStatus {
		b, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: status %s, body %s", method, path, w.Status, b)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
}

type seedProduct struct {
	Name  string
	Price int
	Stock int
}

// SeedShop signs up a fresh seller, creates a shop with its products and
// leaves the seller logged in. Call ResetSession afterwards to act as a
// different device.
func (e *TestEnv) SeedShop(t *testing.T, name, slug string, products ...seedProduct) (shop.Shop, []product.Product) {
	t.Helper()

	e.request(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":    slug + "@seller.test",
		"password": "sellerpass1",
		"fullName": name + " Owner",
		"role":     "seller",
	}, http.StatusCreated, nil)

	var sh shop.Shop
	e.request(t, http.MethodPost, "/shops", map[string]string{
		"name": name,
		"slug": slug,
	}, http.StatusCreated, &sh)

	var out []product.Product
	for _, sp := range products {
		var p product.Product
		e.request(t, http.MethodPost, "/products", map[string]interface{}{
			"shopId": sh.ID,
			"name":   sp.Name,
			"price":  sp.Price,
			"stock":  sp.Stock,
		}, http.StatusCreated, &p)
		out = append(out, p)
	}

	return sh, out
}

// AddToCart puts one unit of the product in the current device's cart,
// the way the storefront does it: a snapshot of the listing.
func (e *TestEnv) AddToCart(t *testing.T, sh shop.Shop, p product.Product) cartView {
	t.Helper()

	var v cartView
	e.request(t, http.MethodPut, "/cart/items", map[string]interface{}{
		"productId": p.ID,
		"name":      p.Name,
		"unitPrice": p.Price,
		"shopId":    sh.ID,
		"shopName":  sh.Name,
		"stock":     p.Stock,
	}, http.StatusOK, &v)
	return v
}

// cartView mirrors the cart endpoints' response shape.
type cartView struct {
	Items     []cart.Line      `json:"items"`
	ItemCount int              `json:"itemCount"`
	Total     int              `json:"total"`
	Groups    []cart.ShopGroup `json:"groups"`
}
