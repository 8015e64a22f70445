package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sugbuph/market/api/middleware"
	"github.com/sugbuph/market/api/web"
	"github.com/sugbuph/market/core/auth"
	"github.com/sugbuph/market/core/cart"
	"github.com/sugbuph/market/core/category"
	"github.com/sugbuph/market/core/checkout"
	"github.com/sugbuph/market/core/order"
	"github.com/sugbuph/market/core/product"
	"github.com/sugbuph/market/core/shop"
	"github.com/sugbuph/market/core/user"
	"github.com/sugbuph/market/rate"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Session    *scs.SessionManager
	Carts      *cart.Manager
	Checkout   *checkout.Orchestrator
	Limiter    *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	seller := auth.Seller(cfg.Session)
	limited := middleware.RateLimit(cfg.Limiter)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodPut, "/users/current", user.HandleUpdateCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/categories", category.HandleList(cfg.DB))

	a.Handle(http.MethodGet, "/shops/owned", shop.HandleShowOwn(cfg.DB), authen, seller)
	a.Handle(http.MethodGet, "/shops/{shop_id}/orders", order.HandleListByShop(cfg.DB), authen, seller)
	a.Handle(http.MethodGet, "/shops/{id}", shop.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/shops", shop.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/shops", shop.HandleCreate(cfg.DB), authen, seller)
	a.Handle(http.MethodPut, "/shops/{id}", shop.HandleUpdate(cfg.DB), authen, seller)

	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), authen, seller)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), authen, seller)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts, cfg.Session))
	a.Handle(http.MethodDelete, "/cart", cart.HandleClear(cfg.Carts, cfg.Session))
	a.Handle(http.MethodPut, "/cart/items/{product_id}", cart.HandleUpdateItem(cfg.Carts, cfg.Session))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleAddItem(cfg.Carts, cfg.Session))
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleRemoveItem(cfg.Carts, cfg.Session))

	a.Handle(http.MethodPost, "/checkout", checkout.HandleCheckout(cfg.Carts, cfg.Session, cfg.Checkout), authen, limited)

	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleListOwn(cfg.DB), authen)
	a.Handle(http.MethodPut, "/orders/{id}/status", order.HandleUpdateStatus(cfg.DB), authen, seller)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
