package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/sugbuph/market/api/web"
	"github.com/sugbuph/market/api/weberr"
	"github.com/sugbuph/market/validate"
)

const deviceKey = "device_id"

// DeviceKey returns the durable cart key for this request's device,
// minting one on first contact. Carts are keyed by device, not by the
// signed-in buyer: signing out or switching accounts on one device keeps
// the same cart, mirroring the storefront's historical behavior.
func DeviceKey(ctx context.Context, session *scs.SessionManager) string {
	if id, ok := session.Get(ctx, deviceKey).(string); ok && id != "" {
		return id
	}

	id := validate.GenerateID()
	session.Put(ctx, deviceKey, id)
	return id
}

// LineNew is the add-to-cart payload: the product snapshot minus the
// quantity, which always starts at 1.
type LineNew struct {
	ProductID string `json:"productId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int    `json:"unitPrice" validate:"gte=0"`
	ImageURL  string `json:"imageUrl"`
	ShopID    string `json:"shopId" validate:"required"`
	ShopName  string `json:"shopName" validate:"required"`
	Stock     int    `json:"stock" validate:"gte=0"`
}

type QuantityUp struct {
	Quantity int `json:"quantity"`
}

type view struct {
	Items     []Line      `json:"items"`
	ItemCount int         `json:"itemCount"`
	Total     int         `json:"total"`
	Groups    []ShopGroup `json:"groups"`
}

func respond(ctx context.Context, w http.ResponseWriter, s *Store) error {
	v := view{
		Items:     s.Items(),
		ItemCount: s.ItemCount(),
		Total:     s.Total(),
		Groups:    s.GroupByShop(),
	}
	return web.Respond(ctx, w, v, http.StatusOK)
}

func locked(err error) error {
	if errors.Is(err, ErrCheckoutInFlight) {
		return weberr.NewError(err, "a checkout is in progress, the cart cannot be changed", http.StatusConflict)
	}
	return err
}

func HandleShow(carts *Manager, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s := carts.Get(ctx, DeviceKey(ctx, session))
		return respond(ctx, w, s)
	}
}

func HandleAddItem(carts *Manager, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ln LineNew
		if err := web.Decode(w, r, &ln); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(ln); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		s := carts.Get(ctx, DeviceKey(ctx, session))
		if err := s.AddItem(Line{
			ProductID: ln.ProductID,
			Name:      ln.Name,
			UnitPrice: ln.UnitPrice,
			ImageURL:  ln.ImageURL,
			ShopID:    ln.ShopID,
			ShopName:  ln.ShopName,
			Stock:     ln.Stock,
		}); err != nil {
			return locked(err)
		}

		return respond(ctx, w, s)
	}
}

func HandleUpdateItem(carts *Manager, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")

		var up QuantityUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		s := carts.Get(ctx, DeviceKey(ctx, session))
		if err := s.UpdateQuantity(productID, up.Quantity); err != nil {
			return locked(err)
		}

		return respond(ctx, w, s)
	}
}

func HandleRemoveItem(carts *Manager, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")

		s := carts.Get(ctx, DeviceKey(ctx, session))
		if err := s.RemoveItem(productID); err != nil {
			return locked(err)
		}

		return respond(ctx, w, s)
	}
}

func HandleClear(carts *Manager, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s := carts.Get(ctx, DeviceKey(ctx, session))
		if err := s.Clear(); err != nil {
			return locked(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
