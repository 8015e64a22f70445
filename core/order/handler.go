package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sugbuph/market/api/web"
	"github.com/sugbuph/market/api/weberr"
	"github.com/sugbuph/market/core/claims"
	"github.com/sugbuph/market/core/shop"
	"github.com/sugbuph/market/validate"
)

func HandleListOwn(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orders, err := FetchByBuyer(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		for i := range orders {
			items, err := FetchItems(ctx, db, orders[i].ID)
			if err != nil {
				return err
			}
			orders[i].Items = items
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleListByShop(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		shopID := web.Param(r, "shop_id")
		if err := validate.CheckID(shopID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := ownShop(ctx, db, shopID); err != nil {
			return err
		}

		orders, err := FetchByShop(ctx, db, shopID)
		if err != nil {
			return err
		}

		for i := range orders {
			items, err := FetchItems(ctx, db, orders[i].ID)
			if err != nil {
				return err
			}
			orders[i].Items = items
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		// Visible to the buyer who placed it and to the shop's owner.
		if clm.UserID != ord.BuyerID {
			if err := ownShop(ctx, db, ord.ShopID); err != nil {
				return err
			}
		}

		ord.Items, err = FetchItems(ctx, db, ord.ID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := ownShop(ctx, db, ord.ShopID); err != nil {
			return err
		}

		if err := UpdateStatus(ctx, db, ord.ID, up.Status, time.Now().UTC()); err != nil {
			return err
		}

		ord.Status = up.Status
		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func ownShop(ctx context.Context, db *sqlx.DB, shopID string) error {
	sh, err := shop.Fetch(ctx, db, shopID)
	if err != nil {
		return fmt.Errorf("fetching shop[%s]: %w", shopID, err)
	}

	if !claims.IsUser(ctx, sh.OwnerID) {
		return weberr.NotAuthorized(errors.New("user does not own this shop"))
	}
	return nil
}
