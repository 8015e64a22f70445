package product

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

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := Filter{
			ShopID:     r.URL.Query().Get("shop"),
			CategoryID: r.URL.Query().Get("category"),
			ActiveOnly: true,
		}

		products, err := List(ctx, db, f)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, products, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		p, err := Fetch(ctx, db, productID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(pn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := ownShop(ctx, db, pn.ShopID); err != nil {
			return err
		}

		active := true
		if pn.Active != nil {
			active = *pn.Active
		}

		now := time.Now().UTC()
		p := Product{
			ID:             validate.GenerateID(),
			ShopID:         pn.ShopID,
			CategoryID:     pn.CategoryID,
			Name:           pn.Name,
			Description:    pn.Description,
			Price:          pn.Price,
			CompareAtPrice: pn.CompareAtPrice,
			Stock:          pn.Stock,
			ImageURLs:      pn.ImageURLs,
			Active:         active,
			CreatedAt:      now,
			UpdatedAt:      now,
			Version:        1,
		}

		if err := Create(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var up ProductUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		p, err := Fetch(ctx, db, productID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := ownShop(ctx, db, p.ShopID); err != nil {
			return err
		}

		if up.CategoryID != nil {
			p.CategoryID = up.CategoryID
		}
		if up.Name != nil {
			p.Name = *up.Name
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.Price != nil {
			p.Price = *up.Price
		}
		if up.CompareAtPrice != nil {
			p.CompareAtPrice = up.CompareAtPrice
		}
		if up.Stock != nil {
			p.Stock = *up.Stock
		}
		if up.ImageURLs != nil {
			p.ImageURLs = up.ImageURLs
		}
		if up.Active != nil {
			p.Active = *up.Active
		}
		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
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
