package shop

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sugbuph/market/api/web"
	"github.com/sugbuph/market/api/weberr"
	"github.com/sugbuph/market/core/claims"
	"github.com/sugbuph/market/validate"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		shops, err := List(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, shops, http.StatusOK)
	}
}

// HandleShow resolves a shop by id or, failing the uuid check, by slug,
// so storefront URLs can stay human-readable.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		key := web.Param(r, "id")

		var (
			s   Shop
			err error
		)
		if validate.CheckID(key) == nil {
			s, err = Fetch(ctx, db, key)
		} else {
			s, err = FetchBySlug(ctx, db, key)
		}
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

func HandleShowOwn(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		s, err := FetchByOwner(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var sn ShopNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(sn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		// One shop per seller.
		if _, err := FetchByOwner(ctx, db, clm.UserID); err == nil {
			err := errors.New("user already owns a shop")
			return weberr.NewError(err, err.Error(), http.StatusConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		s := Shop{
			ID:           validate.GenerateID(),
			OwnerID:      clm.UserID,
			Name:         sn.Name,
			Slug:         sn.Slug,
			Description:  sn.Description,
			LogoURL:      sn.LogoURL,
			BannerURL:    sn.BannerURL,
			ContactEmail: sn.ContactEmail,
			ContactPhone: sn.ContactPhone,
			Address:      sn.Address,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
			Version:      1,
		}

		if err := Create(ctx, db, s); err != nil {
			return err
		}

		return web.Respond(ctx, w, s, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		shopID := web.Param(r, "id")
		if err := validate.CheckID(shopID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var up ShopUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		s, err := Fetch(ctx, db, shopID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.IsUser(ctx, s.OwnerID) {
			return weberr.NotAuthorized(errors.New("user does not own this shop"))
		}

		if up.Name != nil {
			s.Name = *up.Name
		}
		if up.Description != nil {
			s.Description = *up.Description
		}
		if up.LogoURL != nil {
			s.LogoURL = *up.LogoURL
		}
		if up.BannerURL != nil {
			s.BannerURL = *up.BannerURL
		}
		if up.ContactEmail != nil {
			s.ContactEmail = *up.ContactEmail
		}
		if up.ContactPhone != nil {
			s.ContactPhone = *up.ContactPhone
		}
		if up.Address != nil {
			s.Address = *up.Address
		}
		if up.Active != nil {
			s.Active = *up.Active
		}
		s.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, s); err != nil {
			return err
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}
