package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sugbuph/market/api/web"
	"github.com/sugbuph/market/api/weberr"
	"github.com/sugbuph/market/core/user"
	"github.com/sugbuph/market/validate"
	"golang.org/x/crypto/bcrypt"
)

type Signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=buyer seller"`
	Phone    string `json:"phone"`
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su Signup
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(su); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := user.FetchByEmail(ctx, db, su.Email); err == nil {
			err := errors.New("email already registered")
			return weberr.NewError(err, err.Error(), http.StatusConflict)
		} else if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		p := user.Profile{
			ID:           validate.GenerateID(),
			Email:        su.Email,
			FullName:     su.FullName,
			Role:         su.Role,
			Phone:        su.Phone,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, p); err != nil {
			return err
		}

		if err := signin(ctx, session, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var lg Login
		if err := web.Decode(w, r, &lg); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(lg); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		p, err := user.FetchByEmail(ctx, db, lg.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("wrong credentials"))
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(lg.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong credentials"))
		}

		if err := signin(ctx, session, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

// HandleLogout drops the user from the session without destroying it:
// the device key, and with it the cart, survives signing out.
func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		session.Remove(ctx, userKey)
		session.Remove(ctx, roleKey)

		if err := session.RenewToken(ctx); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func signin(ctx context.Context, session *scs.SessionManager, p user.Profile) error {
	// Token renewal on privilege change, session data survives it.
	if err := session.RenewToken(ctx); err != nil {
		return err
	}

	session.Put(ctx, userKey, p.ID)
	session.Put(ctx, roleKey, p.Role)
	return nil
}
