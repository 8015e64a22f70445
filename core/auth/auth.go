package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/sugbuph/market/api/web"
	"github.com/sugbuph/market/api/weberr"
	"github.com/sugbuph/market/core/claims"
)

const (
	userKey = "user_id"
	roleKey = "role"
)

// LoadAndSave adapts the scs middleware to the web.Handler chain so
// every request runs inside a session context.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}

// Authenticate pulls the signed-in user out of the session and stores
// the claims in the context; requests without a session user are
// rejected.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID, ok := session.Get(ctx, userKey).(string)
			if !ok || userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			role, _ := session.Get(ctx, roleKey).(string)
			ctx = claims.Set(ctx, claims.Claims{UserID: userID, Role: role})

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Seller additionally requires the seller role.
func Seller(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsSeller(ctx) {
				return weberr.NotAuthorized(errors.New("seller account required"))
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
