package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/sugbuph/market/api/web"
	"github.com/sugbuph/market/api/weberr"
	"github.com/sugbuph/market/core/cart"
	"github.com/sugbuph/market/core/claims"
	"github.com/sugbuph/market/validate"
)

// failView is the partial-failure response: what got placed, what shop
// stopped the run, and the cart untouched from that shop onward.
type failView struct {
	Error        string        `json:"error"`
	State        State         `json:"state"`
	FailedShopID string        `json:"failedShopId"`
	Orders       []PlacedOrder `json:"orders"`
}

func HandleCheckout(carts *cart.Manager, session *scs.SessionManager, orch *Orchestrator) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var f Form
		if err := web.Decode(w, r, &f); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(f); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		s := carts.Get(ctx, cart.DeviceKey(ctx, session))

		res, err := orch.Run(ctx, s, clm.UserID, f)
		switch {
		case err == nil:
			return web.Respond(ctx, w, res, http.StatusOK)

		case errors.Is(err, ErrEmptyCart),
			errors.Is(err, ErrShippingAddress),
			errors.Is(err, ErrZeroQuantity):
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)

		case errors.Is(err, cart.ErrCheckoutInFlight):
			return weberr.NewError(err, "a checkout is already in progress", http.StatusConflict)

		case errors.Is(err, ErrNoBuyer):
			return weberr.NotAuthorized(err)
		}

		var perr *PlacementError
		if errors.As(err, &perr) {
			body := failView{
				Error:        "checkout failed for shop " + perr.ShopName + "; items already ordered were removed from the cart",
				State:        res.State,
				FailedShopID: perr.ShopID,
				Orders:       res.Orders,
			}
			return weberr.Wrap(err,
				weberr.WithResponse(body, http.StatusBadGateway),
				weberr.WithFields(map[string]interface{}{"shop": perr.ShopID}),
			)
		}

		return err
	}
}
