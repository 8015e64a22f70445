package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sugbuph/market/core/cart"
	"github.com/sugbuph/market/validate"
)

// State describes where a checkout run ended up. A run is Submitting
// only while in flight; callers observe Completed or PartiallyFailed.
type State string

const (
	Idle            State = "idle"
	Submitting      State = "submitting"
	Completed       State = "completed"
	PartiallyFailed State = "partially_failed"
)

// Validation failures caught before any order request is issued.
var (
	ErrNoBuyer         = errors.New("checkout requires a signed-in buyer")
	ErrEmptyCart       = errors.New("checkout requires a non-empty cart")
	ErrShippingAddress = errors.New("shipping address is required")
	ErrZeroQuantity    = errors.New("cart contains an unpurchasable line")
)

// Form carries the buyer-supplied shipping details, shared across every
// shop in one checkout. The flat shipping fee defaults to zero.
type Form struct {
	ShippingAddress string `json:"shippingAddress" validate:"required"`
	ContactPhone    string `json:"contactPhone"`
	Notes           string `json:"notes"`
	ShippingFee     int    `json:"shippingFee" validate:"gte=0"`
}

// LineItem is one product snapshot inside a placement request.
type LineItem struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage"`
	UnitPrice    int    `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
}

// PlaceInput is the order-placement request for a single shop group. The
// idempotency key is unique per shop group per checkout attempt, so a
// retransmitted request cannot materialize a second order.
type PlaceInput struct {
	BuyerID         string
	ShopID          string
	Items           []LineItem
	ShippingAddress string
	ContactPhone    string
	Notes           string
	ShippingFee     int
	IdempotencyKey  string
}

// PlacedOrder is what the orchestrator keeps from a successful
// placement: enough to navigate and to report totals.
type PlacedOrder struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	ShopID      string `json:"shopId"`
	Subtotal    int    `json:"subtotal"`
	ShippingFee int    `json:"shippingFee"`
	Total       int    `json:"total"`
}

// OrderPlacer persists one order with its line items, atomically from
// the orchestrator's point of view.
type OrderPlacer interface {
	Place(ctx context.Context, in PlaceInput) (PlacedOrder, error)
}

// PlacementError wraps the collaborator failure that stopped a run, so
// callers learn which shop failed without inspecting backend error
// shapes.
type PlacementError struct {
	ShopID   string
	ShopName string
	Err      error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placing order for shop[%s]: %v", e.ShopID, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// Result is the reconciled outcome of a run. Orders holds every
// placement that succeeded, in submission order; LastOrderID is what the
// storefront navigates to after a fully successful checkout.
type Result struct {
	State       State         `json:"state"`
	LastOrderID string        `json:"lastOrderId,omitempty"`
	Orders      []PlacedOrder `json:"orders"`
}

const defaultPlaceTimeout = 10 * time.Second

// Orchestrator turns the current cart into one persisted order per shop
// and keeps the cart consistent with whatever was actually achieved.
type Orchestrator struct {
	placer  OrderPlacer
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewOrchestrator(placer OrderPlacer, timeout time.Duration, log logrus.FieldLogger) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultPlaceTimeout
	}
	return &Orchestrator{placer: placer, timeout: timeout, log: log}
}

// Run submits the cart's shop groups strictly in order, one at a time.
// Each confirmed order immediately clears its shop's lines; the first
// failure stops the run and leaves every remaining group in the cart, so
// a retry cannot re-submit items that were already ordered.
func (o *Orchestrator) Run(ctx context.Context, s *cart.Store, buyerID string, f Form) (Result, error) {
	res := Result{State: Idle}

	if buyerID == "" {
		return res, ErrNoBuyer
	}
	if strings.TrimSpace(f.ShippingAddress) == "" {
		return res, ErrShippingAddress
	}
	if f.ShippingFee < 0 {
		f.ShippingFee = 0
	}

	if err := s.Begin(); err != nil {
		return res, err
	}
	defer s.End()

	groups := s.GroupByShop()
	if len(groups) == 0 {
		return res, ErrEmptyCart
	}

	for _, g := range groups {
		for _, l := range g.Items {
			if l.Quantity < 1 {
				return res, fmt.Errorf("product[%s]: %w", l.ProductID, ErrZeroQuantity)
			}
		}
	}

	res.State = Submitting

	for _, g := range groups {
		in := PlaceInput{
			BuyerID:         buyerID,
			ShopID:          g.ShopID,
			Items:           make([]LineItem, 0, len(g.Items)),
			ShippingAddress: f.ShippingAddress,
			ContactPhone:    f.ContactPhone,
			Notes:           f.Notes,
			ShippingFee:     f.ShippingFee,
			IdempotencyKey:  validate.GenerateID(),
		}
		for _, l := range g.Items {
			in.Items = append(in.Items, LineItem{
				ProductID:    l.ProductID,
				ProductName:  l.Name,
				ProductImage: l.ImageURL,
				UnitPrice:    l.UnitPrice,
				Quantity:     l.Quantity,
			})
		}

		placed, err := o.place(ctx, in)
		if err != nil {
			res.State = PartiallyFailed
			return res, &PlacementError{ShopID: g.ShopID, ShopName: g.ShopName, Err: err}
		}

		s.ClearShopItems(g.ShopID)
		res.Orders = append(res.Orders, placed)
		res.LastOrderID = placed.ID

		o.log.WithFields(logrus.Fields{
			"shop":  g.ShopID,
			"order": placed.ID,
			"total": placed.Total,
		}).Info("order placed")
	}

	res.State = Completed
	return res, nil
}

// place bounds a single collaborator call; a timeout counts as that
// group's failure.
func (o *Orchestrator) place(ctx context.Context, in PlaceInput) (PlacedOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	return o.placer.Place(ctx, in)
}
