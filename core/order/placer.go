package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sugbuph/market/core/checkout"
	"github.com/sugbuph/market/core/product"
	"github.com/sugbuph/market/database"
	"github.com/sugbuph/market/random"
	"github.com/sugbuph/market/validate"
)

// Placer implements the checkout orchestrator's OrderPlacer over the
// marketplace database. One call inserts the order header, its line
// items and the stock decrements in a single transaction, so a partial
// failure can never leave a header without items.
type Placer struct {
	db *sqlx.DB
}

func NewPlacer(db *sqlx.DB) *Placer {
	return &Placer{db: db}
}

func (p *Placer) Place(ctx context.Context, in checkout.PlaceInput) (checkout.PlacedOrder, error) {
	if in.BuyerID == "" || in.ShopID == "" || len(in.Items) == 0 {
		return checkout.PlacedOrder{}, errors.New("placement request is missing buyer, shop or items")
	}

	// The key is stored under a unique constraint, so even two racing
	// attempts with the same key materialize one order.
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = validate.GenerateID()
	}

	if ord, err := FetchByIdempotencyKey(ctx, p.db, in.IdempotencyKey); err == nil {
		return placed(ord), nil
	} else if !errors.Is(err, ErrNotFound) {
		return checkout.PlacedOrder{}, err
	}

	var subtotal int
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return checkout.PlacedOrder{}, fmt.Errorf("product[%s]: quantity must be at least 1", it.ProductID)
		}
		subtotal += it.UnitPrice * it.Quantity
	}

	now := time.Now().UTC()
	ord := Order{
		ID:              validate.GenerateID(),
		Number:          "SB-" + random.String(8),
		BuyerID:         in.BuyerID,
		ShopID:          in.ShopID,
		Status:          Pending,
		Subtotal:        subtotal,
		ShippingFee:     in.ShippingFee,
		Total:           subtotal + in.ShippingFee,
		ShippingAddress: in.ShippingAddress,
		ContactPhone:    in.ContactPhone,
		Notes:           in.Notes,
		IdempotencyKey:  in.IdempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := database.Transaction(p.db, func(tx sqlx.ExtContext) error {
		for _, it := range in.Items {
			if err := product.TakeStock(ctx, tx, it.ProductID, it.Quantity, now); err != nil {
				return err
			}
		}

		if err := Create(ctx, tx, ord); err != nil {
			return err
		}

		for _, it := range in.Items {
			rec := Item{
				OrderID:      ord.ID,
				ProductID:    it.ProductID,
				ProductName:  it.ProductName,
				ProductImage: it.ProductImage,
				UnitPrice:    it.UnitPrice,
				Quantity:     it.Quantity,
				LineTotal:    it.UnitPrice * it.Quantity,
				CreatedAt:    now,
			}
			if err := CreateItem(ctx, tx, rec); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		// A concurrent attempt with the same key won the insert race;
		// its order is the one to report.
		if isUniqueViolation(err) {
			if ord, ferr := FetchByIdempotencyKey(ctx, p.db, in.IdempotencyKey); ferr == nil {
				return placed(ord), nil
			}
		}
		return checkout.PlacedOrder{}, fmt.Errorf("placing order for shop[%s]: %w", in.ShopID, err)
	}

	return placed(ord), nil
}

func placed(o Order) checkout.PlacedOrder {
	return checkout.PlacedOrder{
		ID:          o.ID,
		Number:      o.Number,
		ShopID:      o.ShopID,
		Subtotal:    o.Subtotal,
		ShippingFee: o.ShippingFee,
		Total:       o.Total,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
