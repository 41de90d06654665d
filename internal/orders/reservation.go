package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// SQLStockReserver is the production StockReserver backed by conditional UPDATEs.
type SQLStockReserver struct{}

func (SQLStockReserver) Reserve(ctx context.Context, tx *gorm.DB, requests []StockReservationRequest) ([]StockReservationResult, error) {
	return ReserveStock(ctx, tx, requests)
}

func (SQLStockReserver) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return RestoreStock(ctx, tx, productID, qty)
}

// StockReservationRequest asks for qty units of one product.
type StockReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// StockReservationResult reports the per-product outcome. RemainingQty is only
// meaningful when Reserved is true.
type StockReservationResult struct {
	ProductID    uuid.UUID
	Reserved     bool
	Reason       string
	RemainingQty int
}

// ReserveStock decrements product stock inside the caller's transaction. Each
// decrement is a conditional UPDATE guarded by stock_qty >= qty, so concurrent
// orders can never drive stock negative. A failed reservation does not abort
// the batch; callers inspect the results and roll back if any line failed.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []StockReservationRequest) ([]StockReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	results := make([]StockReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive")
		}

		res := tx.WithContext(ctx).Exec(
			`UPDATE products
			 SET stock_qty = stock_qty - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND stock_qty >= ?`,
			req.Qty, req.ProductID, req.Qty,
		)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
		}

		result := StockReservationResult{ProductID: req.ProductID}
		if res.RowsAffected == 0 {
			result.Reason = "insufficient stock"
			results = append(results, result)
			continue
		}

		var remaining int
		row := tx.WithContext(ctx).
			Raw("SELECT stock_qty FROM products WHERE id = ?", req.ProductID).
			Row()
		if err := row.Scan(&remaining); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read remaining stock")
		}

		result.Reserved = true
		result.RemainingQty = remaining
		results = append(results, result)
	}
	return results, nil
}

// RestoreStock returns previously reserved quantity to the product, used on
// cancellation and admin deletion of unfulfilled orders.
func RestoreStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "restore qty must be positive")
	}

	res := tx.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock_qty = stock_qty + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, productID,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	// The product may have been deleted since the order was placed; nothing to restore then.
	return nil
}
