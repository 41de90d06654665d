package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

func TestReserveStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, "Basmati Rice", 5)
	productB := seedProduct(t, db, "Alphonso Mangoes", 1)

	requests := []StockReservationRequest{
		{ProductID: productA, Qty: 3},
		{ProductID: productA, Qty: 4},
		{ProductID: productB, Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := ReserveStock(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Reserved || results[0].Reason != "" {
			t.Fatalf("expected first reservation to succeed")
		}
		if results[0].RemainingQty != 2 {
			t.Fatalf("expected 2 remaining after first reservation, got %d", results[0].RemainingQty)
		}
		if results[1].Reserved || results[1].Reason == "" {
			t.Fatalf("expected second reservation to fail with reason")
		}
		if !results[2].Reserved || results[2].RemainingQty != 0 {
			t.Fatalf("expected third reservation to succeed and exhaust stock")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	if got := loadStock(t, db, productA); got != 2 {
		t.Fatalf("unexpected stock for product a: %d", got)
	}
	if got := loadStock(t, db, productB); got != 0 {
		t.Fatalf("unexpected stock for product b: %d", got)
	}
}

func TestReserveStockInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Turmeric", 5)

	_, err := ReserveStock(ctx, db, []StockReservationRequest{{ProductID: product, Qty: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRestoreStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Wheat", 10)

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := ReserveStock(ctx, tx, []StockReservationRequest{{ProductID: product, Qty: 7}})
		if terr != nil {
			return terr
		}
		if !results[0].Reserved {
			t.Fatalf("expected reservation to succeed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	if err := RestoreStock(ctx, db, product, 7); err != nil {
		t.Fatalf("restore stock: %v", err)
	}
	if got := loadStock(t, db, product); got != 10 {
		t.Fatalf("expected stock back to 10, got %d", got)
	}

	// restoring against a vanished product is a no-op
	if err := RestoreStock(ctx, db, uuid.New(), 3); err != nil {
		t.Fatalf("restore for missing product should not error: %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{
		FarmerID:     uuid.New(),
		Name:         name,
		Grade:        enums.ProductGradeRegular,
		Kind:         enums.ProductKindDomestic,
		PricePaise:   10000,
		StockQty:     stock,
		State:        "Punjab",
		District:     "Ludhiana",
		NearestHub:   "Ludhiana Central",
		ReviewStatus: enums.ReviewStatusAccepted,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func loadStock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.StockQty
}
