package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/internal/orders"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

const (
	defaultOrderTTLDays  = 7
	orderExpirationBatch = 200
)

// OrderTTLJobParams configure the stale order sweeper.
type OrderTTLJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Orders   orders.Repository
	Reserver orders.StockReserver
	TTLDays  int
}

// NewOrderTTLJob builds the cron job that cancels unpaid pending orders
// older than the TTL and returns their stock to the listings.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	reserver := params.Reserver
	if reserver == nil {
		reserver = orders.SQLStockReserver{}
	}
	ttl := params.TTLDays
	if ttl <= 0 {
		ttl = defaultOrderTTLDays
	}
	return &orderTTLJob{
		logg:     params.Logger,
		db:       params.DB,
		orders:   params.Orders,
		reserver: reserver,
		ttlDays:  ttl,
		now:      time.Now,
	}, nil
}

type orderTTLJob struct {
	logg     *logger.Logger
	db       txRunner
	orders   orders.Repository
	reserver orders.StockReserver
	ttlDays  int
	now      func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.ttlDays) * 24 * time.Hour)
	stale, err := j.orders.ListStaleUnpaid(ctx, cutoff, orderExpirationBatch)
	if err != nil {
		return fmt.Errorf("query stale orders: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		if err := j.expireOrder(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"found":   len(stale),
		"expired": expired,
	})
	j.logg.Info(logCtx, "stale order sweep complete")
	return multierr.Combine(errs...)
}

func (j *orderTTLJob) expireOrder(ctx context.Context, order models.Order) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.orders.WithTx(tx)
		cancelled, err := repo.CancelIfUnpaid(ctx, order.ID, j.now().UTC())
		if err != nil {
			return err
		}
		if !cancelled {
			// paid or already cancelled since the list query, leave it alone
			return nil
		}
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := j.reserver.Restore(ctx, tx, *item.ProductID, item.Qty); err != nil {
				return err
			}
		}
		return repo.CreateTrackingEvent(ctx, &models.OrderTrackingEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Message: "order expired unpaid",
		})
	})
}
