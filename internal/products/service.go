package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

// Stock bounds per listing kind. Domestic listings are retail-sized; bulk
// listings are wholesale lots subject to hub review.
const (
	DomesticStockMin = 1
	DomesticStockMax = 20
	BulkStockMin     = 20
)

// AdvancePolicy computes the advance-payment requirement attached when a hub
// operator accepts a lower-value bulk listing.
type AdvancePolicy struct {
	ThresholdPaise int64
	Percent        int64
}

// Compute returns whether an advance is required for the given stock value
// and, if so, its amount.
func (p AdvancePolicy) Compute(totalValuePaise int64) (bool, int64) {
	if totalValuePaise >= p.ThresholdPaise {
		return false, 0
	}
	amount := decimal.NewFromInt(totalValuePaise).
		Mul(decimal.NewFromInt(p.Percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	return true, amount
}

// Notifier receives review outcomes for best-effort fan-out.
type Notifier interface {
	BulkReviewed(ctx context.Context, notice ReviewNotice)
}

// Service defines listing operations including the bulk review workflow.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error)
	Update(ctx context.Context, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, input DeleteProductInput) error
	ListPendingBulk(ctx context.Context, params pagination.Params) (*ProductList, error)
	Review(ctx context.Context, input ReviewInput) (*models.Product, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	advance  AdvancePolicy
}

// NewService builds a products service.
func NewService(repo Repository, notifier Notifier, advance AdvancePolicy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if advance.Percent <= 0 || advance.Percent > 100 {
		return nil, fmt.Errorf("advance percent must be in (0, 100]")
	}
	return &service{repo: repo, notifier: notifier, advance: advance}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.CanSell() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers and suppliers create listings")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PricePaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if !input.Grade.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product grade")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product kind")
	}
	if strings.TrimSpace(input.State) == "" || strings.TrimSpace(input.District) == "" || strings.TrimSpace(input.NearestHub) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state, district, and nearest hub are required")
	}

	switch input.Kind {
	case enums.ProductKindDomestic:
		if input.StockQty < DomesticStockMin || input.StockQty > DomesticStockMax {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("domestic stock must be between %d and %d", DomesticStockMin, DomesticStockMax))
		}
	case enums.ProductKindBulk:
		if input.StockQty < BulkStockMin {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("bulk stock must be at least %d", BulkStockMin))
		}
	}

	// Domestic listings skip hub review and are immediately purchasable.
	review := enums.ReviewStatusPending
	if input.Kind == enums.ProductKindDomestic {
		review = enums.ReviewStatusAccepted
	}

	product := &models.Product{
		FarmerID:       input.ActorID,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Grade:          input.Grade,
		Kind:           input.Kind,
		PricePaise:     input.PricePaise,
		StockQty:       input.StockQty,
		State:          strings.TrimSpace(input.State),
		District:       strings.TrimSpace(input.District),
		NearestHub:     strings.TrimSpace(input.NearestHub),
		HubID:          input.HubID,
		Certifications: pq.StringArray(input.Certifications),
		ReviewStatus:   review,
	}
	if _, err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error) {
	products, next, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	list := &ProductList{Products: products}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateProductInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.Get(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.ActorRole != enums.UserRoleAdmin && product.FarmerID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to user")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = name
		product.Name = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
		product.Description = input.Description
	}
	if input.PricePaise != nil {
		if *input.PricePaise <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price_paise"] = *input.PricePaise
		product.PricePaise = *input.PricePaise
	}
	if input.Grade != nil {
		if !input.Grade.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product grade")
		}
		updates["grade"] = *input.Grade
		product.Grade = *input.Grade
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.Update(ctx, product.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, input DeleteProductInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.Get(ctx, input.ProductID)
	if err != nil {
		return err
	}
	if input.ActorRole != enums.UserRoleAdmin && product.FarmerID != input.ActorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to user")
	}

	active, err := s.repo.CountActiveOrderLines(ctx, product.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active orders")
	}
	if active > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product has active orders")
	}

	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) ListPendingBulk(ctx context.Context, params pagination.Params) (*ProductList, error) {
	kind := enums.ProductKindBulk
	review := enums.ReviewStatusPending
	return s.List(ctx, ListFilters{Kind: &kind, ReviewStatus: &review}, params)
}

func (s *service) Review(ctx context.Context, input ReviewInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.ActorRole != enums.UserRoleHubManager && input.ActorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only hub managers and admins review listings")
	}
	if input.Decision != ReviewDecisionAccept && input.Decision != ReviewDecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accept or reject")
	}
	if input.Decision == ReviewDecisionReject && strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection requires a reason")
	}

	product, err := s.Get(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Kind != enums.ProductKindBulk {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only bulk listings are reviewed")
	}
	if product.ReviewStatus.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "listing already processed")
	}

	now := time.Now().UTC()
	reviewer := input.ActorID
	updates := map[string]any{
		"reviewed_by": reviewer,
		"reviewed_at": now,
	}
	notice := ReviewNotice{
		FarmerID:    product.FarmerID,
		ProductID:   product.ID,
		ProductName: product.Name,
	}

	if input.Decision == ReviewDecisionAccept {
		required, amount := s.advance.Compute(product.TotalValuePaise())
		updates["review_status"] = enums.ReviewStatusAccepted
		updates["advance_required"] = required
		updates["advance_amount_paise"] = amount

		product.ReviewStatus = enums.ReviewStatusAccepted
		product.AdvanceRequired = required
		product.AdvanceAmountPaise = amount
		notice.Accepted = true
		notice.AdvanceRequired = required
		notice.AdvanceAmountPaise = amount
	} else {
		reason := strings.TrimSpace(input.Reason)
		updates["review_status"] = enums.ReviewStatusRejected
		updates["reject_reason"] = reason

		product.ReviewStatus = enums.ReviewStatusRejected
		product.RejectReason = &reason
		notice.Reason = reason
	}
	product.ReviewedBy = &reviewer
	product.ReviewedAt = &now

	won, err := s.repo.UpdateReviewIfPending(ctx, product.ID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store review decision")
	}
	if !won {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "listing already processed")
	}

	if s.notifier != nil {
		s.notifier.BulkReviewed(ctx, notice)
	}
	return product, nil
}
