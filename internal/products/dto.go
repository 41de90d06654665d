package products

import (
	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// CreateProductInput captures a new listing from a farmer or supplier.
type CreateProductInput struct {
	ActorID        uuid.UUID
	ActorRole      enums.UserRole
	Name           string
	Description    *string
	Grade          enums.ProductGrade
	Kind           enums.ProductKind
	PricePaise     int64
	StockQty       int
	State          string
	District       string
	NearestHub     string
	HubID          *uuid.UUID
	Certifications []string
}

// UpdateProductInput carries owner-editable listing fields.
type UpdateProductInput struct {
	ProductID   uuid.UUID
	ActorID     uuid.UUID
	ActorRole   enums.UserRole
	Name        *string
	Description *string
	PricePaise  *int64
	Grade       *enums.ProductGrade
}

// DeleteProductInput scopes listing removal to the owner or an admin.
type DeleteProductInput struct {
	ProductID uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// ReviewDecision is the hub operator's verdict on a bulk listing.
type ReviewDecision string

const (
	ReviewDecisionAccept ReviewDecision = "accept"
	ReviewDecisionReject ReviewDecision = "reject"
)

// ReviewInput captures a bulk listing review.
type ReviewInput struct {
	ProductID uuid.UUID
	Decision  ReviewDecision
	Reason    string
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// ReviewNotice reports a review outcome for notification fan-out.
type ReviewNotice struct {
	FarmerID           uuid.UUID
	ProductID          uuid.UUID
	ProductName        string
	Accepted           bool
	Reason             string
	AdvanceRequired    bool
	AdvanceAmountPaise int64
}

// ProductList is one page of listings plus the cursor for the next page.
type ProductList struct {
	Products   []models.Product
	NextCursor string
}
