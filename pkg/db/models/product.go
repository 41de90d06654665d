package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// Product represents a farmer or supplier listing. Stock is decremented in
// place when orders reserve quantity; it never goes negative.
type Product struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID       uuid.UUID          `gorm:"column:farmer_id;type:uuid;not null"`
	Name           string             `gorm:"column:name;not null"`
	Description    *string            `gorm:"column:description"`
	Grade          enums.ProductGrade `gorm:"column:grade;type:product_grade;not null"`
	Kind           enums.ProductKind  `gorm:"column:kind;type:product_kind;not null"`
	PricePaise     int64              `gorm:"column:price_paise;not null"`
	StockQty       int                `gorm:"column:stock_qty;not null;default:0"`
	State          string             `gorm:"column:state;not null"`
	District       string             `gorm:"column:district;not null"`
	NearestHub     string             `gorm:"column:nearest_hub;not null"`
	HubID          *uuid.UUID         `gorm:"column:hub_id;type:uuid"`
	Certifications pq.StringArray     `gorm:"column:certifications;type:text[]"`

	// Bulk review sub-state; domestic listings are stored accepted.
	ReviewStatus        enums.ReviewStatus `gorm:"column:review_status;type:review_status;not null;default:'pending'"`
	ReviewedBy          *uuid.UUID         `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt          *time.Time         `gorm:"column:reviewed_at"`
	RejectReason        *string            `gorm:"column:reject_reason"`
	AdvanceRequired     bool               `gorm:"column:advance_required;not null;default:false"`
	AdvanceAmountPaise  int64              `gorm:"column:advance_amount_paise;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TotalValuePaise is the declared stock value used by the bulk review workflow.
func (p *Product) TotalValuePaise() int64 {
	return p.PricePaise * int64(p.StockQty)
}
