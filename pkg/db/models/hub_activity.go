package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// HubActivity tracks one sold line's custody journey from farmer to hub to
// customer. The OTP pair (code, expiry) is present only while a challenge is
// outstanding; confirmation clears both and is terminal.
type HubActivity struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Type        enums.HubActivityType `gorm:"column:type;type:hub_activity_type;not null;default:'sold'"`
	State       string                `gorm:"column:state;not null"`
	District    string                `gorm:"column:district;not null"`
	NearestHub  string                `gorm:"column:nearest_hub;not null"`
	ProductID   uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	ProductName string                `gorm:"column:product_name;not null"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	FarmerID    uuid.UUID             `gorm:"column:farmer_id;type:uuid;not null"`
	CustomerID  uuid.UUID             `gorm:"column:customer_id;type:uuid;not null"`
	Quantity    int                   `gorm:"column:quantity;not null"`
	AmountPaise int64                 `gorm:"column:amount_paise;not null"`

	HubArrivalConfirmed bool       `gorm:"column:hub_arrival_confirmed;not null;default:false"`
	OTPCode             *string    `gorm:"column:otp_code"`
	OTPExpiresAt        *time.Time `gorm:"column:otp_expires_at"`
	ConfirmedAt         *time.Time `gorm:"column:confirmed_at"`
	ConfirmedBy         *uuid.UUID `gorm:"column:confirmed_by;type:uuid"`
	CustomerNotified    bool       `gorm:"column:customer_notified;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *HubActivity) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
