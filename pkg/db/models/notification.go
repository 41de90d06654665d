package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/types"
)

// Notification stores in-app notification payloads scoped to a recipient user.
type Notification struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID uuid.UUID                  `gorm:"column:recipient_id;type:uuid;not null;index"`
	Type        enums.NotificationType     `gorm:"column:type;type:notification_type;not null"`
	Title       string                     `gorm:"column:title;not null"`
	Message     string                     `gorm:"column:message;not null"`
	Data        types.JSONMap              `gorm:"column:data;type:jsonb;serializer:json"`
	Priority    enums.NotificationPriority `gorm:"column:priority;type:notification_priority;not null;default:'normal'"`
	Icon        string                     `gorm:"column:icon;not null;default:''"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
