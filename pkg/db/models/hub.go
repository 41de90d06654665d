package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hub is a regional facility where farmer produce is aggregated before delivery.
type Hub struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	State     string     `gorm:"column:state;not null"`
	District  string     `gorm:"column:district;not null"`
	ManagerID *uuid.UUID `gorm:"column:manager_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (h *Hub) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
