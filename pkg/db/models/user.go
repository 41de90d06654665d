package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// User is any marketplace account: farmer, customer, hub manager, supplier, admin.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email         string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	Name          string         `gorm:"column:name;not null"`
	Phone         *string        `gorm:"column:phone"`
	Role          enums.UserRole `gorm:"column:role;type:user_role;not null"`
	EmailVerified bool           `gorm:"column:email_verified;not null;default:false"`
	State         *string        `gorm:"column:state"`
	District      *string        `gorm:"column:district"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
