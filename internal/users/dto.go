package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID      `json:"id"`
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	Phone         *string        `json:"phone,omitempty"`
	Role          enums.UserRole `json:"role"`
	EmailVerified bool           `json:"email_verified"`
	State         *string        `json:"state,omitempty"`
	District      *string        `json:"district,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Role         enums.UserRole
	State        *string
	District     *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Phone:         u.Phone,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		State:         u.State,
		District:      u.District,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		Name:         dto.Name,
		Phone:        dto.Phone,
		Role:         dto.Role,
		State:        dto.State,
		District:     dto.District,
	}
}
