package auth

import (
	"github.com/agrimandi/agrimandi-backend/internal/users"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// RegisterRequest captures the payload for onboarding a new marketplace account.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Phone    *string        `json:"phone,omitempty"`
	Role     enums.UserRole `json:"role" validate:"required"`
	State    *string        `json:"state,omitempty"`
	District *string        `json:"district,omitempty"`
}

// VerifyEmailRequest carries the code a user received during registration.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// ResendCodeRequest asks for a fresh registration code.
type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
