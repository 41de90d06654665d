package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/internal/users"
	pkgauth "github.com/agrimandi/agrimandi-backend/pkg/auth"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type service struct {
	users  userRepository
	jwtCfg config.JWTConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo  userRepository
	JWTConfig config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		users:  params.UserRepo,
		jwtCfg: params.JWTConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email not verified")
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: accessToken,
		User:        users.FromModel(user),
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}
