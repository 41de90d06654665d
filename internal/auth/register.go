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
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/mail"
	"github.com/agrimandi/agrimandi-backend/pkg/security"
)

const minPasswordLength = 8

// RegisterService handles account onboarding and email verification.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) error
	ResendCode(ctx context.Context, req ResendCodeRequest) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

type otpIssuer interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
	TTL() time.Duration
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	UserRepo       registerUserRepository
	OTPStore       otpIssuer
	Mailer         mail.Sender
	Logger         *logger.Logger
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	users       registerUserRepository
	otp         otpIssuer
	mailer      mail.Sender
	logg        *logger.Logger
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.OTPStore == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &registerService{
		users:       params.UserRepo,
		otp:         params.OTPStore,
		mailer:      params.Mailer,
		logg:        params.Logger,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if req.Role == enums.UserRoleAdmin || req.Role == enums.UserRoleHubManager {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role is provisioned by an administrator")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         req.Role,
		State:        req.State,
		District:     req.District,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.sendCode(ctx, user)
	return users.FromModel(user), nil
}

func (s *registerService) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	email := normalizeEmail(req.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user.EmailVerified {
		return nil
	}

	if err := s.otp.Verify(ctx, email, req.Code); err != nil {
		return err
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark email verified")
	}
	return nil
}

func (s *registerService) ResendCode(ctx context.Context, req ResendCodeRequest) error {
	email := normalizeEmail(req.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same response as success so the endpoint cannot be used to
			// probe which emails are registered.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user.EmailVerified {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already verified")
	}
	s.sendCode(ctx, user)
	return nil
}

// sendCode issues a fresh challenge and emails it. Delivery problems are
// logged, never surfaced, since the user can always request a resend.
func (s *registerService) sendCode(ctx context.Context, user *models.User) {
	code, err := s.otp.Issue(ctx, user.Email)
	if err != nil {
		s.logg.Error(ctx, "issue registration code", err)
		return
	}
	subject, body := mail.RegistrationOTPBody(user.Name, code, int(s.otp.TTL().Minutes()))
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.logg.Error(ctx, "send registration code", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
