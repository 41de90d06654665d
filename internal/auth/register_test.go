package auth

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/internal/users"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	pkgmodels "github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

type stubUserRepository struct {
	data     map[string]*pkgmodels.User
	created  *pkgmodels.User
	verified []uuid.UUID
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{data: map[string]*pkgmodels.User{}}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	user := &pkgmodels.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: dto.PasswordHash,
		Phone:        dto.Phone,
		Role:         dto.Role,
		State:        dto.State,
		District:     dto.District,
	}
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

func (s *stubUserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	s.verified = append(s.verified, id)
	for _, user := range s.data {
		if user.ID == id {
			user.EmailVerified = true
		}
	}
	return nil
}

type stubOTPStore struct {
	issued    map[string]string
	verifyErr error
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{issued: map[string]string{}}
}

func (s *stubOTPStore) Issue(ctx context.Context, email string) (string, error) {
	s.issued[email] = "123456"
	return "123456", nil
}

func (s *stubOTPStore) Verify(ctx context.Context, email, code string) error {
	if s.verifyErr != nil {
		return s.verifyErr
	}
	if s.issued[email] != code {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}
	return nil
}

func (s *stubOTPStore) TTL() time.Duration { return 5 * time.Minute }

type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, to)
	return m.err
}

func newRegisterService(t *testing.T, repo *stubUserRepository, otp *stubOTPStore, mailer *recordingMailer) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		UserRepo:       repo,
		OTPStore:       otp,
		Mailer:         mailer,
		Logger:         logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}),
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Name:     "Ravi Kumar",
		Email:    "Ravi.Kumar@Example.com",
		Password: "sufficiently-long",
		Role:     enums.UserRoleFarmer,
	}
}

func TestRegisterCreatesUnverifiedUserAndEmailsCode(t *testing.T) {
	repo := newStubUserRepository()
	otp := newStubOTPStore()
	mailer := &recordingMailer{}
	svc := newRegisterService(t, repo, otp, mailer)

	dto, err := svc.Register(context.Background(), validRegisterRequest())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Email != "ravi.kumar@example.com" {
		t.Fatalf("email not normalized: %s", dto.Email)
	}
	if repo.created == nil || repo.created.EmailVerified {
		t.Fatal("user should be created unverified")
	}
	if repo.created.PasswordHash == "" || strings.Contains(repo.created.PasswordHash, "sufficiently-long") {
		t.Fatal("password must be stored hashed")
	}
	if _, ok := otp.issued["ravi.kumar@example.com"]; !ok {
		t.Fatal("no code issued")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "ravi.kumar@example.com" {
		t.Fatalf("expected one code email, got %v", mailer.sent)
	}
}

func TestRegisterSucceedsWhenEmailDeliveryFails(t *testing.T) {
	repo := newStubUserRepository()
	mailer := &recordingMailer{err: context.DeadlineExceeded}
	svc := newRegisterService(t, repo, newStubOTPStore(), mailer)

	if _, err := svc.Register(context.Background(), validRegisterRequest()); err != nil {
		t.Fatalf("delivery failure must not fail registration: %v", err)
	}
	if repo.created == nil {
		t.Fatal("user not created")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newStubUserRepository()
	svc := newRegisterService(t, repo, newStubOTPStore(), &recordingMailer{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterRequest()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, validRegisterRequest())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterRejectsProvisionedRoles(t *testing.T) {
	svc := newRegisterService(t, newStubUserRepository(), newStubOTPStore(), &recordingMailer{})

	for _, role := range []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleHubManager} {
		req := validRegisterRequest()
		req.Role = role
		_, err := svc.Register(context.Background(), req)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
			t.Errorf("role %s: expected forbidden, got %v", role, err)
		}
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newRegisterService(t, newStubUserRepository(), newStubOTPStore(), &recordingMailer{})
	req := validRegisterRequest()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyEmailMarksUser(t *testing.T) {
	repo := newStubUserRepository()
	otp := newStubOTPStore()
	svc := newRegisterService(t, repo, otp, &recordingMailer{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterRequest()); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := svc.VerifyEmail(ctx, VerifyEmailRequest{Email: "ravi.kumar@example.com", Code: "000000"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("wrong code should be unauthorized, got %v", err)
	}
	if repo.created.EmailVerified {
		t.Fatal("wrong code must not verify the user")
	}

	if err := svc.VerifyEmail(ctx, VerifyEmailRequest{Email: "ravi.kumar@example.com", Code: "123456"}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !repo.created.EmailVerified {
		t.Fatal("user should be verified")
	}

	// verifying again is a no-op
	if err := svc.VerifyEmail(ctx, VerifyEmailRequest{Email: "ravi.kumar@example.com", Code: "123456"}); err != nil {
		t.Fatalf("repeat verify: %v", err)
	}
}

func TestResendCode(t *testing.T) {
	repo := newStubUserRepository()
	otp := newStubOTPStore()
	mailer := &recordingMailer{}
	svc := newRegisterService(t, repo, otp, mailer)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterRequest()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.ResendCode(ctx, ResendCodeRequest{Email: "ravi.kumar@example.com"}); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected two emails, got %d", len(mailer.sent))
	}

	// unknown addresses get the same answer as known ones
	if err := svc.ResendCode(ctx, ResendCodeRequest{Email: "nobody@example.com"}); err != nil {
		t.Fatalf("resend for unknown email: %v", err)
	}

	repo.created.EmailVerified = true
	err := svc.ResendCode(ctx, ResendCodeRequest{Email: "ravi.kumar@example.com"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for verified account, got %v", err)
	}
}
