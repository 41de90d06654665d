package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agrimandi/agrimandi-backend/internal/auth"
	"github.com/agrimandi/agrimandi-backend/internal/users"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/types"
)

type stubRegisterService struct {
	registered *auth.RegisterRequest
	registerFn func(auth.RegisterRequest) (*users.UserDTO, error)
	verifyErr  error
}

func (s *stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.registered = &req
	if s.registerFn != nil {
		return s.registerFn(req)
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Name: req.Name, Role: req.Role}, nil
}

func (s *stubRegisterService) VerifyEmail(ctx context.Context, req auth.VerifyEmailRequest) error {
	return s.verifyErr
}

func (s *stubRegisterService) ResendCode(ctx context.Context, req auth.ResendCodeRequest) error {
	return nil
}

type stubLoginService struct {
	loginFn func(auth.LoginRequest) (*auth.LoginResponse, error)
}

func (s *stubLoginService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.loginFn(req)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
}

func TestRegisterReturnsCreatedUser(t *testing.T) {
	svc := &stubRegisterService{}
	handler := Register(svc, testLogger())

	body := `{"name":"Ravi Kumar","email":"ravi@example.com","password":"plow-the-field","role":"farmer"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.registered == nil || svc.registered.Email != "ravi@example.com" {
		t.Fatalf("service did not receive payload: %+v", svc.registered)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := &stubRegisterService{}
	handler := Register(svc, testLogger())

	body := `{"name":"Ravi Kumar","email":"ravi@example.com","password":"short","role":"farmer"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.registered != nil {
		t.Fatal("service should not be called for invalid payloads")
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	svc := &stubRegisterService{}
	handler := Register(svc, testLogger())

	body := `{"name":"Ravi","email":"ravi@example.com","password":"plow-the-field","role":"farmer","is_admin":true}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestVerifyEmailMapsServiceError(t *testing.T) {
	svc := &stubRegisterService{verifyErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")}
	handler := VerifyEmail(svc, testLogger())

	body := `{"email":"ravi@example.com","code":"123456"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-email", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Message != "invalid or expired code" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestLoginReturnsToken(t *testing.T) {
	svc := &stubLoginService{loginFn: func(req auth.LoginRequest) (*auth.LoginResponse, error) {
		return &auth.LoginResponse{AccessToken: "signed-token"}, nil
	}}
	handler := Login(svc, testLogger())

	body := `{"email":"ravi@example.com","password":"plow-the-field"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode success envelope: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["access_token"] != "signed-token" {
		t.Fatalf("unexpected payload %v", data)
	}
}
