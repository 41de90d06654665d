package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agrimandi/agrimandi-backend/internal/auth"
	"github.com/agrimandi/agrimandi-backend/internal/hubs"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	"github.com/agrimandi/agrimandi-backend/internal/orders"
	"github.com/agrimandi/agrimandi-backend/internal/payments"
	"github.com/agrimandi/agrimandi-backend/internal/products"
	"github.com/agrimandi/agrimandi-backend/internal/users"
	pkgAuth "github.com/agrimandi/agrimandi-backend/pkg/auth"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token"}, nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Email: req.Email}, nil
}

func (stubRegisterService) VerifyEmail(ctx context.Context, req auth.VerifyEmailRequest) error {
	return nil
}

func (stubRegisterService) ResendCode(ctx context.Context, req auth.ResendCodeRequest) error {
	return nil
}

type stubProductsService struct{}

func (stubProductsService) Create(ctx context.Context, input products.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) List(ctx context.Context, filters products.ListFilters, params pagination.Params) (*products.ProductList, error) {
	return &products.ProductList{}, nil
}

func (stubProductsService) Update(ctx context.Context, input products.UpdateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) Delete(ctx context.Context, input products.DeleteProductInput) error {
	panic("unimplemented")
}

func (stubProductsService) ListPendingBulk(ctx context.Context, params pagination.Params) (*products.ProductList, error) {
	return &products.ProductList{}, nil
}

func (stubProductsService) Review(ctx context.Context, input products.ReviewInput) (*models.Product, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Place(ctx context.Context, input orders.PlaceOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Get(ctx context.Context, input orders.GetOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Delete(ctx context.Context, input orders.DeleteOrderInput) error {
	panic("unimplemented")
}

type stubPaymentsService struct{}

func (stubPaymentsService) CreateIntent(ctx context.Context, input payments.CreateIntentInput) (*payments.Intent, error) {
	panic("unimplemented")
}

func (stubPaymentsService) Verify(ctx context.Context, input payments.VerifyInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubPaymentsService) MarkFailed(ctx context.Context, input payments.MarkFailedInput) error {
	panic("unimplemented")
}

type stubHubsService struct{}

func (stubHubsService) CreateHub(ctx context.Context, input hubs.CreateHubInput) (*models.Hub, error) {
	panic("unimplemented")
}

func (stubHubsService) ListHubs(ctx context.Context, params pagination.Params) (*hubs.HubList, error) {
	return &hubs.HubList{}, nil
}

func (stubHubsService) ListActivities(ctx context.Context, actorRole enums.UserRole, filters hubs.ActivityFilters, params pagination.Params) (*hubs.ActivityList, error) {
	return &hubs.ActivityList{}, nil
}

func (stubHubsService) ListFarmerActivities(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*hubs.ActivityList, error) {
	return &hubs.ActivityList{}, nil
}

func (stubHubsService) GenerateArrivalOTP(ctx context.Context, input hubs.GenerateOTPInput) error {
	panic("unimplemented")
}

func (stubHubsService) VerifyArrival(ctx context.Context, input hubs.VerifyArrivalInput) (*models.HubActivity, error) {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "agrimandi-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil,
		nil,
		stubAuthService{},
		stubRegisterService{},
		stubProductsService{},
		stubOrdersService{},
		stubPaymentsService{},
		stubHubsService{},
		stubNotificationsService{},
	)
}

func mintToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginIsPublic(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.in","password":"secret-pass"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	paths := []string{
		"/api/v1/products",
		"/api/v1/orders",
		"/api/v1/hubs",
		"/api/v1/notifications",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, rec.Code)
		}
	}
}

func TestReviewQueueIsRoleGuarded(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/pending", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleFarmer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for farmer, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/pending", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleHubManager))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for hub manager, got %d", rec.Code)
	}
}

func TestHubActivityQueueIsRoleGuarded(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hubs/activities", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/hubs/activities/mine", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleFarmer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for farmer's own feed, got %d", rec.Code)
	}
}
