package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/gateway"
)

type stubOrderRepo struct {
	orders   map[uuid.UUID]*models.Order
	tracking []models.OrderTrackingEvent
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubOrderRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = status
	}
	if payment, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		order.PaymentStatus = payment
	}
	if gwOrder, ok := updates["gateway_order_id"].(string); ok {
		order.GatewayOrderID = &gwOrder
	}
	if gwPayment, ok := updates["gateway_payment_id"].(string); ok {
		order.GatewayPaymentID = &gwPayment
	}
	if signature, ok := updates["gateway_signature"].(string); ok {
		order.GatewaySignature = &signature
	}
	return nil
}

func (s *stubOrderRepo) CreateTrackingEvent(ctx context.Context, event *models.OrderTrackingEvent) error {
	s.tracking = append(s.tracking, *event)
	return nil
}

type stubGateway struct {
	created     []gateway.OrderRequest
	nextOrderID string
	validSig    string
}

func (s *stubGateway) CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	s.created = append(s.created, req)
	return &gateway.Order{
		ID:          s.nextOrderID,
		AmountPaise: req.AmountPaise,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

func (s *stubGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == s.validSig
}

func (s *stubGateway) KeyID() string { return "rzp_test_key" }

type recordedPayments struct {
	notices []PaymentNotice
}

func (r *recordedPayments) PaymentReceived(ctx context.Context, notice PaymentNotice) {
	r.notices = append(r.notices, notice)
}

func seedOrder(repo *stubOrderRepo) *models.Order {
	riceID := uuid.New()
	mangoID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		Currency:      "INR",
		AmountPaise:   150_000,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
	}
	order.Items = []models.OrderItem{
		{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      &riceID,
			Name:           "Basmati Rice",
			UnitPricePaise: 40_000,
			Qty:            3,
			TotalPaise:     120_000,
			FarmerID:       uuid.New(),
		},
		{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      &mangoID,
			Name:           "Alphonso Mangoes",
			UnitPricePaise: 30_000,
			Qty:            1,
			TotalPaise:     30_000,
			FarmerID:       uuid.New(),
		},
	}
	repo.orders[order.ID] = order
	return order
}

func newPaymentsService(t *testing.T, repo *stubOrderRepo, gw *stubGateway, notifier Notifier) Service {
	t.Helper()
	svc, err := NewService(repo, gw, notifier, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateIntentStoresGatewayOrderID(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	gw := &stubGateway{nextOrderID: "order_abc123"}
	svc := newPaymentsService(t, repo, gw, nil)

	intent, err := svc.CreateIntent(context.Background(), CreateIntentInput{
		OrderID:   order.ID,
		ActorID:   order.CustomerID,
		ActorRole: enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.GatewayOrderID != "order_abc123" || intent.AmountPaise != 150_000 || intent.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if repo.orders[order.ID].GatewayOrderID == nil || *repo.orders[order.ID].GatewayOrderID != "order_abc123" {
		t.Fatal("gateway order id not persisted")
	}
	if len(gw.created) != 1 || gw.created[0].Receipt != order.ID.String() {
		t.Fatalf("unexpected gateway call: %+v", gw.created)
	}
}

func TestCreateIntentReusesExistingIntent(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	existing := "order_existing"
	repo.orders[order.ID].GatewayOrderID = &existing
	gw := &stubGateway{nextOrderID: "order_new"}
	svc := newPaymentsService(t, repo, gw, nil)

	intent, err := svc.CreateIntent(context.Background(), CreateIntentInput{
		OrderID:   order.ID,
		ActorID:   order.CustomerID,
		ActorRole: enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.GatewayOrderID != "order_existing" {
		t.Fatalf("expected stored intent, got %s", intent.GatewayOrderID)
	}
	if len(gw.created) != 0 {
		t.Fatal("gateway should not be called again")
	}
}

func TestCreateIntentScopedToOwner(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	svc := newPaymentsService(t, repo, &stubGateway{nextOrderID: "order_x"}, nil)

	_, err := svc.CreateIntent(context.Background(), CreateIntentInput{
		OrderID:   order.ID,
		ActorID:   uuid.New(),
		ActorRole: enums.UserRoleCustomer,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func verifyInput(order *models.Order, signature string) VerifyInput {
	return VerifyInput{
		OrderID:          order.ID,
		ActorID:          order.CustomerID,
		ActorRole:        enums.UserRoleCustomer,
		GatewayOrderID:   "order_abc123",
		GatewayPaymentID: "pay_xyz789",
		Signature:        signature,
	}
}

func TestVerifyTransitionsOrderToProcessing(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	gwOrderID := "order_abc123"
	repo.orders[order.ID].GatewayOrderID = &gwOrderID
	notices := &recordedPayments{}
	svc := newPaymentsService(t, repo, &stubGateway{validSig: "good-signature"}, notices)

	verified, err := svc.Verify(context.Background(), verifyInput(order, "good-signature"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.PaymentStatus != enums.PaymentStatusPaid || verified.Status != enums.OrderStatusProcessing {
		t.Fatalf("unexpected state: payment=%s status=%s", verified.PaymentStatus, verified.Status)
	}

	stored := repo.orders[order.ID]
	if stored.PaymentStatus != enums.PaymentStatusPaid || stored.Status != enums.OrderStatusProcessing {
		t.Fatal("state not persisted")
	}
	if stored.GatewayPaymentID == nil || *stored.GatewayPaymentID != "pay_xyz789" {
		t.Fatal("payment id not kept for audit")
	}
	if len(repo.tracking) != 1 || repo.tracking[0].Message != "payment received" {
		t.Fatalf("unexpected tracking: %+v", repo.tracking)
	}

	// one notice per line, addressed to the line's farmer with the line amount
	if len(notices.notices) != len(order.Items) {
		t.Fatalf("expected %d payment notices, got %+v", len(order.Items), notices.notices)
	}
	for i, item := range order.Items {
		notice := notices.notices[i]
		if notice.FarmerID != item.FarmerID {
			t.Fatalf("notice %d addressed to %s, want farmer %s", i, notice.FarmerID, item.FarmerID)
		}
		want := item.UnitPricePaise * int64(item.Qty)
		if notice.AmountPaise != want {
			t.Fatalf("notice %d amount %d, want line amount %d", i, notice.AmountPaise, want)
		}
		if notice.AmountPaise == order.AmountPaise {
			t.Fatalf("notice %d carries the order total", i)
		}
		if notice.Qty != item.Qty || notice.ProductName != item.Name || notice.OrderID != order.ID {
			t.Fatalf("unexpected notice %d: %+v", i, notice)
		}
	}
}

func TestVerifyBadSignatureLeavesOrderUntouched(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	gwOrderID := "order_abc123"
	repo.orders[order.ID].GatewayOrderID = &gwOrderID
	notices := &recordedPayments{}
	svc := newPaymentsService(t, repo, &stubGateway{validSig: "good-signature"}, notices)

	_, err := svc.Verify(context.Background(), verifyInput(order, "forged-signature"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// the rejected attempt leaves the order exactly as it was; the customer
	// can retry with the real gateway callback
	stored := repo.orders[order.ID]
	if stored.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment status changed to %s", stored.PaymentStatus)
	}
	if stored.Status != enums.OrderStatusPending {
		t.Fatalf("fulfillment status changed to %s", stored.Status)
	}
	if len(repo.tracking) != 0 {
		t.Fatalf("unexpected tracking events: %+v", repo.tracking)
	}
	if len(notices.notices) != 0 {
		t.Fatalf("unexpected payment notices: %+v", notices.notices)
	}

	if _, err := svc.Verify(context.Background(), verifyInput(order, "good-signature")); err != nil {
		t.Fatalf("retry with valid signature: %v", err)
	}
}

func TestVerifyRejectsMismatchedGatewayOrder(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	gwOrderID := "order_other"
	repo.orders[order.ID].GatewayOrderID = &gwOrderID
	svc := newPaymentsService(t, repo, &stubGateway{validSig: "good-signature"}, nil)

	_, err := svc.Verify(context.Background(), verifyInput(order, "good-signature"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyIsNotRepeatable(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	gwOrderID := "order_abc123"
	repo.orders[order.ID].GatewayOrderID = &gwOrderID
	svc := newPaymentsService(t, repo, &stubGateway{validSig: "good-signature"}, nil)
	ctx := context.Background()

	if _, err := svc.Verify(ctx, verifyInput(order, "good-signature")); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	_, err := svc.Verify(ctx, verifyInput(order, "good-signature"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on replay, got %v", err)
	}
}

func TestVerifyRejectsCancelledOrder(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	repo.orders[order.ID].Status = enums.OrderStatusCancelled
	gwOrderID := "order_abc123"
	repo.orders[order.ID].GatewayOrderID = &gwOrderID
	svc := newPaymentsService(t, repo, &stubGateway{validSig: "good-signature"}, nil)

	_, err := svc.Verify(context.Background(), verifyInput(order, "good-signature"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestMarkFailed(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo)
	svc := newPaymentsService(t, repo, &stubGateway{}, nil)
	ctx := context.Background()

	if err := svc.MarkFailed(ctx, MarkFailedInput{
		OrderID:   order.ID,
		ActorID:   order.CustomerID,
		ActorRole: enums.UserRoleCustomer,
	}); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if repo.orders[order.ID].PaymentStatus != enums.PaymentStatusFailed {
		t.Fatal("payment should be failed")
	}

	repo.orders[order.ID].PaymentStatus = enums.PaymentStatusPaid
	err := svc.MarkFailed(ctx, MarkFailedInput{
		OrderID:   order.ID,
		ActorID:   order.CustomerID,
		ActorRole: enums.UserRoleCustomer,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for paid order, got %v", err)
	}
}
