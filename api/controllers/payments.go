package controllers

import (
	"net/http"
	"strings"

	"github.com/agrimandi/agrimandi-backend/api/responses"
	"github.com/agrimandi/agrimandi-backend/api/validators"
	paymentsvc "github.com/agrimandi/agrimandi-backend/internal/payments"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

// CreatePaymentIntent opens (or reuses) a gateway order for checkout.
func CreatePaymentIntent(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), paymentsvc.CreateIntentInput{
			OrderID:   orderID,
			ActorID:   actorID,
			ActorRole: role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, intent)
	}
}

// VerifyPayment checks the gateway signature and marks the order paid.
func VerifyPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Verify(r.Context(), paymentsvc.VerifyInput{
			OrderID:          orderID,
			ActorID:          actorID,
			ActorRole:        role,
			GatewayOrderID:   strings.TrimSpace(payload.GatewayOrderID),
			GatewayPaymentID: strings.TrimSpace(payload.GatewayPaymentID),
			Signature:        strings.TrimSpace(payload.Signature),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// MarkPaymentFailed records a client-reported gateway failure.
func MarkPaymentFailed(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkFailed(r.Context(), paymentsvc.MarkFailedInput{
			OrderID:   orderID,
			ActorID:   actorID,
			ActorRole: role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "failed"})
	}
}
