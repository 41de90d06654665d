package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/api/responses"
	"github.com/agrimandi/agrimandi-backend/api/validators"
	ordersvc "github.com/agrimandi/agrimandi-backend/internal/orders"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/types"
)

// PlaceOrder reserves stock and creates a pending order.
func PlaceOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toPlaceInput(actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type placeOrderRequest struct {
	Items           []placeOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *types.Address          `json:"shipping_address,omitempty"`
}

type placeOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

func (req placeOrderRequest) toPlaceInput(customerID uuid.UUID) (ordersvc.PlaceOrderInput, error) {
	items := make([]ordersvc.PlaceOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return ordersvc.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
		}
		items = append(items, ordersvc.PlaceOrderItemInput{ProductID: productID, Qty: item.Qty})
	}
	return ordersvc.PlaceOrderInput{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
	}, nil
}

// GetOrder returns one order scoped to the requesting actor.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		order, err := svc.Get(r.Context(), ordersvc.GetOrderInput{
			OrderID:   orderID,
			ActorID:   actorID,
			ActorRole: role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns the customer's own orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForCustomer(r.Context(), actorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CancelOrder cancels a pending order and restores reserved stock.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		order, err := svc.Cancel(r.Context(), ordersvc.CancelOrderInput{
			OrderID:   orderID,
			ActorID:   actorID,
			ActorRole: role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateOrderStatus advances an order along the fulfillment path.
func UpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), ordersvc.UpdateStatusInput{
			OrderID:   orderID,
			Status:    status,
			Message:   strings.TrimSpace(payload.Message),
			ActorID:   actorID,
			ActorRole: role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Message string `json:"message,omitempty"`
}

// DeleteOrder removes an order record entirely.
func DeleteOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
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

		if err := svc.Delete(r.Context(), ordersvc.DeleteOrderInput{
			OrderID:   orderID,
			ActorID:   actorID,
			ActorRole: role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
