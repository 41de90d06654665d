package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/api/responses"
	"github.com/agrimandi/agrimandi-backend/api/validators"
	productsvc "github.com/agrimandi/agrimandi-backend/internal/products"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

// CreateProduct handles listing creation for farmers and suppliers.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput(actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type createProductRequest struct {
	Name           string   `json:"name" validate:"required"`
	Description    *string  `json:"description,omitempty"`
	Grade          string   `json:"grade" validate:"required"`
	Kind           string   `json:"kind" validate:"required"`
	PricePaise     int64    `json:"price_paise" validate:"required,min=1"`
	StockQty       int      `json:"stock_qty" validate:"required,min=1"`
	State          string   `json:"state" validate:"required"`
	District       string   `json:"district" validate:"required"`
	NearestHub     string   `json:"nearest_hub" validate:"required"`
	HubID          *string  `json:"hub_id,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

func (req createProductRequest) toCreateInput(actorID uuid.UUID, role enums.UserRole) (productsvc.CreateProductInput, error) {
	grade, err := enums.ParseProductGrade(strings.TrimSpace(req.Grade))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid grade")
	}
	kind, err := enums.ParseProductKind(strings.TrimSpace(req.Kind))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind")
	}

	var hubID *uuid.UUID
	if req.HubID != nil && strings.TrimSpace(*req.HubID) != "" {
		parsed, err := uuid.Parse(*req.HubID)
		if err != nil {
			return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hub_id")
		}
		hubID = &parsed
	}

	return productsvc.CreateProductInput{
		ActorID:        actorID,
		ActorRole:      role,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Grade:          grade,
		Kind:           kind,
		PricePaise:     req.PricePaise,
		StockQty:       req.StockQty,
		State:          strings.TrimSpace(req.State),
		District:       strings.TrimSpace(req.District),
		NearestHub:     strings.TrimSpace(req.NearestHub),
		HubID:          hubID,
		Certifications: req.Certifications,
	}, nil
}

// GetProduct returns a single listing.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListProducts returns the browsable catalog with optional filters.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		filters := productsvc.ListFilters{
			State:    strings.TrimSpace(r.URL.Query().Get("state")),
			District: strings.TrimSpace(r.URL.Query().Get("district")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseProductKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			filters.Kind = &kind
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("farmer_id")); raw != "" {
			farmerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid farmer_id"))
				return
			}
			filters.FarmerID = &farmerID
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateProduct applies owner edits to a listing.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateProductInput{
			ProductID:   productID,
			ActorID:     actorID,
			ActorRole:   role,
			Name:        payload.Name,
			Description: payload.Description,
			PricePaise:  payload.PricePaise,
		}
		if payload.Grade != nil {
			grade, err := enums.ParseProductGrade(strings.TrimSpace(*payload.Grade))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid grade"))
				return
			}
			input.Grade = &grade
		}

		product, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PricePaise  *int64  `json:"price_paise,omitempty" validate:"omitempty,min=1"`
	Grade       *string `json:"grade,omitempty"`
}

// DeleteProduct removes a listing with no active order lines.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), productsvc.DeleteProductInput{
			ProductID: productID,
			ActorID:   actorID,
			ActorRole: role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListPendingBulk returns bulk listings awaiting review.
func ListPendingBulk(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPendingBulk(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReviewProduct records the accept or reject verdict on a bulk listing.
func ReviewProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Review(r.Context(), productsvc.ReviewInput{
			ProductID: productID,
			Decision:  productsvc.ReviewDecision(payload.Decision),
			Reason:    strings.TrimSpace(payload.Reason),
			ActorID:   actorID,
			ActorRole: role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type reviewProductRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept reject"`
	Reason   string `json:"reason,omitempty"`
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
