package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/api/responses"
	"github.com/agrimandi/agrimandi-backend/api/validators"
	hubsvc "github.com/agrimandi/agrimandi-backend/internal/hubs"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

// CreateHub registers a regional hub.
func CreateHub(svc hubsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hub service unavailable"))
			return
		}

		_, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload hubsvc.CreateHubInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.ActorRole = role

		hub, err := svc.CreateHub(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, hub)
	}
}

// ListHubs returns the registered hubs.
func ListHubs(svc hubsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hub service unavailable"))
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListHubs(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListHubActivities returns custody records for hub managers and admins.
func ListHubActivities(svc hubsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hub service unavailable"))
			return
		}

		_, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := hubsvc.ActivityFilters{
			State:      strings.TrimSpace(r.URL.Query().Get("state")),
			District:   strings.TrimSpace(r.URL.Query().Get("district")),
			NearestHub: strings.TrimSpace(r.URL.Query().Get("nearest_hub")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("confirmed")); raw != "" {
			confirmed, err := validators.ParseQueryBool(r, "confirmed", false)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters.Confirmed = &confirmed
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

		result, err := svc.ListActivities(r.Context(), role, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListMyHubActivities returns the farmer's own custody records.
func ListMyHubActivities(svc hubsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hub service unavailable"))
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

		result, err := svc.ListFarmerActivities(r.Context(), actorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GenerateArrivalOTP issues a six digit arrival code to the farmer.
func GenerateArrivalOTP(svc hubsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hub service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activityID, err := pathUUID(r, "activityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.GenerateArrivalOTP(r.Context(), hubsvc.GenerateOTPInput{
			ActivityID: activityID,
			ActorID:    actorID,
			ActorRole:  role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}

// VerifyArrival confirms the farmer's code and flips the custody record.
func VerifyArrival(svc hubsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "hub service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activityID, err := pathUUID(r, "activityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyArrivalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activity, err := svc.VerifyArrival(r.Context(), hubsvc.VerifyArrivalInput{
			ActivityID: activityID,
			Code:       strings.TrimSpace(payload.Code),
			ActorID:    actorID,
			ActorRole:  role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, activity)
	}
}

type verifyArrivalRequest struct {
	Code string `json:"code" validate:"required"`
}
