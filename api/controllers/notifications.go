package controllers

import (
	"net/http"
	"strings"

	"github.com/agrimandi/agrimandi-backend/api/responses"
	"github.com/agrimandi/agrimandi-backend/api/validators"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

// ListNotifications returns paginated notifications for the signed-in user.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := notifications.ListParams{RecipientID: actorID}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		unreadOnly, err := validators.ParseQueryBool(r, "unreadOnly", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.UnreadOnly = unreadOnly

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// UnreadNotificationCount returns the badge count for the signed-in user.
func UnreadNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.CountUnread(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"unread": count})
	}
}

// MarkNotificationRead marks one notification as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID, err := pathUUID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), actorID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// MarkAllNotificationsRead marks every unread notification as read.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.MarkAllRead(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}
