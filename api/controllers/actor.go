package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/api/middleware"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// actorFromRequest resolves the authenticated identity seeded by the auth middleware.
func actorFromRequest(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actorID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return actorID, role, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	value, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return value, nil
}
