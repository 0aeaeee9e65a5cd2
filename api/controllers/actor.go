package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/api/middleware"
	"github.com/joaquinvega/mercado-backend/internal/policy"
	"github.com/joaquinvega/mercado-backend/pkg/enums"
	pkgerrors "github.com/joaquinvega/mercado-backend/pkg/errors"
)

// actorFromRequest rebuilds the policy actor the auth middleware stored on the
// context.
func actorFromRequest(r *http.Request) (policy.Actor, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return policy.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return policy.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		role = enums.UserRoleCustomer
	}
	return policy.Actor{UserID: userID, Role: role}, nil
}

func tenantFromRequest(r *http.Request) (*uuid.UUID, error) {
	raw := middleware.TenantIDFromContext(r.Context())
	if raw == "" {
		return nil, nil
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid tenant id")
	}
	return &tenantID, nil
}
