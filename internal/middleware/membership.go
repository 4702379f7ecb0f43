package middleware

// membership.go gates organization-scoped routes. Every route mounted
// under /orgs/:orgID passes through OrgMembership, which verifies that
// the authenticated user belongs to the organization and stores the
// membership row in the context for handlers.

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
)

// Context keys set by OrgMembership.
const (
	CtxOrgID  = "org_id"
	CtxMember = "org_member"
)

// OrgMembership parses the :orgID path parameter, checks that the
// current user is a member and injects the org id and membership into
// the context. Non-members receive 403 without learning whether the
// organization exists.
func OrgMembership(orgs *repository.OrganizationRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			orgID, err := strconv.ParseUint(c.Param("orgID"), 10, 64)
			if err != nil || orgID == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid organization id"})
			}
			userID := UserIDFromContext(c)
			if userID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			member, err := orgs.GetMember(c.Request().Context(), orgID, userID)
			if err != nil {
				if errors.Is(err, repository.ErrForbidden) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of this organization"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
			}
			c.Set(CtxOrgID, orgID)
			c.Set(CtxMember, member)
			return next(c)
		}
	}
}

// RequireOrgAdmin rejects members whose role is not ADMIN. It must run
// after OrgMembership.
func RequireOrgAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			member, ok := c.Get(CtxMember).(model.OrganizationMember)
			if !ok || member.Role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
			}
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user's id, or zero when
// the request is unauthenticated. JWTAuth stores the subject claim as
// the string it was issued with.
func UserIDFromContext(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case string:
		id, _ := strconv.ParseUint(v, 10, 64)
		return id
	case float64:
		return uint64(v)
	case uint64:
		return v
	}
	return 0
}

// OrgIDFromContext returns the organization id set by OrgMembership.
func OrgIDFromContext(c echo.Context) uint64 {
	id, _ := c.Get(CtxOrgID).(uint64)
	return id
}

// MemberFromContext returns the membership row set by OrgMembership.
func MemberFromContext(c echo.Context) model.OrganizationMember {
	m, _ := c.Get(CtxMember).(model.OrganizationMember)
	return m
}
