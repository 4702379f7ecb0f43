package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cabinbuddy/cabin-buddy/internal/handler"    // import the handlers that implement business logic
	"github.com/cabinbuddy/cabin-buddy/internal/middleware" // import middleware for JWT authentication and tenancy enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check used by load balancers and the
// Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session.  Each of these
	// handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token in the body (single session)
	// or a bearer access token (all sessions), so it applies no middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// OrgDeps bundles everything the organization-scoped routes need.  Cache
// and RateLimit are optional middleware; a nil entry is skipped so the
// service still runs when Redis is unavailable.
type OrgDeps struct {
	JWTSecret string
	Orgs      *handler.OrganizationHandler
	Rsv       *handler.ReservationHandler
	Occ       *handler.OccupancyHandler
	Pay       *handler.PaymentHandler
	Split     *handler.SplitHandler
	Season    *handler.SeasonHandler
	Snap      *handler.SnapshotHandler
	Rot       *handler.RotationHandler

	Membership echo.MiddlewareFunc
	Cache      echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
}

// RegisterOrgs registers organization management plus every org-scoped
// resource.  Everything under /v1/orgs/:orgID passes the membership
// middleware, which resolves the caller's role inside that organization;
// mutation of shared configuration additionally requires the ADMIN role.
func RegisterOrgs(e *echo.Echo, d OrgDeps) {
	// Organization management needs a valid token but no membership,
	// since creating a first organization is how membership begins.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(d.JWTSecret))
	if d.RateLimit != nil {
		v1.Use(d.RateLimit)
	}
	v1.POST("/orgs", d.Orgs.Create)
	v1.GET("/orgs", d.Orgs.ListMine)

	org := v1.Group("/orgs/:orgID")
	org.Use(d.Membership)

	admin := middleware.RequireOrgAdmin()

	org.GET("/settings", d.Orgs.GetSettings)
	org.PUT("/settings", d.Orgs.UpdateSettings, admin)
	org.GET("/family-groups", d.Orgs.ListFamilyGroups)
	org.POST("/family-groups", d.Orgs.CreateFamilyGroup, admin)
	org.POST("/members", d.Orgs.AddMember, admin)

	org.POST("/reservations", d.Rsv.Create)
	org.GET("/reservations", d.Rsv.List)
	org.GET("/reservations/:id", d.Rsv.Get)
	org.PUT("/reservations/:id", d.Rsv.Update)
	org.DELETE("/reservations/:id", d.Rsv.Delete)
	org.PUT("/reservations/:id/occupancy", d.Occ.Sync)
	org.GET("/reservations/:id/billing-lock", d.Occ.LockStatus)

	org.GET("/payments", d.Pay.List)
	org.GET("/payments/:id", d.Pay.Get)
	org.POST("/payments/:id/paid", d.Pay.RecordPaid)
	org.POST("/payments/:id/adjust", d.Pay.Adjust)
	org.POST("/payments/:id/lock", d.Pay.SetLock)
	org.POST("/payments/:id/status", d.Pay.SetStatus)

	org.POST("/splits", d.Split.Create)
	org.GET("/splits", d.Split.List)
	org.PUT("/splits/:id/occupancy", d.Occ.SyncSplit)

	// The season summary is read-heavy and safe to cache briefly; the
	// cache key includes the full route and query, so tenants never see
	// each other's entries.
	if d.Cache != nil {
		org.GET("/season/summary", d.Season.Summary, d.Cache)
	} else {
		org.GET("/season/summary", d.Season.Summary)
	}
	org.GET("/season/export", d.Season.Export)

	org.POST("/snapshots", d.Snap.Create)
	org.GET("/snapshots", d.Snap.List)
	org.GET("/snapshots/:id/preview", d.Snap.Preview)
	org.POST("/snapshots/:id/restore", d.Snap.Restore, admin)
	org.DELETE("/snapshots/:id", d.Snap.Delete, admin)

	org.GET("/selection-periods", d.Rot.ListPeriods)
	org.POST("/selection-periods", d.Rot.CreatePeriod, admin)
	org.POST("/selection-periods/extend", d.Rot.Extend, admin)
	org.GET("/selection-periods/extensions", d.Rot.ListExtensions)
}
