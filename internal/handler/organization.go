package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/billing"
	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
)

// OrganizationHandler serves organization management endpoints:
// creation, membership, settings and family groups.
type OrganizationHandler struct {
	Orgs  *repository.OrganizationRepo
	Users *repository.UserRepo
}

func NewOrganizationHandler(o *repository.OrganizationRepo, u *repository.UserRepo) *OrganizationHandler {
	return &OrganizationHandler{Orgs: o, Users: u}
}

type createOrgReq struct {
	Name        string `json:"name"`
	FamilyGroup string `json:"family_group"`
}

// Create registers a new organization with the caller as admin.
func (h *OrganizationHandler) Create(c echo.Context) error {
	var req createOrgReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	userID := middleware.UserIDFromContext(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID, err := h.Orgs.Create(ctx, req.Name, userID, strings.TrimSpace(req.FamilyGroup))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create organization failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": orgID, "name": strings.TrimSpace(req.Name)})
}

// ListMine returns the organizations the caller belongs to.
func (h *OrganizationHandler) ListMine(c echo.Context) error {
	userID := middleware.UserIDFromContext(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgs, err := h.Orgs.ListForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list organizations failed"})
	}
	out := make([]echo.Map, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, echo.Map{"id": o.ID, "name": o.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"organizations": out})
}

// GetSettings returns the organization's settings.
func (h *OrganizationHandler) GetSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	settings, err := h.Orgs.GetSettings(ctx, middleware.OrgIDFromContext(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "settings not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load settings failed"})
	}
	return c.JSON(http.StatusOK, settingsResp(settings))
}

type updateSettingsReq struct {
	SeasonStartMonth    int     `json:"season_start_month"`
	SeasonStartDay      int     `json:"season_start_day"`
	SeasonEndMonth      int     `json:"season_end_month"`
	SeasonEndDay        int     `json:"season_end_day"`
	PaymentDeadlineDays int     `json:"payment_deadline_days"`
	BillingMethod       string  `json:"billing_method"`
	BillingAmount       float64 `json:"billing_amount"`
	TaxRate             float64 `json:"tax_rate"`
	CleaningFee         float64 `json:"cleaning_fee"`
	PetFee              float64 `json:"pet_fee"`
	DamageDeposit       float64 `json:"damage_deposit"`
	SnapshotFrequency   string  `json:"snapshot_frequency"`
	SnapshotRetention   int     `json:"snapshot_retention"`
}

// UpdateSettings overwrites the organization's settings. Admin only.
func (h *OrganizationHandler) UpdateSettings(c echo.Context) error {
	var req updateSettingsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if _, err := billing.ParseMethod(req.BillingMethod); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown billing method"})
	}
	switch req.SnapshotFrequency {
	case model.SnapshotOff, model.SnapshotDaily, model.SnapshotWeekly, model.SnapshotBiweekly, model.SnapshotMonthly:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown snapshot frequency"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	settings := model.OrganizationSettings{
		OrganizationID:      middleware.OrgIDFromContext(c),
		SeasonStartMonth:    req.SeasonStartMonth,
		SeasonStartDay:      req.SeasonStartDay,
		SeasonEndMonth:      req.SeasonEndMonth,
		SeasonEndDay:        req.SeasonEndDay,
		PaymentDeadlineDays: req.PaymentDeadlineDays,
		BillingMethod:       req.BillingMethod,
		BillingAmount:       req.BillingAmount,
		TaxRate:             req.TaxRate,
		CleaningFee:         req.CleaningFee,
		PetFee:              req.PetFee,
		DamageDeposit:       req.DamageDeposit,
		SnapshotFrequency:   req.SnapshotFrequency,
		SnapshotRetention:   req.SnapshotRetention,
	}
	if err := h.Orgs.UpdateSettings(ctx, settings); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "settings not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update settings failed"})
	}
	return c.JSON(http.StatusOK, settingsResp(settings))
}

func settingsResp(s model.OrganizationSettings) echo.Map {
	return echo.Map{
		"season_start_month":    s.SeasonStartMonth,
		"season_start_day":      s.SeasonStartDay,
		"season_end_month":      s.SeasonEndMonth,
		"season_end_day":        s.SeasonEndDay,
		"payment_deadline_days": s.PaymentDeadlineDays,
		"billing_method":        s.BillingMethod,
		"billing_amount":        s.BillingAmount,
		"tax_rate":              s.TaxRate,
		"cleaning_fee":          s.CleaningFee,
		"pet_fee":               s.PetFee,
		"damage_deposit":        s.DamageDeposit,
		"snapshot_frequency":    s.SnapshotFrequency,
		"snapshot_retention":    s.SnapshotRetention,
	}
}

type addMemberReq struct {
	Email       string `json:"email"`
	FamilyGroup string `json:"family_group"`
	Role        string `json:"role"`
}

// AddMember registers an existing user account as a member. Admin only.
func (h *OrganizationHandler) AddMember(c echo.Context) error {
	var req addMemberReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleAdmin {
		role = model.RoleMember
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no account with that email"})
	}
	orgID := middleware.OrgIDFromContext(c)
	if err := h.Orgs.AddMember(ctx, orgID, u.ID, strings.TrimSpace(req.FamilyGroup), role); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already a member"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add member failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user_id": u.ID, "family_group": req.FamilyGroup, "role": role})
}

// ListFamilyGroups returns the organization's family groups.
func (h *OrganizationHandler) ListFamilyGroups(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	groups, err := h.Orgs.ListFamilyGroups(ctx, middleware.OrgIDFromContext(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list family groups failed"})
	}
	out := make([]echo.Map, 0, len(groups))
	for _, g := range groups {
		out = append(out, echo.Map{"id": g.ID, "name": g.Name, "rotation_order": g.RotationOrder})
	}
	return c.JSON(http.StatusOK, echo.Map{"family_groups": out})
}

type createFamilyGroupReq struct {
	Name          string `json:"name"`
	RotationOrder int    `json:"rotation_order"`
}

// CreateFamilyGroup adds a family group. Admin only.
func (h *OrganizationHandler) CreateFamilyGroup(c echo.Context) error {
	var req createFamilyGroupReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Orgs.CreateFamilyGroup(ctx, middleware.OrgIDFromContext(c), req.Name, req.RotationOrder)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "family group already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create family group failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": strings.TrimSpace(req.Name)})
}
