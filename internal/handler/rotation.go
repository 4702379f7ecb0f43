package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/occupancy"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
	"github.com/cabinbuddy/cabin-buddy/internal/rotation"
)

// RotationHandler manages the rotation calendar: selection periods
// and the extension cascade that pushes later windows back when one
// family group's window is lengthened.
type RotationHandler struct {
	Periods *repository.SelectionPeriodRepo
}

func NewRotationHandler(p *repository.SelectionPeriodRepo) *RotationHandler {
	return &RotationHandler{Periods: p}
}

func rotationYear(c echo.Context) (int, error) {
	raw := c.QueryParam("year")
	if raw == "" {
		return time.Now().UTC().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid year")
	}
	return year, nil
}

type periodResp struct {
	ID          uint64 `json:"id"`
	FamilyGroup string `json:"family_group"`
	Position    int    `json:"position"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func toPeriodResp(p model.SelectionPeriod) periodResp {
	return periodResp{
		ID:          p.ID,
		FamilyGroup: p.FamilyGroup,
		Position:    p.Position,
		StartDate:   p.StartDate.Format(occupancy.DateLayout),
		EndDate:     p.EndDate.Format(occupancy.DateLayout),
	}
}

// ListPeriods returns the rotation year's selection windows in order.
func (h *RotationHandler) ListPeriods(c echo.Context) error {
	year, err := rotationYear(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	periods, err := h.Periods.ListByYear(ctx, middleware.OrgIDFromContext(c), year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list periods failed"})
	}
	out := make([]periodResp, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"rotation_year": year, "periods": out})
}

type createPeriodReq struct {
	RotationYear int    `json:"rotation_year"`
	FamilyGroup  string `json:"family_group"`
	Position     int    `json:"position"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// CreatePeriod adds a selection window to the rotation calendar. Admin only.
func (h *RotationHandler) CreatePeriod(c echo.Context) error {
	var req createPeriodReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.FamilyGroup) == "" || req.RotationYear == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rotation_year and family_group required"})
	}
	iv, err := occupancy.NewInterval(req.StartDate, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	period := model.SelectionPeriod{
		OrganizationID: middleware.OrgIDFromContext(c),
		RotationYear:   req.RotationYear,
		FamilyGroup:    strings.TrimSpace(req.FamilyGroup),
		Position:       req.Position,
		StartDate:      iv.Start,
		EndDate:        iv.End,
	}
	if err := h.Periods.Create(ctx, &period); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "position already taken for that year"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create period failed"})
	}
	return c.JSON(http.StatusCreated, toPeriodResp(period))
}

type extendReq struct {
	RotationYear  int    `json:"rotation_year"`
	FamilyGroup   string `json:"family_group"`
	ExtendedUntil string `json:"extended_until"`
	Reason        string `json:"reason"`
}

// Extend lengthens one family group's selection window and shifts all
// later windows by the same number of days, in one transaction. Admin
// only.
func (h *RotationHandler) Extend(c echo.Context) error {
	var req extendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	until, err := time.Parse(occupancy.DateLayout, req.ExtendedUntil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid extended_until date"})
	}
	if req.RotationYear == 0 || strings.TrimSpace(req.FamilyGroup) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rotation_year and family_group required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	tx, err := h.Periods.BeginTx(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin transaction failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	periods, err := h.Periods.ListByYearTx(ctx, tx, orgID, req.RotationYear)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load periods failed"})
	}
	idx := -1
	for i, p := range periods {
		if p.FamilyGroup == strings.TrimSpace(req.FamilyGroup) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no selection period for that family group"})
	}
	target := periods[idx]
	deltaDays := int(until.Sub(target.EndDate).Hours() / 24)
	if deltaDays <= 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "extended_until must be after the current end date"})
	}

	shifted := rotation.ShiftSubsequentPeriods(periods, idx, deltaDays)
	for _, p := range shifted[idx:] {
		if err := h.Periods.UpdateDatesTx(ctx, tx, p); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update period failed"})
		}
	}

	ext := model.SelectionPeriodExtension{
		OrganizationID:  orgID,
		RotationYear:    req.RotationYear,
		FamilyGroup:     target.FamilyGroup,
		OriginalEndDate: target.EndDate,
		ExtendedUntil:   until,
		Reason:          strings.TrimSpace(req.Reason),
	}
	if err := h.Periods.CreateExtensionTx(ctx, tx, &ext); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record extension failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	out := make([]periodResp, 0, len(shifted))
	for _, p := range shifted {
		out = append(out, toPeriodResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"extension_id": ext.ID,
		"shifted_days": deltaDays,
		"periods":      out,
	})
}

// ListExtensions returns the extension history for a rotation year.
func (h *RotationHandler) ListExtensions(c echo.Context) error {
	year, err := rotationYear(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exts, err := h.Periods.ListExtensions(ctx, middleware.OrgIDFromContext(c), year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list extensions failed"})
	}
	out := make([]echo.Map, 0, len(exts))
	for _, e := range exts {
		out = append(out, echo.Map{
			"id":                e.ID,
			"family_group":      e.FamilyGroup,
			"original_end_date": e.OriginalEndDate.Format(occupancy.DateLayout),
			"extended_until":    e.ExtendedUntil.Format(occupancy.DateLayout),
			"reason":            e.Reason,
			"created_at":        e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"rotation_year": year, "extensions": out})
}
