package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/metrics"
	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
	"github.com/cabinbuddy/cabin-buddy/internal/season"
)

// SeasonHandler serves season summaries and their CSV/XLSX exports.
type SeasonHandler struct {
	Orgs         *repository.OrganizationRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
}

func NewSeasonHandler(o *repository.OrganizationRepo, r *repository.ReservationRepo, p *repository.PaymentRepo) *SeasonHandler {
	return &SeasonHandler{Orgs: o, Reservations: r, Payments: p}
}

func (h *SeasonHandler) buildSummary(ctx context.Context, orgID uint64, year int) (season.Summary, error) {
	settings, err := h.Orgs.GetSettings(ctx, orgID)
	if err != nil {
		return season.Summary{}, err
	}
	cfg, _ := season.ResolveConfig(settings, year)

	groups, err := h.Orgs.ListFamilyGroups(ctx, orgID)
	if err != nil {
		return season.Summary{}, err
	}
	reservations, err := h.Reservations.ListBySeason(ctx, orgID, cfg.Start, cfg.End)
	if err != nil {
		return season.Summary{}, err
	}
	payments, err := h.Payments.ListByOrg(ctx, orgID)
	if err != nil {
		return season.Summary{}, err
	}
	return season.ComputeSummary(cfg, groups, reservations, payments), nil
}

func seasonYear(c echo.Context) (int, error) {
	raw := c.QueryParam("year")
	if raw == "" {
		return time.Now().UTC().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1970 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

// Summary computes the season summary. Per-family failures appear in
// the errors section without failing the whole response.
func (h *SeasonHandler) Summary(c echo.Context) error {
	year, err := seasonYear(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	summary, err := h.buildSummary(ctx, middleware.OrgIDFromContext(c), year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "compute summary failed"})
	}
	metrics.SeasonSummaries.WithLabelValues("json").Inc()
	return c.JSON(http.StatusOK, summary)
}

func exportOptions(c echo.Context) season.ExportOptions {
	flag := func(name string) bool {
		v := c.QueryParam(name)
		return v == "" || v == "1" || v == "true"
	}
	return season.ExportOptions{
		IncludeCharges:   flag("charges"),
		IncludePayments:  flag("payments"),
		IncludeOccupancy: flag("occupancy"),
	}
}

// Export writes the season summary as csv (default) or xlsx, selected
// by the format query parameter.
func (h *SeasonHandler) Export(c echo.Context) error {
	year, err := seasonYear(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	format := c.QueryParam("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "format must be csv or xlsx"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	summary, err := h.buildSummary(ctx, middleware.OrgIDFromContext(c), year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "compute summary failed"})
	}
	opts := exportOptions(c)

	var buf bytes.Buffer
	filename := fmt.Sprintf("season-%d.%s", year, format)
	contentType := "text/csv"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if err := season.WriteXLSX(&buf, summary, opts); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write xlsx failed"})
		}
	} else {
		if err := season.WriteCSV(&buf, summary, opts); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write csv failed"})
		}
	}

	metrics.SeasonSummaries.WithLabelValues(format).Inc()
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
