package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/billing"
	"github.com/cabinbuddy/cabin-buddy/internal/metrics"
	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/occupancy"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
	"github.com/cabinbuddy/cabin-buddy/internal/season"
)

// OccupancyHandler syncs per-day guest counts onto a reservation's
// payment and recomputes the charge unless billing is locked.
type OccupancyHandler struct {
	Orgs         *repository.OrganizationRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Splits       *repository.PaymentSplitRepo
}

func NewOccupancyHandler(o *repository.OrganizationRepo, r *repository.ReservationRepo,
	p *repository.PaymentRepo, s *repository.PaymentSplitRepo) *OccupancyHandler {
	return &OccupancyHandler{Orgs: o, Reservations: r, Payments: p, Splits: s}
}

type syncOccupancyReq struct {
	Entries []model.DayOccupancy `json:"entries"`
}

type syncOccupancyResp struct {
	PaymentID     string               `json:"payment_id"`
	Amount        float64              `json:"amount"`
	BillingLocked bool                 `json:"billing_locked"`
	Entries       []model.DayOccupancy `json:"entries"`
	Warning       string               `json:"warning,omitempty"`
}

// Sync replaces the occupancy table of a reservation's payment. When
// the payment is billing locked the roster is stored but the amount
// stays frozen and the response carries a warning.
func (h *OccupancyHandler) Sync(c echo.Context) error {
	var req syncOccupancyReq
	if err := c.Bind(&req); err != nil {
		metrics.OccupancySyncs.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	res, err := h.Reservations.GetByID(ctx, orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}

	iv := occupancy.Interval{Start: res.StartDate, End: res.EndDate}
	if err := occupancy.Validate(req.Entries, iv); err != nil {
		metrics.OccupancySyncs.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	payment, err := h.Payments.GetByReservation(ctx, orgID, res.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found for reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
	}

	if payment.BillingLocked {
		if err := h.Payments.UpdateOccupancyOnly(ctx, orgID, payment.ID, req.Entries); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store occupancy failed"})
		}
		metrics.OccupancySyncs.WithLabelValues("locked").Inc()
		return c.JSON(http.StatusOK, syncOccupancyResp{
			PaymentID:     payment.ID,
			Amount:        payment.Amount,
			BillingLocked: true,
			Entries:       req.Entries,
			Warning:       "billing is locked; occupancy stored but the amount was not recomputed",
		})
	}

	settings, err := h.Orgs.GetSettings(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load settings failed"})
	}
	cfg, cfgErr := season.ResolveConfig(settings, res.StartDate.Year())
	if cfgErr != nil && !errors.Is(cfgErr, billing.ErrUnknownMethod) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve billing config failed"})
	}

	// The stored amount is the computed charge only; the manual
	// adjustment lives in its own column and is added on read.
	charge := billing.CalculateFromDailyOccupancy(cfg.Billing, occupancy.ToMap(req.Entries), iv.Nights())
	amount := charge.Total

	if err := h.Payments.UpdateOccupancyAndAmount(ctx, orgID, payment.ID, req.Entries, amount); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.OccupancySyncs.WithLabelValues("locked").Inc()
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment was locked concurrently"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store occupancy failed"})
	}

	metrics.OccupancySyncs.WithLabelValues("updated").Inc()
	resp := syncOccupancyResp{
		PaymentID: payment.ID,
		Amount:    amount,
		Entries:   req.Entries,
	}
	if cfgErr != nil {
		resp.Warning = "billing method not recognized; charged per person per day"
	}
	return c.JSON(http.StatusOK, resp)
}

// SyncSplit replaces the occupancy roster on a split's guest payment.
// The guest's share was agreed when the split was made, so the amount
// is never recomputed here. Dates are checked against the source
// payment's stay when that payment is still linked to a reservation.
func (h *OccupancyHandler) SyncSplit(c echo.Context) error {
	var req syncOccupancyReq
	if err := c.Bind(&req); err != nil {
		metrics.OccupancySyncs.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	sp, err := h.Splits.GetByID(ctx, orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "split not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load split failed"})
	}

	if err := occupancy.ValidateEntries(req.Entries); err != nil {
		metrics.OccupancySyncs.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	if source, err := h.Payments.GetByID(ctx, orgID, sp.SourcePaymentID); err == nil && source.ReservationID != "" {
		if res, err := h.Reservations.GetByID(ctx, orgID, source.ReservationID); err == nil {
			iv := occupancy.Interval{Start: res.StartDate, End: res.EndDate}
			if err := occupancy.Validate(req.Entries, iv); err != nil {
				metrics.OccupancySyncs.WithLabelValues("rejected").Inc()
				return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
			}
		}
	}

	guest, err := h.Payments.GetByID(ctx, orgID, sp.SplitPaymentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load split payment failed"})
	}
	if err := h.Payments.UpdateOccupancyOnly(ctx, orgID, guest.ID, req.Entries); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store occupancy failed"})
	}
	metrics.OccupancySyncs.WithLabelValues("updated").Inc()
	return c.JSON(http.StatusOK, syncOccupancyResp{
		PaymentID:     guest.ID,
		Amount:        guest.Amount,
		BillingLocked: guest.BillingLocked,
		Entries:       req.Entries,
	})
}

// LockStatus reports whether the reservation's billing is frozen.
func (h *OccupancyHandler) LockStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	res, err := h.Reservations.GetByID(ctx, orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	payment, err := h.Payments.GetByReservation(ctx, orgID, res.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found for reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"payment_id":     payment.ID,
		"billing_locked": payment.BillingLocked,
		"amount":         payment.Amount,
	})
}
