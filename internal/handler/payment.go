package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
)

// PaymentHandler serves payment reads and the three billing write
// operations: recording money received, adjusting the amount and
// toggling the billing lock.
type PaymentHandler struct {
	Payments *repository.PaymentRepo
}

func NewPaymentHandler(p *repository.PaymentRepo) *PaymentHandler {
	return &PaymentHandler{Payments: p}
}

type paymentResp struct {
	ID               string               `json:"id"`
	ReservationID    string               `json:"reservation_id,omitempty"`
	FamilyGroup      string               `json:"family_group"`
	Amount           float64              `json:"amount"`
	AmountPaid       float64              `json:"amount_paid"`
	Status           string               `json:"status"`
	BillingLocked    bool                 `json:"billing_locked"`
	ManualAdjustment float64              `json:"manual_adjustment"`
	Description      string               `json:"description"`
	Notes            string               `json:"notes,omitempty"`
	DailyOccupancy   []model.DayOccupancy `json:"daily_occupancy,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

func toPaymentResp(p model.Payment) paymentResp {
	return paymentResp{
		ID:               p.ID,
		ReservationID:    p.ReservationID,
		FamilyGroup:      p.FamilyGroup,
		Amount:           p.Amount,
		AmountPaid:       p.AmountPaid,
		Status:           p.Status,
		BillingLocked:    p.BillingLocked,
		ManualAdjustment: p.ManualAdjustment,
		Description:      p.Description,
		Notes:            p.Notes,
		DailyOccupancy:   p.DailyOccupancy,
		CreatedAt:        p.CreatedAt,
	}
}

// List returns all payments of the organization.
func (h *PaymentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payments, err := h.Payments.ListByOrg(ctx, middleware.OrgIDFromContext(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payments failed"})
	}
	out := make([]paymentResp, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

// Get returns one payment.
func (h *PaymentHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Payments.GetByID(ctx, middleware.OrgIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
	}
	return c.JSON(http.StatusOK, toPaymentResp(p))
}

type recordPaidReq struct {
	AmountReceived float64 `json:"amount_received"`
}

// RecordPaid adds money received to a payment's running total. Status
// moves to paid once the accumulated total covers the charge.
func (h *PaymentHandler) RecordPaid(c echo.Context) error {
	var req recordPaidReq
	if err := c.Bind(&req); err != nil || req.AmountReceived < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_received must be non-negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	p, err := h.Payments.GetByID(ctx, orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
	}

	total := p.AmountPaid + req.AmountReceived
	status := p.Status
	if total >= p.Amount+p.ManualAdjustment {
		status = model.PaymentPaid
	} else if status == model.PaymentPaid {
		status = model.PaymentPending
	}
	if err := h.Payments.RecordPaid(ctx, orgID, p.ID, total, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}
	p.AmountPaid = total
	p.Status = status
	return c.JSON(http.StatusOK, toPaymentResp(p))
}

type paymentStatusReq struct {
	Status string `json:"status"`
}

// SetStatus moves a payment between pending and deferred. Paid is
// reached only by recording money, never set directly.
func (h *PaymentHandler) SetStatus(c echo.Context) error {
	var req paymentStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != model.PaymentPending && req.Status != model.PaymentDeferred {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending or deferred"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	if err := h.Payments.SetStatus(ctx, orgID, c.Param("id"), req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "status": req.Status})
}

type adjustReq struct {
	ManualAdjustment float64 `json:"manual_adjustment"`
}

// Adjust sets the manual adjustment. The stored amount is the
// computed charge and never includes the adjustment; read paths add
// the two together. Locked payments reject adjustment changes.
func (h *PaymentHandler) Adjust(c echo.Context) error {
	var req adjustReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	p, err := h.Payments.GetByID(ctx, orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
	}
	if p.BillingLocked {
		return c.JSON(http.StatusConflict, echo.Map{"error": "billing is locked; unlock before adjusting"})
	}

	if err := h.Payments.SetManualAdjustment(ctx, orgID, p.ID, req.ManualAdjustment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update adjustment failed"})
	}
	p.ManualAdjustment = req.ManualAdjustment
	return c.JSON(http.StatusOK, toPaymentResp(p))
}

type lockReq struct {
	Locked bool `json:"locked"`
}

// SetLock toggles the billing lock, freezing or unfreezing the amount.
func (h *PaymentHandler) SetLock(c echo.Context) error {
	var req lockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	if err := h.Payments.SetBillingLock(ctx, orgID, c.Param("id"), req.Locked); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update lock failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "billing_locked": req.Locked})
}
