package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/occupancy"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
)

// ReservationHandler serves reservation CRUD. Creating a reservation
// also creates its billing payment, which starts at zero and is
// recomputed when occupancy data arrives.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
}

func NewReservationHandler(r *repository.ReservationRepo, p *repository.PaymentRepo) *ReservationHandler {
	return &ReservationHandler{Reservations: r, Payments: p}
}

type reservationReq struct {
	FamilyGroup string `json:"family_group"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	GuestCount  int    `json:"guest_count"`
	Status      string `json:"status"`
}

type reservationResp struct {
	ID          string `json:"id"`
	FamilyGroup string `json:"family_group"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	GuestCount  int    `json:"guest_count"`
	Nights      int    `json:"nights"`
	PaymentID   string `json:"payment_id,omitempty"`
}

func toReservationResp(r model.Reservation, paymentID string) reservationResp {
	return reservationResp{
		ID:          r.ID,
		FamilyGroup: r.FamilyGroup,
		StartDate:   r.StartDate.Format(occupancy.DateLayout),
		EndDate:     r.EndDate.Format(occupancy.DateLayout),
		Status:      r.Status,
		GuestCount:  r.GuestCount,
		Nights:      r.Nights(),
		PaymentID:   paymentID,
	}
}

func parseReservationReq(req reservationReq) (model.Reservation, error) {
	iv, err := occupancy.NewInterval(req.StartDate, req.EndDate)
	if err != nil {
		return model.Reservation{}, err
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case "":
		status = model.ReservationPending
	case model.ReservationPending, model.ReservationConfirmed, model.ReservationCancelled, model.ReservationCompleted:
	default:
		return model.Reservation{}, fmt.Errorf("unknown status %q", status)
	}
	if req.GuestCount < 0 {
		return model.Reservation{}, errors.New("guest_count must not be negative")
	}
	if strings.TrimSpace(req.FamilyGroup) == "" {
		return model.Reservation{}, errors.New("family_group required")
	}
	return model.Reservation{
		FamilyGroup: strings.TrimSpace(req.FamilyGroup),
		StartDate:   iv.Start,
		EndDate:     iv.End,
		Status:      status,
		GuestCount:  req.GuestCount,
	}, nil
}

// Create inserts a reservation and its zero-amount billing payment.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := parseReservationReq(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res.ID = uuid.NewString()
	res.OrganizationID = middleware.OrgIDFromContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reservations.Create(ctx, &res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}

	payment := model.Payment{
		ID:             uuid.NewString(),
		OrganizationID: res.OrganizationID,
		ReservationID:  res.ID,
		FamilyGroup:    res.FamilyGroup,
		Status:         model.PaymentPending,
		Description: fmt.Sprintf("Stay %s to %s",
			res.StartDate.Format(occupancy.DateLayout), res.EndDate.Format(occupancy.DateLayout)),
	}
	if err := h.Payments.Create(ctx, &payment); err != nil {
		// Roll the reservation back so the two rows stay paired.
		_ = h.Reservations.Delete(ctx, res.OrganizationID, res.ID)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
	}

	return c.JSON(http.StatusCreated, toReservationResp(res, payment.ID))
}

// List returns the organization's reservations, optionally bounded by
// from/to query parameters (yyyy-mm-dd).
func (h *ReservationHandler) List(c echo.Context) error {
	var from, to time.Time
	if f, t := c.QueryParam("from"), c.QueryParam("to"); f != "" && t != "" {
		iv, err := occupancy.NewInterval(f, t)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from/to range"})
		}
		from, to = iv.Start, iv.End
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByOrg(ctx, middleware.OrgIDFromContext(c), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	out := make([]reservationResp, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResp(r, ""))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Get returns one reservation with its payment id.
func (h *ReservationHandler) Get(c echo.Context) error {
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
	paymentID := ""
	if p, err := h.Payments.GetByReservation(ctx, orgID, res.ID); err == nil {
		paymentID = p.ID
	}
	return c.JSON(http.StatusOK, toReservationResp(res, paymentID))
}

// Update rewrites a reservation's fields.
func (h *ReservationHandler) Update(c echo.Context) error {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	parsed, err := parseReservationReq(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
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

	res.FamilyGroup = parsed.FamilyGroup
	res.StartDate = parsed.StartDate
	res.EndDate = parsed.EndDate
	res.Status = parsed.Status
	res.GuestCount = parsed.GuestCount
	if err := h.Reservations.Update(ctx, &res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reservation failed"})
	}
	return c.JSON(http.StatusOK, toReservationResp(res, ""))
}

// Delete removes a reservation. Reservations with a payment return 409.
func (h *ReservationHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Reservations.Delete(ctx, middleware.OrgIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation has a payment; cancel it instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete reservation failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
