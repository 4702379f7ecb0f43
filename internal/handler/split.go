package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/metrics"
	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/occupancy"
	"github.com/cabinbuddy/cabin-buddy/internal/queue"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
	queue_publisher "github.com/cabinbuddy/cabin-buddy/internal/service"
	"github.com/cabinbuddy/cabin-buddy/internal/split"
)

// SplitHandler orchestrates cost splits: it plans the row set from
// the request, writes all rows in one transaction and publishes a
// notification event per guest share. Replays of the same operation
// id return the originally committed rows.
type SplitHandler struct {
	DB           *sql.DB
	Orgs         *repository.OrganizationRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Splits       *repository.PaymentSplitRepo
	PublishEvent func(ctx context.Context, ev queue.SplitCreatedEvent) error
}

func NewSplitHandler(db *sql.DB, o *repository.OrganizationRepo, r *repository.ReservationRepo,
	p *repository.PaymentRepo, s *repository.PaymentSplitRepo) *SplitHandler {
	return &SplitHandler{
		DB: db, Orgs: o, Reservations: r, Payments: p, Splits: s,
		PublishEvent: queue_publisher.PublishSplitCreated,
	}
}

type splitUserReq struct {
	UserID         uint64               `json:"user_id"`
	FamilyGroup    string               `json:"family_group"`
	DisplayName    string               `json:"display_name"`
	Amount         float64              `json:"amount"`
	DailyOccupancy []model.DayOccupancy `json:"daily_occupancy"`
}

type createSplitReq struct {
	OperationID          string               `json:"operation_id"`
	ReservationID        string               `json:"reservation_id"`
	SourceAmount         float64              `json:"source_amount"`
	SourceDailyOccupancy []model.DayOccupancy `json:"source_daily_occupancy"`
	Users                []splitUserReq       `json:"users"`
	Description          string               `json:"description"`
}

type splitResp struct {
	OperationID     string   `json:"operation_id"`
	SourcePaymentID string   `json:"source_payment_id"`
	SplitPaymentIDs []string `json:"split_payment_ids"`
	SplitIDs        []string `json:"split_ids"`
	Replayed        bool     `json:"replayed"`
}

// Create executes a split. The operation id is client-generated; a
// retry with the same id returns the committed result instead of
// creating duplicate rows.
func (h *SplitHandler) Create(c echo.Context) error {
	var req createSplitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orgID := middleware.OrgIDFromContext(c)
	member := middleware.MemberFromContext(c)

	// Replay check before planning: an identical retry must succeed
	// even if the reservation's payment has since been replaced.
	if req.OperationID != "" {
		existing, err := h.Splits.ListByOperation(ctx, orgID, req.OperationID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup operation failed"})
		}
		if len(existing) > 0 {
			return c.JSON(http.StatusOK, replayResp(req.OperationID, existing))
		}
	}

	res, err := h.Reservations.GetByID(ctx, orgID, req.ReservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	original, err := h.Payments.GetByReservation(ctx, orgID, res.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found for reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
	}

	users := make([]split.User, 0, len(req.Users))
	for _, u := range req.Users {
		users = append(users, split.User{
			UserID:         u.UserID,
			FamilyGroup:    u.FamilyGroup,
			DisplayName:    u.DisplayName,
			Amount:         u.Amount,
			DailyOccupancy: u.DailyOccupancy,
		})
	}
	plan, err := split.BuildPlan(split.Request{
		OperationID:          req.OperationID,
		OrganizationID:       orgID,
		ReservationID:        res.ID,
		SourceFamilyGroup:    member.FamilyGroup,
		SourceUserID:         member.UserID,
		SourceAmount:         req.SourceAmount,
		SourceDailyOccupancy: req.SourceDailyOccupancy,
		Users:                users,
		Description:          req.Description,
		DateRange:            occupancy.Interval{Start: res.StartDate, End: res.EndDate},
		OriginalAmount:       original.Amount + original.ManualAdjustment,
		OriginalAmountPaid:   original.AmountPaid,
		OriginalAdjustment:   original.ManualAdjustment,
	})
	if err != nil {
		if errors.Is(err, split.ErrNotConserved) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	// The plan's source payment supersedes the original as the stay's
	// billing record, so it takes over the reservation link.
	plan.SourcePayment.ReservationID = res.ID

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin transaction failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Payments.DeleteTx(ctx, tx, orgID, original.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "replace payment failed"})
	}
	// Source payment first: guest rows must never be visible without it.
	if err := h.Payments.CreateTx(ctx, tx, &plan.SourcePayment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write source payment failed"})
	}
	for i := range plan.GuestPayments {
		if err := h.Payments.CreateTx(ctx, tx, &plan.GuestPayments[i]); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write guest payment failed"})
		}
	}
	for i := range plan.Splits {
		if err := h.Splits.CreateTx(ctx, tx, &plan.Splits[i]); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// A concurrent retry committed first; serve its rows.
				_ = tx.Rollback()
				committed = true
				existing, lookupErr := h.Splits.ListByOperation(ctx, orgID, req.OperationID)
				if lookupErr != nil || len(existing) == 0 {
					return c.JSON(http.StatusConflict, echo.Map{"error": "operation already in progress"})
				}
				return c.JSON(http.StatusOK, replayResp(req.OperationID, existing))
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write split failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	metrics.SplitsCreated.Inc()

	// Notifications ride the queue; a publish failure leaves the
	// split committed with its notification still pending.
	now := time.Now().UTC().Format(time.RFC3339)
	for i, s := range plan.Splits {
		ev := queue.SplitCreatedEvent{
			SplitID:           s.ID,
			OrganizationID:    orgID,
			OperationID:       s.OperationID,
			SourcePaymentID:   s.SourcePaymentID,
			SplitPaymentID:    s.SplitPaymentID,
			SourceFamilyGroup: s.SourceFamilyGroup,
			TargetFamilyGroup: s.SplitToFamilyGroup,
			TargetUserID:      s.SplitToUserID,
			Amount:            plan.GuestPayments[i].Amount,
			Description:       req.Description,
			CreatedAt:         now,
		}
		if err := h.PublishEvent(ctx, ev); err != nil {
			slog.Warn("split notification publish failed", "split_id", s.ID, "error", err)
		}
	}

	resp := splitResp{
		OperationID:     req.OperationID,
		SourcePaymentID: plan.SourcePayment.ID,
	}
	for _, p := range plan.GuestPayments {
		resp.SplitPaymentIDs = append(resp.SplitPaymentIDs, p.ID)
	}
	for _, s := range plan.Splits {
		resp.SplitIDs = append(resp.SplitIDs, s.ID)
	}
	return c.JSON(http.StatusCreated, resp)
}

func replayResp(operationID string, splits []model.PaymentSplit) splitResp {
	resp := splitResp{OperationID: operationID, Replayed: true}
	if len(splits) > 0 {
		resp.SourcePaymentID = splits[0].SourcePaymentID
	}
	for _, s := range splits {
		resp.SplitPaymentIDs = append(resp.SplitPaymentIDs, s.SplitPaymentID)
		resp.SplitIDs = append(resp.SplitIDs, s.ID)
	}
	return resp
}

// List returns the organization's split history.
func (h *SplitHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	splits, err := h.Splits.ListByOrg(ctx, middleware.OrgIDFromContext(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list splits failed"})
	}
	out := make([]echo.Map, 0, len(splits))
	for _, s := range splits {
		out = append(out, echo.Map{
			"id":                    s.ID,
			"operation_id":          s.OperationID,
			"source_payment_id":     s.SourcePaymentID,
			"split_payment_id":      s.SplitPaymentID,
			"source_family_group":   s.SourceFamilyGroup,
			"split_to_family_group": s.SplitToFamilyGroup,
			"notification_status":   s.NotificationStatus,
			"created_at":            s.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"splits": out})
}
