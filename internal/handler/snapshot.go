package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cabinbuddy/cabin-buddy/internal/metrics"
	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
	"github.com/cabinbuddy/cabin-buddy/internal/snapshot"
)

// SnapshotHandler serves manual snapshot creation, listing, the
// two-phase restore (preview then confirm) and deletion.
type SnapshotHandler struct {
	Snapshots *repository.SnapshotRepo
	Service   *snapshot.Service
}

func NewSnapshotHandler(repo *repository.SnapshotRepo, svc *snapshot.Service) *SnapshotHandler {
	return &SnapshotHandler{Snapshots: repo, Service: svc}
}

type createSnapshotReq struct {
	SeasonYear int `json:"season_year"`
}

// Create takes a manual snapshot of the given season.
func (h *SnapshotHandler) Create(c echo.Context) error {
	var req createSnapshotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SeasonYear == 0 {
		req.SeasonYear = time.Now().UTC().Year()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	meta, err := h.Service.Create(ctx, middleware.OrgIDFromContext(c), req.SeasonYear,
		model.SnapshotManual, middleware.UserIDFromContext(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create snapshot failed"})
	}
	metrics.SnapshotsCreated.WithLabelValues(model.SnapshotManual).Inc()
	return c.JSON(http.StatusCreated, snapshotResp(meta))
}

// List returns snapshot metadata, optionally filtered by year.
func (h *SnapshotHandler) List(c echo.Context) error {
	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		year = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	snaps, err := h.Snapshots.ListByOrg(ctx, middleware.OrgIDFromContext(c), year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list snapshots failed"})
	}
	out := make([]echo.Map, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, snapshotResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"snapshots": out})
}

func snapshotResp(s model.SnapshotMeta) echo.Map {
	return echo.Map{
		"id":          s.ID,
		"backup_type": s.BackupType,
		"file_size":   s.FileSize,
		"source":      s.Source,
		"season_year": s.SeasonYear,
		"created_by":  s.CreatedBy,
		"created_at":  s.CreatedAt,
	}
}

// Preview returns a snapshot's metadata and summary so the caller can
// inspect what a restore would bring back. First phase of restore.
func (h *SnapshotHandler) Preview(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	doc, err := h.Service.Preview(ctx, middleware.OrgIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "snapshot not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "snapshot belongs to another organization"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load snapshot failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"metadata": doc.Metadata, "summary": doc.Summary})
}

type restoreReq struct {
	Confirm bool   `json:"confirm"`
	Scope   string `json:"scope"`
}

// Restore replaces the season's records with the snapshot's contents.
// Requires confirm: true; a pre-restore snapshot is taken first and
// its id is returned. Scope narrows the swap to payments_only or
// reservations_only (default full). Admin only.
func (h *SnapshotHandler) Restore(c echo.Context) error {
	var req restoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !req.Confirm {
		return c.JSON(http.StatusConflict, echo.Map{"error": "restore requires confirm: true; use the preview endpoint to inspect first"})
	}
	if req.Scope == "" {
		req.Scope = repository.ScopeFull
	}
	switch req.Scope {
	case repository.ScopeFull, repository.ScopePaymentsOnly, repository.ScopeReservationsOnly:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scope must be full, payments_only or reservations_only"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	preRestore, err := h.Service.Restore(ctx, middleware.OrgIDFromContext(c), c.Param("id"),
		req.Scope, middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "snapshot not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "snapshot belongs to another organization"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "restore failed"})
	}
	metrics.SnapshotsRestored.Inc()
	return c.JSON(http.StatusOK, echo.Map{
		"restored_from":        c.Param("id"),
		"scope":                req.Scope,
		"pre_restore_snapshot": snapshotResp(preRestore),
	})
}

// Delete removes a snapshot and its stored document. Admin only.
func (h *SnapshotHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	err := h.Service.Delete(ctx, middleware.OrgIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "snapshot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete snapshot failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
