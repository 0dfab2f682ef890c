package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/orientraid/raidapi/eligibility"
	"github.com/orientraid/raidapi/models"
)

const dateLayout = "2006-01-02"

type createRaidRequest struct {
	Name            string `json:"name"`
	EditionYear     int    `json:"editionYear"`
	StartsOn        string `json:"startsOn"`
	EndsOn          string `json:"endsOn"`
	AgeMin          *int   `json:"ageMin"`
	AgeIntermediate *int   `json:"ageIntermediate"`
	AgeAdult        *int   `json:"ageAdult"`
}

// Raids returns all raids, newest edition first.
func (h *Handler) Raids(c echo.Context) error {
	var raids []models.Raid
	err := h.db.NewSelect().Model(&raids).
		OrderExpr("rd.edition_year DESC, rd.starts_on DESC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, raids)
}

// CreateRaid inserts a new raid, validating any per-raid threshold override.
func (h *Handler) CreateRaid(c echo.Context) error {
	var req createRaidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	starts, err := time.Parse(dateLayout, req.StartsOn)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startsOn must be YYYY-MM-DD")
	}
	ends, err := time.Parse(dateLayout, req.EndsOn)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "endsOn must be YYYY-MM-DD")
	}
	if ends.Before(starts) {
		return echo.NewHTTPError(http.StatusBadRequest, "endsOn is before startsOn")
	}
	if req.EditionYear == 0 {
		req.EditionYear = starts.Year()
	}

	// Threshold overrides are all-or-nothing so a raid never mixes its own
	// values with the system defaults.
	set := 0
	for _, p := range []*int{req.AgeMin, req.AgeIntermediate, req.AgeAdult} {
		if p != nil {
			set++
		}
	}
	if set != 0 && set != 3 {
		return echo.NewHTTPError(http.StatusBadRequest, "ageMin, ageIntermediate and ageAdult must be set together")
	}
	if set == 3 {
		t := eligibility.Thresholds{Min: *req.AgeMin, Intermediate: *req.AgeIntermediate, Adult: *req.AgeAdult}
		if err := t.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	raid := &models.Raid{
		Name:            req.Name,
		EditionYear:     req.EditionYear,
		StartsOn:        req.StartsOn,
		EndsOn:          req.EndsOn,
		AgeMin:          req.AgeMin,
		AgeIntermediate: req.AgeIntermediate,
		AgeAdult:        req.AgeAdult,
	}
	if _, err := h.db.NewInsert().Model(raid).Exec(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, raid)
}

// raidThresholds returns the eligibility thresholds for a raid: its own
// override when present, the configured defaults otherwise.
func (h *Handler) raidThresholds(ctx context.Context, raidID int) (eligibility.Thresholds, error) {
	raid := &models.Raid{}
	err := h.db.NewSelect().Model(raid).
		Where("raid_id = ?", raidID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return eligibility.Thresholds{}, echo.NewHTTPError(http.StatusNotFound, "raid not found")
		}
		return eligibility.Thresholds{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return thresholdsForRaid(raid, h.thresholds), nil
}

// thresholdsForRaid picks a raid's own threshold override when all three
// values are present, the given defaults otherwise. CreateRaid enforces
// all-or-nothing, so a partial override only occurs in hand-edited data
// and falls back to the defaults.
func thresholdsForRaid(raid *models.Raid, defaults eligibility.Thresholds) eligibility.Thresholds {
	if raid.AgeMin != nil && raid.AgeIntermediate != nil && raid.AgeAdult != nil {
		return eligibility.Thresholds{
			Min:          *raid.AgeMin,
			Intermediate: *raid.AgeIntermediate,
			Adult:        *raid.AgeAdult,
		}
	}
	return defaults
}
