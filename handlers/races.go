package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/orientraid/raidapi/models"
)

type createRaceRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Leisure     bool   `json:"leisure"`
	Categorized bool   `json:"categorized"`
}

// RaidRaces returns all races of a raid ordered by date.
func (h *Handler) RaidRaces(c echo.Context) error {
	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid raid id")
	}

	var races []models.Race
	err = h.db.NewSelect().Model(&races).
		Where("rc.raid_id = ?", raidID).
		OrderExpr("rc.date ASC, rc.name ASC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, races)
}

// CreateRace inserts a new race for a raid.
func (h *Handler) CreateRace(c echo.Context) error {
	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid raid id")
	}

	var req createRaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	if req.Leisure && req.Categorized {
		return echo.NewHTTPError(http.StatusBadRequest, "a leisure race cannot be categorized")
	}

	exists, err := h.db.NewSelect().Model((*models.Raid)(nil)).
		Where("raid_id = ?", raidID).
		Exists(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "raid not found")
	}

	race := &models.Race{
		RaidID:      raidID,
		Name:        req.Name,
		Date:        req.Date,
		Leisure:     req.Leisure,
		Categorized: req.Categorized,
	}
	if _, err := h.db.NewInsert().Model(race).Exec(c.Request().Context()); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
			return echo.NewHTTPError(http.StatusConflict, "race already exists for this raid")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, race)
}

// loadRace fetches a race by path param id.
func (h *Handler) loadRace(c echo.Context) (*models.Race, error) {
	raceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid race id")
	}

	race := &models.Race{}
	err = h.db.NewSelect().Model(race).
		Where("rc.race_id = ?", raceID).
		Scan(c.Request().Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "race not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return race, nil
}
