package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/orientraid/raidapi/models"
	"github.com/orientraid/raidapi/scoring"
)

type createCategoryRequest struct {
	Name   string `json:"name"`
	AgeMin int    `json:"ageMin"`
	AgeMax *int   `json:"ageMax"`
}

// Categories returns all age categories ordered by bracket.
func (h *Handler) Categories(c echo.Context) error {
	var cats []models.AgeCategory
	err := h.db.NewSelect().Model(&cats).
		OrderExpr("ac.age_min ASC").
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cats)
}

// CreateCategory inserts a new age category after checking it does not
// overlap an existing bracket.
func (h *Handler) CreateCategory(c echo.Context) error {
	var req createCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.AgeMin < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ageMin must not be negative")
	}
	if req.AgeMax != nil && *req.AgeMax < req.AgeMin {
		return echo.NewHTTPError(http.StatusBadRequest, "ageMax is below ageMin")
	}

	var existing []models.AgeCategory
	err := h.db.NewSelect().Model(&existing).Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	for _, e := range existing {
		if overlaps(req.AgeMin, req.AgeMax, e.AgeMin, e.AgeMax) {
			return echo.NewHTTPError(http.StatusConflict, "bracket overlaps category "+e.Name)
		}
	}

	cat := &models.AgeCategory{Name: req.Name, AgeMin: req.AgeMin, AgeMax: req.AgeMax}
	if _, err := h.db.NewInsert().Model(cat).Exec(c.Request().Context()); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
			return echo.NewHTTPError(http.StatusConflict, "category already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, cat)
}

// overlaps reports whether the [minA, maxA] and [minB, maxB] brackets
// intersect; a nil max means open-ended.
func overlaps(minA int, maxA *int, minB int, maxB *int) bool {
	if maxA != nil && *maxA < minB {
		return false
	}
	if maxB != nil && *maxB < minA {
		return false
	}
	return true
}

// loadScoringCategories returns all brackets in scoring form.
func (h *Handler) loadScoringCategories(ctx context.Context) ([]scoring.Category, error) {
	var cats []models.AgeCategory
	err := h.db.NewSelect().Model(&cats).
		OrderExpr("ac.age_min ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]scoring.Category, len(cats))
	for i, c := range cats {
		out[i] = scoring.Category{
			ID:     c.CategoryID,
			Name:   c.Name,
			AgeMin: c.AgeMin,
			AgeMax: c.AgeMax,
		}
	}
	return out, nil
}
