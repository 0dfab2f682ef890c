package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/orientraid/raidapi/models"
)

const (
	defaultPerPage = 25
	maxPerPage     = 100
)

// pageParams reads page/perPage query params with sane bounds.
func pageParams(c echo.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.QueryParam("perPage"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

type pagedResponse struct {
	Rows    interface{} `json:"rows"`
	Page    int         `json:"page"`
	PerPage int         `json:"perPage"`
	Total   int         `json:"total"`
}

type individualLeaderboardRow struct {
	UserID       int     `bun:"user_id" json:"userID"`
	FirstName    string  `bun:"first_name" json:"firstName"`
	LastName     string  `bun:"last_name" json:"lastName"`
	TotalSeconds float64 `bun:"total_seconds" json:"totalSeconds"`
	MalusSeconds float64 `bun:"malus_seconds" json:"malusSeconds"`
	FinalSeconds float64 `bun:"final_seconds" json:"finalSeconds"`
	Rank         int     `bun:"rank" json:"rank"`
}

// loadIndividualRows runs the individual leaderboard projection. Only
// members flagged public are visible; limit < 0 disables pagination.
func (h *Handler) loadIndividualRows(ctx context.Context, raceID int, search string, limit, offset int) ([]individualLeaderboardRow, int, error) {
	q := h.db.NewSelect().
		TableExpr("time_records tr").
		ColumnExpr(`tr.user_id, u.first_name, u.last_name,
			tr.total_seconds, tr.malus_seconds,
			tr.total_seconds + tr.malus_seconds AS final_seconds, tr.rank`).
		Join("INNER JOIN users u ON u.id = tr.user_id").
		Where("tr.race_id = ?", raceID).
		Where("u.public")

	if search != "" {
		pattern := fmt.Sprintf("%%%s%%", search)
		q = q.Where("(u.first_name ILIKE ? OR u.last_name ILIKE ?)", pattern, pattern)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	q = q.OrderExpr("tr.rank ASC, u.last_name ASC, u.first_name ASC")
	if limit >= 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var rows []individualLeaderboardRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// IndividualLeaderboard returns the paginated individual leaderboard for
// a race, optionally filtered by name substring.
func (h *Handler) IndividualLeaderboard(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}

	page, perPage := pageParams(c)
	rows, total, err := h.loadIndividualRows(c.Request().Context(), race.RaceID,
		c.QueryParam("search"), perPage, (page-1)*perPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, pagedResponse{Rows: rows, Page: page, PerPage: perPage, Total: total})
}

type teamLeaderboardRow struct {
	TeamID              int     `bun:"team_id" json:"teamID"`
	Team                string  `bun:"team" json:"team"`
	Category            *string `bun:"category" json:"category,omitempty"`
	AgeCategoryID       *int    `bun:"age_category_id" json:"ageCategoryID,omitempty"`
	MemberCount         int     `bun:"member_count" json:"memberCount"`
	AverageTimeSeconds  float64 `bun:"average_time_seconds" json:"averageTimeSeconds"`
	AverageMalusSeconds float64 `bun:"average_malus_seconds" json:"averageMalusSeconds"`
	AverageFinalSeconds float64 `bun:"average_final_seconds" json:"averageFinalSeconds"`
	Points              int     `bun:"points" json:"points"`
	Rank                int     `bun:"rank" json:"rank"`
}

func (h *Handler) loadTeamRows(ctx context.Context, raceID int, search, categoryID string, limit, offset int) ([]teamLeaderboardRow, int, error) {
	q := h.db.NewSelect().
		TableExpr("team_leaderboard tl").
		ColumnExpr(`tl.team_id, t.name AS team, ac.name AS category, tl.age_category_id,
			tl.member_count, tl.average_time_seconds, tl.average_malus_seconds,
			tl.average_final_seconds, tl.points, tl.rank`).
		Join("INNER JOIN teams t ON t.team_id = tl.team_id").
		Join("LEFT JOIN age_categories ac ON ac.category_id = tl.age_category_id").
		Where("tl.race_id = ?", raceID)

	if search != "" {
		q = q.Where("t.name ILIKE ?", fmt.Sprintf("%%%s%%", search))
	}
	if categoryID != "" {
		q = q.Where("tl.age_category_id = ?", categoryID)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	q = q.OrderExpr("ac.age_min ASC NULLS FIRST, tl.rank ASC, t.name ASC")
	if limit >= 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var rows []teamLeaderboardRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// TeamLeaderboard returns the paginated team leaderboard for a race,
// optionally filtered by team name and age category.
func (h *Handler) TeamLeaderboard(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}

	page, perPage := pageParams(c)
	rows, total, err := h.loadTeamRows(c.Request().Context(), race.RaceID,
		c.QueryParam("search"), c.QueryParam("categoryID"), perPage, (page-1)*perPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, pagedResponse{Rows: rows, Page: page, PerPage: perPage, Total: total})
}

func csvResponse(c echo.Context, race *models.Race, kind string) *csv.Writer {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-%s-%s.csv"`, race.Date, race.Name, kind))
	c.Response().WriteHeader(http.StatusOK)
	return csv.NewWriter(c.Response())
}

var individualCSVHeader = []string{"rank", "first_name", "last_name", "total_seconds", "malus_seconds", "final_seconds"}

func individualCSVRecord(r individualLeaderboardRow) []string {
	return []string{
		strconv.Itoa(r.Rank),
		r.FirstName,
		r.LastName,
		strconv.FormatFloat(r.TotalSeconds, 'f', 2, 64),
		strconv.FormatFloat(r.MalusSeconds, 'f', 2, 64),
		strconv.FormatFloat(r.FinalSeconds, 'f', 2, 64),
	}
}

// IndividualLeaderboardCSV exports the full individual leaderboard.
func (h *Handler) IndividualLeaderboardCSV(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}

	rows, _, err := h.loadIndividualRows(c.Request().Context(), race.RaceID,
		c.QueryParam("search"), -1, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	w := csvResponse(c, race, "individual")
	_ = w.Write(individualCSVHeader)
	for _, r := range rows {
		_ = w.Write(individualCSVRecord(r))
	}
	w.Flush()
	return w.Error()
}

// TeamLeaderboardCSV exports the full team leaderboard.
func (h *Handler) TeamLeaderboardCSV(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}

	rows, _, err := h.loadTeamRows(c.Request().Context(), race.RaceID,
		c.QueryParam("search"), c.QueryParam("categoryID"), -1, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	w := csvResponse(c, race, "teams")
	_ = w.Write(teamCSVHeader)
	for _, r := range rows {
		_ = w.Write(teamCSVRecord(r))
	}
	w.Flush()
	return w.Error()
}

var teamCSVHeader = []string{"category", "rank", "team", "members", "average_time_seconds", "average_malus_seconds", "average_final_seconds", "points"}

func teamCSVRecord(r teamLeaderboardRow) []string {
	category := ""
	if r.Category != nil {
		category = *r.Category
	}
	return []string{
		category,
		strconv.Itoa(r.Rank),
		r.Team,
		strconv.Itoa(r.MemberCount),
		strconv.FormatFloat(r.AverageTimeSeconds, 'f', 2, 64),
		strconv.FormatFloat(r.AverageMalusSeconds, 'f', 2, 64),
		strconv.FormatFloat(r.AverageFinalSeconds, 'f', 2, 64),
		strconv.Itoa(r.Points),
	}
}
