package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/orientraid/raidapi/eligibility"
	"github.com/orientraid/raidapi/metrics"
	"github.com/orientraid/raidapi/models"
)

type teamMemberRequest struct {
	UserID *int    `json:"userID"`
	Email  *string `json:"email"`
	Status string  `json:"status"`
}

type createTeamRequest struct {
	RaidID    int                 `json:"raidID"`
	Name      string              `json:"name"`
	Temporary bool                `json:"temporary"`
	Members   []teamMemberRequest `json:"members"`
}

type teamData struct {
	TeamID      int    `bun:"team_id" json:"teamID"`
	RaidID      int    `bun:"raid_id" json:"raidID"`
	Name        string `bun:"name" json:"name"`
	Temporary   bool   `bun:"temporary" json:"temporary"`
	MemberCount int    `bun:"member_count" json:"memberCount"`
}

// Teams returns the teams of a raid with their roster sizes.
func (h *Handler) Teams(c echo.Context) error {
	raidID := c.QueryParam("raidID")
	if raidID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing raidID param")
	}

	var teams []teamData
	err := h.db.NewSelect().
		TableExpr("teams t").
		ColumnExpr(`t.team_id, t.raid_id, t.name, t.temporary,
			(SELECT count(*) FROM team_members tm WHERE tm.team_id = t.team_id) AS member_count`).
		Where("t.raid_id = ?", raidID).
		OrderExpr("t.name ASC").
		Scan(c.Request().Context(), &teams)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, teams)
}

// CreateTeam inserts a team and its roster in one transaction.
// Roster entries are a tagged variant: confirmed and pending members
// reference an account, pending_account members only an invitation email.
func (h *Handler) CreateTeam(c echo.Context) error {
	var req createTeamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	exists, err := h.db.NewSelect().Model((*models.Raid)(nil)).
		Where("raid_id = ?", req.RaidID).
		Exists(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "raid not found")
	}

	ctx := c.Request().Context()

	confirmed := map[int]bool{}
	for i, m := range req.Members {
		if !models.ValidMemberStatus(m.Status) {
			return echo.NewHTTPError(http.StatusBadRequest,
				"member "+strconv.Itoa(i)+": invalid status "+m.Status)
		}
		if m.Status == models.MemberPendingAccount {
			if m.Email == nil || strings.TrimSpace(*m.Email) == "" {
				return echo.NewHTTPError(http.StatusBadRequest,
					"member "+strconv.Itoa(i)+": pending_account requires an email")
			}
			continue
		}
		if m.UserID == nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				"member "+strconv.Itoa(i)+": userID is required for status "+m.Status)
		}
		if m.Status != models.MemberConfirmed {
			continue
		}

		// A runner scores for at most one team per raid, so a second
		// confirmed membership would double their time in the ranking.
		if confirmed[*m.UserID] {
			return echo.NewHTTPError(http.StatusBadRequest,
				"member "+strconv.Itoa(i)+": duplicate confirmed userID in roster")
		}
		confirmed[*m.UserID] = true

		taken, err := h.db.NewSelect().
			TableExpr("team_members tm").
			Join("INNER JOIN teams t ON t.team_id = tm.team_id").
			Where("t.raid_id = ? AND tm.user_id = ? AND tm.status = ?",
				req.RaidID, *m.UserID, models.MemberConfirmed).
			Exists(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if taken {
			return echo.NewHTTPError(http.StatusConflict,
				"member "+strconv.Itoa(i)+": already confirmed in a team of this raid")
		}
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	team := &models.Team{RaidID: req.RaidID, Name: req.Name, Temporary: req.Temporary}
	if _, err := tx.NewInsert().Model(team).Exec(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	for _, m := range req.Members {
		member := &models.TeamMember{
			TeamID: team.TeamID,
			UserID: m.UserID,
			Email:  m.Email,
			Status: m.Status,
		}
		if _, err := tx.NewInsert().Model(member).Exec(ctx); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	committed = true

	return c.JSON(http.StatusCreated, team)
}

type teamEligibilityRequest struct {
	RaceID int `json:"raceID"`
}

// TeamEligibility runs the age rule over a team's confirmed roster for a
// leisure race, using the raid's thresholds and race day as reference.
func (h *Handler) TeamEligibility(c echo.Context) error {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid team id")
	}

	var req teamEligibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	team := &models.Team{}
	if err := h.db.NewSelect().Model(team).Where("team_id = ?", teamID).Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "team not found")
	}

	race := &models.Race{}
	if err := h.db.NewSelect().Model(race).Where("rc.race_id = ?", req.RaceID).Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "race not found")
	}
	if race.RaidID != team.RaidID {
		return echo.NewHTTPError(http.StatusBadRequest, "race belongs to a different raid")
	}
	if !race.Leisure {
		return echo.NewHTTPError(http.StatusBadRequest, "eligibility rules apply to leisure races only")
	}

	var birthdates []string
	err = h.db.NewSelect().
		TableExpr("team_members tm").
		ColumnExpr("u.birthdate::text").
		Join("INNER JOIN users u ON u.id = tm.user_id").
		Where("tm.team_id = ? AND tm.status = ?", teamID, models.MemberConfirmed).
		Scan(ctx, &birthdates)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ref, err := time.Parse(dateLayout, race.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "race has invalid date "+race.Date)
	}

	dates := make([]time.Time, 0, len(birthdates))
	for _, bd := range birthdates {
		d, err := time.Parse(dateLayout, bd)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "invalid birthdate "+bd)
		}
		dates = append(dates, d)
	}

	thresholds, err := h.raidThresholds(ctx, race.RaidID)
	if err != nil {
		return err
	}

	result, err := eligibility.ValidateBirthdates(dates, ref, thresholds)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	metrics.EligibilityChecks.WithLabelValues(metrics.OutcomeLabel(result.Valid)).Inc()
	return c.JSON(http.StatusOK, result)
}
