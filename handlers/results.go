package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/orientraid/raidapi/eligibility"
	"github.com/orientraid/raidapi/metrics"
	"github.com/orientraid/raidapi/models"
	"github.com/orientraid/raidapi/scoring"
)

// raceRecordRow is a flat scan target for the scoring join: one time
// record plus the participant's birthdate and confirmed team within the
// race's raid.
type raceRecordRow struct {
	UserID       int     `bun:"user_id"`
	TeamID       *int    `bun:"team_id"`
	Birthdate    string  `bun:"birthdate"`
	TotalSeconds float64 `bun:"total_seconds"`
	MalusSeconds float64 `bun:"malus_seconds"`
}

const raceRecordsSQL = `
SELECT
	tr.user_id, m.team_id, u.birthdate::text AS birthdate,
	tr.total_seconds, tr.malus_seconds
FROM time_records tr
INNER JOIN users u ON u.id = tr.user_id
LEFT JOIN (
	SELECT DISTINCT ON (tm.user_id) tm.user_id, tm.team_id
	FROM team_members tm
	INNER JOIN teams t ON t.team_id = tm.team_id
	WHERE t.raid_id = ? AND tm.status = ?
	ORDER BY tm.user_id, tm.team_id
) m ON m.user_id = tr.user_id
WHERE tr.race_id = ?
`

// loadRaceRecords materializes the scoring input for one race. Ages are
// civil ages on race day.
func loadRaceRecords(ctx context.Context, idb bun.IDB, race *models.Race) ([]scoring.Record, error) {
	var rows []raceRecordRow
	err := idb.NewRaw(raceRecordsSQL, race.RaidID, models.MemberConfirmed, race.RaceID).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	raceDay, err := time.Parse(dateLayout, race.Date)
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows, raceDay), nil
}

// recordsFromRows converts joined rows into scoring records, exactly one
// per participant. Legacy data may hold a user confirmed in two teams of
// the same raid, which fans the join out to one row per membership; only
// the first is kept so ranking never sees a participant twice.
func recordsFromRows(rows []raceRecordRow, raceDay time.Time) []scoring.Record {
	records := make([]scoring.Record, 0, len(rows))
	seen := make(map[int]bool, len(rows))
	for _, row := range rows {
		if seen[row.UserID] {
			continue
		}
		seen[row.UserID] = true

		rec := scoring.Record{
			UserID:       row.UserID,
			TotalSeconds: row.TotalSeconds,
			MalusSeconds: row.MalusSeconds,
		}
		if row.TeamID != nil {
			rec.TeamID = *row.TeamID
		}
		if bd, err := time.Parse(dateLayout, row.Birthdate); err == nil {
			rec.Age = eligibility.Age(bd, raceDay)
		}
		records = append(records, rec)
	}
	return records
}

// recomputeRace rebuilds individual ranks and the team leaderboard of a
// race inside tx. Stale leaderboard rows are replaced wholesale so the
// projection always matches the current time records.
func (h *Handler) recomputeRace(ctx context.Context, tx bun.Tx, race *models.Race) error {
	records, err := loadRaceRecords(ctx, tx, race)
	if err != nil {
		return err
	}

	ranked := scoring.RankIndividuals(records)
	for _, r := range ranked {
		_, err := tx.ExecContext(ctx,
			`UPDATE time_records SET rank = ? WHERE race_id = ? AND user_id = ?`,
			r.Rank, race.RaceID, r.UserID,
		)
		if err != nil {
			return err
		}
	}

	var cats []scoring.Category
	if race.Categorized {
		cats, err = h.loadScoringCategories(ctx)
		if err != nil {
			return err
		}
	}

	teamRows := scoring.BuildTeamRows(records, cats, h.points)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM team_leaderboard WHERE race_id = ?`, race.RaceID); err != nil {
		return err
	}
	for _, row := range teamRows {
		entry := &models.TeamLeaderboardRow{
			TeamID:              row.TeamID,
			RaceID:              race.RaceID,
			AgeCategoryID:       row.CategoryID,
			MemberCount:         row.MemberCount,
			AverageTimeSeconds:  row.AverageTimeSeconds,
			AverageMalusSeconds: row.AverageMalusSeconds,
			AverageFinalSeconds: row.AverageFinalSeconds,
			Points:              row.Points,
			Rank:                row.Rank,
		}
		if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// noteRecompute counts a completed recompute. Call only after the
// surrounding transaction committed.
func noteRecompute() {
	metrics.Recomputes.WithLabelValues("individual").Inc()
	metrics.Recomputes.WithLabelValues("team").Inc()
}

type resultRow struct {
	UserID    int     `bun:"user_id" json:"userID"`
	FirstName string  `bun:"first_name" json:"firstName"`
	LastName  string  `bun:"last_name" json:"lastName"`
	Total     float64 `bun:"total_seconds" json:"totalSeconds"`
	Malus     float64 `bun:"malus_seconds" json:"malusSeconds"`
	Rank      int     `bun:"rank" json:"rank"`
}

// RaceResults returns the raw time records of a race with names, for the
// results-entry screen.
func (h *Handler) RaceResults(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}

	var rows []resultRow
	err = h.db.NewRaw(`
		SELECT tr.user_id, u.first_name, u.last_name,
			tr.total_seconds, tr.malus_seconds, tr.rank
		FROM time_records tr
		INNER JOIN users u ON u.id = tr.user_id
		WHERE tr.race_id = ?
		ORDER BY tr.rank, u.last_name`, race.RaceID).
		Scan(c.Request().Context(), &rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rows)
}

type saveResultRequest struct {
	UserID       int     `json:"userID"`
	TotalSeconds float64 `json:"totalSeconds"`
	MalusSeconds float64 `json:"malusSeconds"`
}

// SaveResults upserts a batch of finish times for a race and recomputes
// ranks and the team leaderboard in the same transaction.
func (h *Handler) SaveResults(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}

	var batch []saveResultRequest
	if err := c.Bind(&batch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(batch) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no results in request")
	}
	ids := make([]int, 0, len(batch))
	for _, r := range batch {
		if r.UserID == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "userID is required")
		}
		if r.TotalSeconds <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "totalSeconds must be positive")
		}
		if r.MalusSeconds < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "malusSeconds must not be negative")
		}
		ids = append(ids, r.UserID)
	}

	ctx := c.Request().Context()

	// No FK backs time_records.user_id, so a typoed id would store a
	// dangling record invisible to every projection.
	var known []int
	err = h.db.NewSelect().Model((*models.User)(nil)).
		Column("id").
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx, &known)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if missing := missingUserIDs(ids, known); len(missing) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unknown user ids: %v", missing))
	}

	unlock := h.raceLocks.lock(race.RaceID)
	defer unlock()

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

	for _, r := range batch {
		record := &models.TimeRecord{
			UserID:       r.UserID,
			RaceID:       race.RaceID,
			TotalSeconds: r.TotalSeconds,
			MalusSeconds: r.MalusSeconds,
		}
		_, err := tx.NewInsert().Model(record).
			On("CONFLICT (race_id, user_id) DO UPDATE SET total_seconds = EXCLUDED.total_seconds, malus_seconds = EXCLUDED.malus_seconds").
			Exec(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	if err := h.recomputeRace(ctx, tx, race); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := tx.Commit(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	committed = true
	noteRecompute()

	return c.NoContent(http.StatusAccepted)
}

// missingUserIDs returns the requested ids absent from known, deduped,
// in request order.
func missingUserIDs(requested, known []int) []int {
	have := make(map[int]bool, len(known))
	for _, id := range known {
		have[id] = true
	}
	missing := []int{}
	for _, id := range requested {
		if have[id] {
			continue
		}
		have[id] = true
		missing = append(missing, id)
	}
	return missing
}

// DeleteResult removes one participant's time from a race and recomputes.
func (h *Handler) DeleteResult(c echo.Context) error {
	race, err := h.loadRace(c)
	if err != nil {
		return err
	}
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	unlock := h.raceLocks.lock(race.RaceID)
	defer unlock()

	ctx := c.Request().Context()
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

	res, err := tx.ExecContext(ctx,
		`DELETE FROM time_records WHERE race_id = ? AND user_id = ?`,
		race.RaceID, userID,
	)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no time recorded for this participant")
	}

	if err := h.recomputeRace(ctx, tx, race); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := tx.Commit(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	committed = true
	noteRecompute()

	return c.NoContent(http.StatusOK)
}
