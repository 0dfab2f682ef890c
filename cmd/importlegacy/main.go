// cmd/importlegacy/main.go
// Imports members, raids, races, teams and raw results from the club's
// previous MySQL system into the local PostgreSQL database, then
// recomputes individual ranks for every imported race.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/raidclub?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/importlegacy
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/orientraid/raidapi/config"
	bundb "github.com/orientraid/raidapi/db"
	"github.com/orientraid/raidapi/models"
	"github.com/orientraid/raidapi/scoring"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/raidclub?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	// Create tables (idempotent)
	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	// Disable FK enforcement so we can load in bulk without strict ordering
	if _, err := pgDB.ExecContext(ctx, "SET session_replication_role = 'replica'"); err != nil {
		log.Fatalf("disable FK: %v", err)
	}
	defer func() {
		if _, err := pgDB.ExecContext(ctx, "SET session_replication_role = 'origin'"); err != nil {
			log.Printf("re-enable FK: %v", err)
		}
	}()

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"users", func() (int, error) { return importUsers(ctx, myDB, pgDB) }},
		{"raids", func() (int, error) { return importRaids(ctx, myDB, pgDB) }},
		{"age_categories", func() (int, error) { return importCategories(ctx, myDB, pgDB) }},
		{"races", func() (int, error) { return importRaces(ctx, myDB, pgDB) }},
		{"teams", func() (int, error) { return importTeams(ctx, myDB, pgDB) }},
		{"team_members", func() (int, error) { return importTeamMembers(ctx, myDB, pgDB) }},
		{"time_records", func() (int, error) { return importTimeRecords(ctx, myDB, pgDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("import %s: %v", s.name, err)
		}
		log.Printf("%-15s  %d rows imported", s.name, n)
	}

	resetSequences(ctx, pgDB)

	if err := recomputeRanks(ctx, pgDB); err != nil {
		log.Fatalf("recompute ranks: %v", err)
	}

	log.Println("import complete")
}

// --- helpers ---

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// --- per-table imports ---

func importUsers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, username, password, firstName, lastName, birthdate, isPublic, clubRole FROM members")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.User
	total := 0
	for rows.Next() {
		var (
			r         models.User
			birthdate time.Time
			role      sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Username, &r.Password, &r.FirstName, &r.LastName,
			&birthdate, &r.Public, &role); err != nil {
			return total, err
		}
		r.Birthdate = fmtDate(birthdate)
		r.ClubRole = nullStr(role)
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func importRaids(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, name, editionYear, startsOn, endsOn, ageMin, ageIntermediate, ageAdult FROM raids")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Raid
	total := 0
	for rows.Next() {
		var (
			r                models.Raid
			starts, ends     time.Time
			min, inter, adlt sql.NullInt64
		)
		if err := rows.Scan(&r.RaidID, &r.Name, &r.EditionYear, &starts, &ends,
			&min, &inter, &adlt); err != nil {
			return total, err
		}
		r.StartsOn = fmtDate(starts)
		r.EndsOn = fmtDate(ends)
		r.AgeMin = nullInt(min)
		r.AgeIntermediate = nullInt(inter)
		r.AgeAdult = nullInt(adlt)
		batch = append(batch, r)
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func importCategories(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, name, ageMin, ageMax FROM age_categories")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.AgeCategory
	total := 0
	for rows.Next() {
		var (
			r      models.AgeCategory
			ageMax sql.NullInt64
		)
		if err := rows.Scan(&r.CategoryID, &r.Name, &r.AgeMin, &ageMax); err != nil {
			return total, err
		}
		r.AgeMax = nullInt(ageMax)
		batch = append(batch, r)
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func importRaces(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, raidID, name, raceDate, isLeisure, isCategorized FROM races")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Race
	total := 0
	for rows.Next() {
		var (
			r    models.Race
			date time.Time
		)
		if err := rows.Scan(&r.RaceID, &r.RaidID, &r.Name, &date, &r.Leisure, &r.Categorized); err != nil {
			return total, err
		}
		r.Date = fmtDate(date)
		batch = append(batch, r)
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func importTeams(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, raidID, name, isTemporary FROM teams")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Team
	total := 0
	for rows.Next() {
		var r models.Team
		if err := rows.Scan(&r.TeamID, &r.RaidID, &r.Name, &r.Temporary); err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func importTeamMembers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, teamID, memberID, email, status FROM team_members")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.TeamMember
	total := 0
	for rows.Next() {
		var (
			r      models.TeamMember
			userID sql.NullInt64
			email  sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.TeamID, &userID, &email, &r.Status); err != nil {
			return total, err
		}
		r.UserID = nullInt(userID)
		r.Email = nullStr(email)
		if !models.ValidMemberStatus(r.Status) {
			r.Status = models.MemberConfirmed
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func importTimeRecords(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		"SELECT id, memberID, raceID, totalSeconds, malusSeconds FROM race_results")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.TimeRecord
	total := 0
	for rows.Next() {
		var (
			r     models.TimeRecord
			malus sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.RaceID, &r.TotalSeconds, &malus); err != nil {
			return total, err
		}
		if malus.Valid {
			r.MalusSeconds = malus.Float64
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// recomputeRanks assigns individual ranks per race. The legacy system
// never stored them; team leaderboards are rebuilt by the API on the
// first results edit.
func recomputeRanks(ctx context.Context, pgDB *bun.DB) error {
	var raceIDs []int
	err := pgDB.NewRaw("SELECT DISTINCT race_id FROM time_records").Scan(ctx, &raceIDs)
	if err != nil {
		return err
	}

	for _, raceID := range raceIDs {
		var recs []models.TimeRecord
		err := pgDB.NewSelect().Model(&recs).
			Where("race_id = ?", raceID).
			Scan(ctx)
		if err != nil {
			return err
		}

		records := make([]scoring.Record, len(recs))
		for i, r := range recs {
			records[i] = scoring.Record{
				UserID:       r.UserID,
				TotalSeconds: r.TotalSeconds,
				MalusSeconds: r.MalusSeconds,
			}
		}

		for _, ranked := range scoring.RankIndividuals(records) {
			_, err := pgDB.ExecContext(ctx,
				`UPDATE time_records SET rank = ? WHERE race_id = ? AND user_id = ?`,
				ranked.Rank, raceID, ranked.UserID,
			)
			if err != nil {
				return err
			}
		}
	}

	log.Printf("ranks recomputed for %d races", len(raceIDs))
	return nil
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	seqs := []struct{ seq, table, col string }{
		{"users_id_seq", "users", "id"},
		{"raids_raid_id_seq", "raids", "raid_id"},
		{"age_categories_category_id_seq", "age_categories", "category_id"},
		{"races_race_id_seq", "races", "race_id"},
		{"teams_team_id_seq", "teams", "team_id"},
		{"team_members_id_seq", "team_members", "id"},
		{"time_records_id_seq", "time_records", "id"},
	}
	for _, s := range seqs {
		q := fmt.Sprintf(
			"SELECT setval('%s', COALESCE((SELECT MAX(%s) FROM %s), 1))",
			s.seq, s.col, s.table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset seq %s: %v", s.seq, err)
		}
	}
	log.Println("sequences reset")
}
