package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/orientraid/raidapi/config"
	"github.com/orientraid/raidapi/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Raid)(nil),
		(*models.AgeCategory)(nil),
		(*models.Race)(nil),
		(*models.Team)(nil),
		(*models.TeamMember)(nil),
		(*models.TimeRecord)(nil),
		(*models.TeamLeaderboardRow)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	constraints := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'races_no_dupes') THEN ALTER TABLE races ADD CONSTRAINT races_no_dupes UNIQUE (raid_id, name); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'team_members_no_dupes') THEN ALTER TABLE team_members ADD CONSTRAINT team_members_no_dupes UNIQUE (team_id, user_id); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'time_records_no_dupes') THEN ALTER TABLE time_records ADD CONSTRAINT time_records_no_dupes UNIQUE (race_id, user_id); END IF; END $$`,
		// NULL age_category_id rows must also be unique per (team, race), so
		// a plain UNIQUE constraint over the triple is not enough.
		`CREATE UNIQUE INDEX IF NOT EXISTS team_leaderboard_no_dupes ON team_leaderboard (team_id, race_id, COALESCE(age_category_id, 0))`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}
