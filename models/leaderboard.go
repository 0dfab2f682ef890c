package models

import "github.com/uptrace/bun"

// TeamLeaderboardRow is the materialized per-team aggregate for one race,
// optionally bucketed by age category for competitive races. Rows are a
// pure projection of the race's time records: the whole set for a race is
// replaced on every recompute, never edited in place.
// Invariant: AverageFinalSeconds = AverageTimeSeconds + AverageMalusSeconds.
type TeamLeaderboardRow struct {
	bun.BaseModel `bun:"table:team_leaderboard,alias:tl"`

	ID                  int     `bun:"id,pk,autoincrement" json:"id"`
	TeamID              int     `bun:"team_id,notnull" json:"teamID"`
	RaceID              int     `bun:"race_id,notnull" json:"raceID"`
	AgeCategoryID       *int    `bun:"age_category_id" json:"ageCategoryID,omitempty"`
	MemberCount         int     `bun:"member_count,notnull" json:"memberCount"`
	AverageTimeSeconds  float64 `bun:"average_time_seconds,notnull" json:"averageTimeSeconds"`
	AverageMalusSeconds float64 `bun:"average_malus_seconds,notnull" json:"averageMalusSeconds"`
	AverageFinalSeconds float64 `bun:"average_final_seconds,notnull" json:"averageFinalSeconds"`
	Points              int     `bun:"points,notnull,default:0" json:"points"`
	Rank                int     `bun:"rank,notnull,default:0" json:"rank"`
}
