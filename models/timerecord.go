package models

import "github.com/uptrace/bun"

// TimeRecord holds one participant's finish time for one race.
// TotalSeconds is the raw finish time, MalusSeconds the checkpoint
// penalty added on top. Rank is recomputed for the whole race whenever
// any record of the race changes.
type TimeRecord struct {
	bun.BaseModel `bun:"table:time_records,alias:tr"`

	ID           int     `bun:"id,pk,autoincrement" json:"id"`
	UserID       int     `bun:"user_id,notnull" json:"userID"`
	RaceID       int     `bun:"race_id,notnull" json:"raceID"`
	TotalSeconds float64 `bun:"total_seconds,notnull" json:"totalSeconds"`
	MalusSeconds float64 `bun:"malus_seconds,notnull,default:0" json:"malusSeconds"`
	Rank         int     `bun:"rank,notnull,default:0" json:"rank"`
}
