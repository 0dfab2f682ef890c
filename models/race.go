package models

import "github.com/uptrace/bun"

// Race is a single timed stage within a raid.
// Leisure races are governed by the A/B/C eligibility rule instead of
// age-bracket competition; categorized races partition their team
// leaderboard by age category.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:rc"`

	RaceID      int    `bun:"race_id,pk,autoincrement" json:"raceID"`
	RaidID      int    `bun:"raid_id,notnull" json:"raidID"`
	Name        string `bun:"name,notnull" json:"name"`
	Date        string `bun:"date,notnull,type:date" json:"date"`
	Leisure     bool   `bun:"leisure,notnull,default:false" json:"leisure"`
	Categorized bool   `bun:"categorized,notnull,default:false" json:"categorized"`

	Raid *Raid `bun:"rel:belongs-to,join:raid_id=raid_id" json:"-"`
}
