package models

import "github.com/uptrace/bun"

// Raid is a multi-day orienteering event composed of several races.
// The three age_* columns override the configured default eligibility
// thresholds for this raid; when null the system-wide defaults apply.
// When set, age_min <= age_intermediate <= age_adult must hold.
type Raid struct {
	bun.BaseModel `bun:"table:raids,alias:rd"`

	RaidID          int    `bun:"raid_id,pk,autoincrement" json:"raidID"`
	Name            string `bun:"name,notnull" json:"name"`
	EditionYear     int    `bun:"edition_year,notnull" json:"editionYear"`
	StartsOn        string `bun:"starts_on,notnull,type:date" json:"startsOn"`
	EndsOn          string `bun:"ends_on,notnull,type:date" json:"endsOn"`
	AgeMin          *int   `bun:"age_min" json:"ageMin,omitempty"`
	AgeIntermediate *int   `bun:"age_intermediate" json:"ageIntermediate,omitempty"`
	AgeAdult        *int   `bun:"age_adult" json:"ageAdult,omitempty"`
}
