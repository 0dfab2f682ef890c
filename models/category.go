package models

import "github.com/uptrace/bun"

// AgeCategory is a named, non-overlapping age bracket used to partition
// competitive-race team leaderboards. AgeMax is null for the open-ended
// oldest bracket.
type AgeCategory struct {
	bun.BaseModel `bun:"table:age_categories,alias:ac"`

	CategoryID int    `bun:"category_id,pk,autoincrement" json:"categoryID"`
	Name       string `bun:"name,notnull,unique" json:"name"`
	AgeMin     int    `bun:"age_min,notnull" json:"ageMin"`
	AgeMax     *int   `bun:"age_max" json:"ageMax,omitempty"`
}
