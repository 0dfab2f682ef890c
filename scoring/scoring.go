// Package scoring turns raw per-participant race times into individual
// ranks and per-team leaderboard rows.
//
// The package is a pure in-memory aggregation: callers fetch the
// materialized records however they like (the handlers use SQL joins) and
// persist whatever comes back. Ranking uses standard competition ("1224")
// ordering: tied final times share a rank and the next distinct time
// resumes at its list position, lower final time is better.
package scoring

import "sort"

// Record is one participant's materialized time for one race.
// Age is the participant's civil age on race day; TeamID is zero for
// participants racing outside any team of the raid.
type Record struct {
	UserID       int
	TeamID       int
	Age          int
	TotalSeconds float64
	MalusSeconds float64
}

// FinalSeconds is the time a participant is ranked on.
func (r Record) FinalSeconds() float64 {
	return r.TotalSeconds + r.MalusSeconds
}

// RankedRecord is a Record with its competition rank within the race.
type RankedRecord struct {
	Record
	Rank int
}

// RankIndividuals orders records by final time ascending and assigns
// competition ranks. The output is deterministic for a given input set
// (ties are ordered by UserID) and recomputing is idempotent.
func RankIndividuals(records []Record) []RankedRecord {
	out := make([]RankedRecord, len(records))
	for i, r := range records {
		out[i] = RankedRecord{Record: r}
	}

	sort.Slice(out, func(i, j int) bool {
		fi, fj := out[i].FinalSeconds(), out[j].FinalSeconds()
		if fi != fj {
			return fi < fj
		}
		return out[i].UserID < out[j].UserID
	})

	for i := range out {
		if i > 0 && out[i].FinalSeconds() == out[i-1].FinalSeconds() {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// Category is an age bracket for competitive team leaderboards.
// AgeMax nil means the bracket is open-ended.
type Category struct {
	ID     int
	Name   string
	AgeMin int
	AgeMax *int
}

// CategoryFor returns the bracket containing age, or nil when no bracket
// matches.
func CategoryFor(age int, cats []Category) *Category {
	for i := range cats {
		c := &cats[i]
		if age < c.AgeMin {
			continue
		}
		if c.AgeMax != nil && age > *c.AgeMax {
			continue
		}
		return c
	}
	return nil
}

// TeamRow is one aggregated leaderboard entry for a team within a race.
// CategoryID is nil for non-categorized races and for teams whose
// representative age falls outside every bracket.
type TeamRow struct {
	TeamID              int
	CategoryID          *int
	MemberCount         int
	AverageTimeSeconds  float64
	AverageMalusSeconds float64
	AverageFinalSeconds float64
	Points              int
	Rank                int
}

// BuildTeamRows groups records by team, averages times over the members
// that actually have a recorded time, and ranks teams within their
// category partition by average final time.
//
// Teams are bucketed by the age of their youngest timed member when cats
// is non-empty; pass nil cats for leisure (non-categorized) races. Teams
// with no timed member never appear. Points come from policy, applied to
// the rank within the partition.
func BuildTeamRows(records []Record, cats []Category, policy PointsPolicy) []TeamRow {
	type agg struct {
		count    int
		time     float64
		malus    float64
		youngest int
	}
	teams := map[int]*agg{}
	for _, r := range records {
		if r.TeamID == 0 {
			continue
		}
		a, ok := teams[r.TeamID]
		if !ok {
			a = &agg{youngest: r.Age}
			teams[r.TeamID] = a
		}
		a.count++
		a.time += r.TotalSeconds
		a.malus += r.MalusSeconds
		if r.Age < a.youngest {
			a.youngest = r.Age
		}
	}

	rows := make([]TeamRow, 0, len(teams))
	for teamID, a := range teams {
		row := TeamRow{
			TeamID:              teamID,
			MemberCount:         a.count,
			AverageTimeSeconds:  a.time / float64(a.count),
			AverageMalusSeconds: a.malus / float64(a.count),
		}
		row.AverageFinalSeconds = row.AverageTimeSeconds + row.AverageMalusSeconds
		if len(cats) > 0 {
			if c := CategoryFor(a.youngest, cats); c != nil {
				id := c.ID
				row.CategoryID = &id
			}
		}
		rows = append(rows, row)
	}

	// Rank within each (category) partition.
	partitions := map[int][]*TeamRow{}
	for i := range rows {
		key := 0
		if rows[i].CategoryID != nil {
			key = *rows[i].CategoryID
		}
		partitions[key] = append(partitions[key], &rows[i])
	}
	for _, part := range partitions {
		sort.Slice(part, func(i, j int) bool {
			if part[i].AverageFinalSeconds != part[j].AverageFinalSeconds {
				return part[i].AverageFinalSeconds < part[j].AverageFinalSeconds
			}
			return part[i].TeamID < part[j].TeamID
		})
		for i, row := range part {
			if i > 0 && row.AverageFinalSeconds == part[i-1].AverageFinalSeconds {
				row.Rank = part[i-1].Rank
			} else {
				row.Rank = i + 1
			}
			if policy != nil {
				row.Points = policy.Points(row.Rank, len(part))
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		ci, cj := 0, 0
		if rows[i].CategoryID != nil {
			ci = *rows[i].CategoryID
		}
		if rows[j].CategoryID != nil {
			cj = *rows[j].CategoryID
		}
		if ci != cj {
			return ci < cj
		}
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		return rows[i].TeamID < rows[j].TeamID
	})
	return rows
}
