package scoring

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// PointsPolicy maps a team's rank within its partition to points.
// The curve the club actually uses is imported from a CSV table; the
// linear policy is the fallback when no table is configured.
type PointsPolicy interface {
	Points(rank, partitionSize int) int
}

// LinearPolicy awards partitionSize - rank + 1 points: last place gets
// one point, first place as many points as there are ranked teams.
type LinearPolicy struct{}

func (LinearPolicy) Points(rank, partitionSize int) int {
	if rank < 1 || rank > partitionSize {
		return 0
	}
	return partitionSize - rank + 1
}

// TablePolicy awards points from an explicit rank -> points table.
// Ranks beyond the table earn zero.
type TablePolicy struct {
	byRank []int
}

func (p TablePolicy) Points(rank, _ int) int {
	if rank < 1 || rank > len(p.byRank) {
		return 0
	}
	return p.byRank[rank-1]
}

// LoadTablePolicy reads a two-column "rank,points" CSV, with an optional
// header line. Ranks must start at 1 and be contiguous.
func LoadTablePolicy(r io.Reader) (TablePolicy, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	var byRank []int
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return TablePolicy{}, fmt.Errorf("points table: %w", err)
		}
		line++

		rank, err := strconv.Atoi(rec[0])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return TablePolicy{}, fmt.Errorf("points table line %d: bad rank %q", line, rec[0])
		}
		points, err := strconv.Atoi(rec[1])
		if err != nil {
			return TablePolicy{}, fmt.Errorf("points table line %d: bad points %q", line, rec[1])
		}
		if rank != len(byRank)+1 {
			return TablePolicy{}, fmt.Errorf("points table line %d: expected rank %d, got %d", line, len(byRank)+1, rank)
		}
		byRank = append(byRank, points)
	}

	if len(byRank) == 0 {
		return TablePolicy{}, fmt.Errorf("points table: no rows")
	}
	return TablePolicy{byRank: byRank}, nil
}
