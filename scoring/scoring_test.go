package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientraid/raidapi/scoring"
)

func intPtr(v int) *int { return &v }

func TestRankIndividuals(t *testing.T) {
	t.Run("competition ranking skips tied positions", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 1, TotalSeconds: 10},
			{UserID: 2, TotalSeconds: 10},
			{UserID: 3, TotalSeconds: 20},
			{UserID: 4, TotalSeconds: 30},
		}
		ranked := scoring.RankIndividuals(records)
		require.Len(t, ranked, 4)
		assert.Equal(t, []int{1, 1, 3, 4}, ranks(ranked))
	})

	t.Run("malus counts toward final time", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 1, TotalSeconds: 100, MalusSeconds: 60}, // 160
			{UserID: 2, TotalSeconds: 150},                   // 150
		}
		ranked := scoring.RankIndividuals(records)
		assert.Equal(t, 2, ranked[0].UserID)
		assert.Equal(t, 1, ranked[0].Rank)
		assert.Equal(t, 1, ranked[1].UserID)
		assert.Equal(t, 2, ranked[1].Rank)
	})

	t.Run("tie on final time after malus", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 2, TotalSeconds: 90, MalusSeconds: 10},
			{UserID: 1, TotalSeconds: 100},
			{UserID: 3, TotalSeconds: 101},
		}
		ranked := scoring.RankIndividuals(records)
		assert.Equal(t, []int{1, 1, 3}, ranks(ranked))
		// Tied records come out ordered by user for determinism.
		assert.Equal(t, 1, ranked[0].UserID)
		assert.Equal(t, 2, ranked[1].UserID)
	})

	t.Run("recomputing is idempotent", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 3, TotalSeconds: 42},
			{UserID: 1, TotalSeconds: 42},
			{UserID: 2, TotalSeconds: 40},
		}
		first := scoring.RankIndividuals(records)
		second := scoring.RankIndividuals(records)
		assert.Equal(t, first, second)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, scoring.RankIndividuals(nil))
	})
}

func ranks(rr []scoring.RankedRecord) []int {
	out := make([]int, len(rr))
	for i, r := range rr {
		out[i] = r.Rank
	}
	return out
}

func TestCategoryFor(t *testing.T) {
	cats := []scoring.Category{
		{ID: 1, Name: "Benjamins", AgeMin: 0, AgeMax: intPtr(12)},
		{ID: 2, Name: "Juniors", AgeMin: 13, AgeMax: intPtr(17)},
		{ID: 3, Name: "Seniors", AgeMin: 18, AgeMax: intPtr(39)},
		{ID: 4, Name: "Vétérans", AgeMin: 40},
	}

	assert.Equal(t, 1, scoring.CategoryFor(12, cats).ID)
	assert.Equal(t, 2, scoring.CategoryFor(13, cats).ID)
	assert.Equal(t, 3, scoring.CategoryFor(18, cats).ID)
	assert.Equal(t, 4, scoring.CategoryFor(70, cats).ID)

	gapped := []scoring.Category{{ID: 1, Name: "Seniors", AgeMin: 18, AgeMax: intPtr(39)}}
	assert.Nil(t, scoring.CategoryFor(17, gapped))
}

func TestBuildTeamRows(t *testing.T) {
	t.Run("averages over timed members", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 1, TeamID: 7, Age: 25, TotalSeconds: 3600},
			{UserID: 2, TeamID: 7, Age: 30, TotalSeconds: 3800},
		}
		rows := scoring.BuildTeamRows(records, nil, nil)
		require.Len(t, rows, 1)
		row := rows[0]
		assert.Equal(t, 7, row.TeamID)
		assert.Equal(t, 2, row.MemberCount)
		assert.Equal(t, 3700.0, row.AverageTimeSeconds)
		assert.Equal(t, 0.0, row.AverageMalusSeconds)
		assert.Equal(t, 3700.0, row.AverageFinalSeconds)
		assert.Nil(t, row.CategoryID)
		assert.Equal(t, 1, row.Rank)
	})

	t.Run("untimed members are excluded, not zeroed", func(t *testing.T) {
		// Team 7 has three members but only two recorded times: the
		// scoring input simply never contains the third.
		records := []scoring.Record{
			{UserID: 1, TeamID: 7, TotalSeconds: 1000, MalusSeconds: 30},
			{UserID: 2, TeamID: 7, TotalSeconds: 1200, MalusSeconds: 90},
		}
		rows := scoring.BuildTeamRows(records, nil, scoring.LinearPolicy{})
		require.Len(t, rows, 1)
		assert.Equal(t, 2, rows[0].MemberCount)
		assert.Equal(t, 1100.0, rows[0].AverageTimeSeconds)
		assert.Equal(t, 60.0, rows[0].AverageMalusSeconds)
		assert.Equal(t, 1160.0, rows[0].AverageFinalSeconds)
	})

	t.Run("teamless participants never produce rows", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 1, TotalSeconds: 500},
		}
		assert.Empty(t, scoring.BuildTeamRows(records, nil, nil))
	})

	t.Run("average final equals sum of averages", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 1, TeamID: 1, TotalSeconds: 100.5, MalusSeconds: 10.25},
			{UserID: 2, TeamID: 1, TotalSeconds: 200.5, MalusSeconds: 20.25},
			{UserID: 3, TeamID: 1, TotalSeconds: 333.25, MalusSeconds: 0},
		}
		rows := scoring.BuildTeamRows(records, nil, nil)
		require.Len(t, rows, 1)
		assert.Equal(t, rows[0].AverageTimeSeconds+rows[0].AverageMalusSeconds,
			rows[0].AverageFinalSeconds)
	})

	t.Run("categorized by youngest timed member", func(t *testing.T) {
		cats := []scoring.Category{
			{ID: 1, Name: "Juniors", AgeMin: 0, AgeMax: intPtr(17)},
			{ID: 2, Name: "Seniors", AgeMin: 18},
		}
		records := []scoring.Record{
			// Team 1: ages 15 and 40 -> Juniors bracket.
			{UserID: 1, TeamID: 1, Age: 15, TotalSeconds: 1000},
			{UserID: 2, TeamID: 1, Age: 40, TotalSeconds: 1100},
			// Team 2: all adults -> Seniors bracket.
			{UserID: 3, TeamID: 2, Age: 22, TotalSeconds: 900},
			{UserID: 4, TeamID: 2, Age: 28, TotalSeconds: 950},
		}
		rows := scoring.BuildTeamRows(records, cats, scoring.LinearPolicy{})
		require.Len(t, rows, 2)

		byTeam := map[int]scoring.TeamRow{}
		for _, r := range rows {
			byTeam[r.TeamID] = r
		}
		require.NotNil(t, byTeam[1].CategoryID)
		assert.Equal(t, 1, *byTeam[1].CategoryID)
		require.NotNil(t, byTeam[2].CategoryID)
		assert.Equal(t, 2, *byTeam[2].CategoryID)
		// Each team is alone in its partition, so both rank first.
		assert.Equal(t, 1, byTeam[1].Rank)
		assert.Equal(t, 1, byTeam[2].Rank)
	})

	t.Run("ranking within a partition with ties", func(t *testing.T) {
		records := []scoring.Record{
			{UserID: 1, TeamID: 1, TotalSeconds: 1000},
			{UserID: 2, TeamID: 2, TotalSeconds: 1000},
			{UserID: 3, TeamID: 3, TotalSeconds: 1500},
		}
		rows := scoring.BuildTeamRows(records, nil, scoring.LinearPolicy{})
		require.Len(t, rows, 3)
		assert.Equal(t, 1, rows[0].Rank)
		assert.Equal(t, 1, rows[1].Rank)
		assert.Equal(t, 3, rows[2].Rank)
		// Linear points over a 3-team partition.
		assert.Equal(t, 3, rows[0].Points)
		assert.Equal(t, 3, rows[1].Points)
		assert.Equal(t, 1, rows[2].Points)
	})

	t.Run("recomputing yields identical rows", func(t *testing.T) {
		cats := []scoring.Category{
			{ID: 1, Name: "Juniors", AgeMin: 0, AgeMax: intPtr(17)},
			{ID: 2, Name: "Seniors", AgeMin: 18},
		}
		records := []scoring.Record{
			{UserID: 1, TeamID: 3, Age: 20, TotalSeconds: 800, MalusSeconds: 15},
			{UserID: 2, TeamID: 3, Age: 31, TotalSeconds: 820},
			{UserID: 3, TeamID: 1, Age: 16, TotalSeconds: 700},
			{UserID: 4, TeamID: 2, Age: 45, TotalSeconds: 760, MalusSeconds: 120},
		}
		first := scoring.BuildTeamRows(records, cats, scoring.LinearPolicy{})
		second := scoring.BuildTeamRows(records, cats, scoring.LinearPolicy{})
		assert.Equal(t, first, second)
	})

	t.Run("nil policy leaves points at zero", func(t *testing.T) {
		records := []scoring.Record{{UserID: 1, TeamID: 1, TotalSeconds: 100}}
		rows := scoring.BuildTeamRows(records, nil, nil)
		require.Len(t, rows, 1)
		assert.Equal(t, 0, rows[0].Points)
	})
}
