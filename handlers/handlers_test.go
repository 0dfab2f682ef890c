package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientraid/raidapi/eligibility"
	"github.com/orientraid/raidapi/models"
	"github.com/orientraid/raidapi/scoring"
)

func paramsContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", 1, defaultPerPage},
		{"explicit", "page=3&perPage=50", 3, 50},
		{"zero page clamps to one", "page=0", 1, defaultPerPage},
		{"negative values clamp", "page=-2&perPage=-5", 1, defaultPerPage},
		{"perPage capped", "perPage=5000", 1, maxPerPage},
		{"garbage ignored", "page=abc&perPage=xyz", 1, defaultPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage := pageParams(paramsContext(tt.query))
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}

func TestOverlaps(t *testing.T) {
	capAt := func(v int) *int { return &v }

	tests := []struct {
		name string
		minA int
		maxA *int
		minB int
		maxB *int
		want bool
	}{
		{"disjoint", 0, capAt(12), 13, capAt(17), false},
		{"touching edge", 0, capAt(12), 12, capAt(17), true},
		{"contained", 10, capAt(20), 12, capAt(15), true},
		{"open-ended overlaps everything above", 40, nil, 50, capAt(60), true},
		{"open-ended below a closed bracket", 40, nil, 0, capAt(39), false},
		{"two open-ended brackets", 40, nil, 60, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlaps(tt.minA, tt.maxA, tt.minB, tt.maxB))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, overlaps(tt.minB, tt.maxB, tt.minA, tt.maxA))
		})
	}
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	var km keyedMutex

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)

	// Distinct keys get distinct mutexes: holding one must not block the other.
	unlock := km.lock(1)
	defer unlock()
	done := make(chan struct{})
	go func() {
		u := km.lock(2)
		u()
		close(done)
	}()
	<-done
}

func TestRecordsFromRowsOneRecordPerParticipant(t *testing.T) {
	raceDay := time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC)
	teamA, teamB := 1, 2

	// User 1 is confirmed in two teams of the raid, so the membership
	// join yields two rows for their single time record.
	rows := []raceRecordRow{
		{UserID: 1, TeamID: &teamA, Birthdate: "1990-01-01", TotalSeconds: 100},
		{UserID: 1, TeamID: &teamB, Birthdate: "1990-01-01", TotalSeconds: 100},
		{UserID: 2, Birthdate: "1995-06-15", TotalSeconds: 120},
	}

	records := recordsFromRows(rows, raceDay)
	require.Len(t, records, 2)
	assert.Equal(t, teamA, records[0].TeamID)
	assert.Equal(t, 36, records[0].Age)

	// Without the collapse the duplicated record pushed user 2 to rank 3.
	ranked := scoring.RankIndividuals(records)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 2, ranked[1].UserID)
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestMissingUserIDs(t *testing.T) {
	assert.Empty(t, missingUserIDs([]int{5, 9}, []int{5, 9}))
	assert.Equal(t, []int{7}, missingUserIDs([]int{5, 7, 7, 9}, []int{5, 9}))
	assert.Equal(t, []int{5, 9}, missingUserIDs([]int{5, 9, 5}, nil))
}

func TestIndividualCSVRecord(t *testing.T) {
	assert.Equal(t,
		[]string{"rank", "first_name", "last_name", "total_seconds", "malus_seconds", "final_seconds"},
		individualCSVHeader)

	row := individualLeaderboardRow{
		UserID:       3,
		FirstName:    "Ana",
		LastName:     "Bertrand",
		TotalSeconds: 3600,
		MalusSeconds: 90.5,
		FinalSeconds: 3690.5,
		Rank:         2,
	}
	assert.Equal(t,
		[]string{"2", "Ana", "Bertrand", "3600.00", "90.50", "3690.50"},
		individualCSVRecord(row))
}

func TestTeamCSVRecord(t *testing.T) {
	assert.Equal(t,
		[]string{"category", "rank", "team", "members", "average_time_seconds", "average_malus_seconds", "average_final_seconds", "points"},
		teamCSVHeader)

	junior := "Junior"
	row := teamLeaderboardRow{
		TeamID:              4,
		Team:                "Les Renards",
		Category:            &junior,
		MemberCount:         3,
		AverageTimeSeconds:  3700,
		AverageMalusSeconds: 30,
		AverageFinalSeconds: 3730,
		Points:              8,
		Rank:                1,
	}
	assert.Equal(t,
		[]string{"Junior", "1", "Les Renards", "3", "3700.00", "30.00", "3730.00", "8"},
		teamCSVRecord(row))

	row.Category = nil
	assert.Equal(t, "", teamCSVRecord(row)[0])
}

func TestThresholdsForRaid(t *testing.T) {
	defaults := eligibility.Thresholds{Min: 10, Intermediate: 14, Adult: 18}
	v := func(i int) *int { return &i }

	full := &models.Raid{AgeMin: v(12), AgeIntermediate: v(16), AgeAdult: v(18)}
	assert.Equal(t,
		eligibility.Thresholds{Min: 12, Intermediate: 16, Adult: 18},
		thresholdsForRaid(full, defaults))

	partial := &models.Raid{AgeMin: v(12)}
	assert.Equal(t, defaults, thresholdsForRaid(partial, defaults))
	assert.Equal(t, defaults, thresholdsForRaid(&models.Raid{}, defaults))
}

func checkEligibilityContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/eligibility/check", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestCheckEligibilityAgeCap(t *testing.T) {
	h := &Handler{thresholds: eligibility.Thresholds{Min: 10, Intermediate: 14, Adult: 18}}

	t.Run("ancient birthdate rejected", func(t *testing.T) {
		err := h.CheckEligibility(checkEligibilityContext(
			`{"birthdates":["1850-01-01"],"referenceDate":"2026-06-15"}`))
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("out-of-range age rejected", func(t *testing.T) {
		err := h.CheckEligibility(checkEligibilityContext(`{"ages":[200]}`))
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("sane birthdates pass", func(t *testing.T) {
		c := checkEligibilityContext(
			`{"birthdates":["2000-01-01","2010-03-04"],"referenceDate":"2026-06-15"}`)
		require.NoError(t, h.CheckEligibility(c))
		assert.Equal(t, http.StatusOK, c.Response().Status)
	})
}
