package eligibility_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientraid/raidapi/eligibility"
)

var ffcoLike = eligibility.Thresholds{Min: 12, Intermediate: 16, Adult: 18}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      eligibility.Thresholds
		wantErr bool
	}{
		{"ordered", eligibility.Thresholds{Min: 10, Intermediate: 14, Adult: 18}, false},
		{"all equal", eligibility.Thresholds{Min: 18, Intermediate: 18, Adult: 18}, false},
		{"zero", eligibility.Thresholds{}, false},
		{"min above intermediate", eligibility.Thresholds{Min: 15, Intermediate: 14, Adult: 18}, true},
		{"intermediate above adult", eligibility.Thresholds{Min: 10, Intermediate: 19, Adult: 18}, true},
		{"negative min", eligibility.Thresholds{Min: -1, Intermediate: 14, Adult: 18}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAges(t *testing.T) {
	tests := []struct {
		name     string
		ages     []int
		valid    bool
		errCount int
		minors   []int
		adults   []int
	}{
		{
			name:  "minors with supervisor",
			ages:  []int{14, 15, 20},
			valid: true, minors: []int{14, 15}, adults: []int{20},
		},
		{
			name:  "minors without supervisor",
			ages:  []int{14, 15},
			valid: false, errCount: 1, minors: []int{14, 15}, adults: []int{},
		},
		{
			name:  "under minimum despite supervisor",
			ages:  []int{10, 20},
			valid: false, errCount: 1, minors: []int{10}, adults: []int{20},
		},
		{
			name:  "all above intermediate, no adult needed",
			ages:  []int{16, 17},
			valid: true, minors: []int{}, adults: []int{},
		},
		{
			name:  "single adult",
			ages:  []int{30},
			valid: true, minors: []int{}, adults: []int{30},
		},
		{
			name:  "under minimum and unsupervised",
			ages:  []int{11, 13},
			valid: false, errCount: 2, minors: []int{11, 13}, adults: []int{},
		},
		{
			name:  "empty roster",
			ages:  []int{},
			valid: false, errCount: 1, minors: []int{}, adults: []int{},
		},
		{
			name:  "boundary ages",
			ages:  []int{12, 16, 18},
			valid: true, minors: []int{12}, adults: []int{18},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := eligibility.ValidateAges(tt.ages, ffcoLike)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Len(t, res.Errors, tt.errCount)
			assert.Equal(t, tt.minors, res.Details.Minors)
			assert.Equal(t, tt.adults, res.Details.Adults)
		})
	}
}

// The rule, stated directly: valid iff every age >= Min AND
// (every age >= Intermediate OR some age >= Adult).
func TestValidateAges_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(20260828))

	for i := 0; i < 2000; i++ {
		a := rng.Intn(20)
		b := a + rng.Intn(10)
		c := b + rng.Intn(10)
		thresholds := eligibility.Thresholds{Min: a, Intermediate: b, Adult: c}
		require.NoError(t, thresholds.Validate())

		ages := make([]int, 1+rng.Intn(6))
		for j := range ages {
			ages[j] = rng.Intn(60)
		}

		allAboveMin, allAboveIntermediate, anyAdult := true, true, false
		for _, age := range ages {
			if age < a {
				allAboveMin = false
			}
			if age < b {
				allAboveIntermediate = false
			}
			if age >= c {
				anyAdult = true
			}
		}
		want := allAboveMin && (allAboveIntermediate || anyAdult)

		got := eligibility.ValidateAges(ages, thresholds)
		require.Equal(t, want, got.Valid,
			"ages %v thresholds %+v", ages, thresholds)
		require.Equal(t, want, len(got.Errors) == 0)
	}
}

func TestAge(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		birth time.Time
		ref   time.Time
		want  int
	}{
		{"exact anniversary", date(1990, time.April, 12), date(2020, time.April, 12), 30},
		{"day before anniversary", date(1990, time.April, 12), date(2020, time.April, 11), 29},
		{"day after anniversary", date(1990, time.April, 12), date(2020, time.April, 13), 30},
		{"newborn", date(2020, time.January, 1), date(2020, time.June, 1), 0},
		{"leap birth before Mar 1", date(2004, time.February, 29), date(2021, time.February, 28), 16},
		{"leap birth on Mar 1", date(2004, time.February, 29), date(2021, time.March, 1), 17},
		{"leap birth in leap year", date(2004, time.February, 29), date(2024, time.February, 29), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eligibility.Age(tt.birth, tt.ref))
		})
	}
}

func TestValidateBirthdates(t *testing.T) {
	ref := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	bd := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("ages computed at reference date", func(t *testing.T) {
		res, err := eligibility.ValidateBirthdates(
			[]time.Time{bd(2012, time.January, 3), bd(1990, time.October, 30)},
			ref, ffcoLike,
		)
		require.NoError(t, err)
		// 14 and 35 on 2026-06-15: minor plus supervisor.
		assert.True(t, res.Valid)
		assert.Equal(t, []int{14}, res.Details.Minors)
		assert.Equal(t, []int{35}, res.Details.Adults)
	})

	t.Run("future birthdate is a structural error", func(t *testing.T) {
		_, err := eligibility.ValidateBirthdates(
			[]time.Time{bd(2030, time.January, 1)}, ref, ffcoLike,
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after reference date")
	})

	t.Run("empty roster is rejected, not an error", func(t *testing.T) {
		res, err := eligibility.ValidateBirthdates(nil, ref, ffcoLike)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Errors)
	})
}

func TestPredicates(t *testing.T) {
	assert.True(t, eligibility.IsParticipantValid(12, ffcoLike))
	assert.False(t, eligibility.IsParticipantValid(11, ffcoLike))
	assert.True(t, eligibility.IsMinor(15, ffcoLike))
	assert.False(t, eligibility.IsMinor(16, ffcoLike))
	assert.True(t, eligibility.IsAdult(18, ffcoLike))
	assert.False(t, eligibility.IsAdult(17, ffcoLike))
}
