// Package eligibility decides whether a roster of participant ages may
// form a valid team for a leisure race.
//
// The rule is a three-tier threshold triple Min <= Intermediate <= Adult:
// every participant must be at least Min years old, and a team containing
// anyone under Intermediate must also contain a supervisor aged Adult or
// over. The engine is a pure function of its arguments and never panics;
// domain failures come back inside Result, structural input failures
// (future birthdates) as a plain error.
package eligibility

import (
	"fmt"
	"time"
)

// Thresholds is the (min, intermediate, adult) age triple for one raid.
// Zero values are legal as long as the triple stays non-decreasing.
type Thresholds struct {
	Min          int `json:"min"`
	Intermediate int `json:"intermediate"`
	Adult        int `json:"adult"`
}

// Validate checks the non-decreasing invariant of the triple.
func (t Thresholds) Validate() error {
	if t.Min < 0 {
		return fmt.Errorf("minimum age %d is negative", t.Min)
	}
	if t.Min > t.Intermediate || t.Intermediate > t.Adult {
		return fmt.Errorf("thresholds must satisfy min <= intermediate <= adult, got %d/%d/%d",
			t.Min, t.Intermediate, t.Adult)
	}
	return nil
}

// Details lists which roster ages counted as minors (under the
// intermediate threshold) and as qualifying adults (at or above the
// adult threshold).
type Details struct {
	Minors []int `json:"minors"`
	Adults []int `json:"adults"`
}

// Result is the outcome of one roster validation.
type Result struct {
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors"`
	Details Details  `json:"details"`
}

// IsParticipantValid reports whether age meets the absolute minimum.
func IsParticipantValid(age int, t Thresholds) bool {
	return age >= t.Min
}

// IsMinor reports whether age is below the intermediate threshold.
func IsMinor(age int, t Thresholds) bool {
	return age < t.Intermediate
}

// IsAdult reports whether age qualifies as a supervisor.
func IsAdult(age int, t Thresholds) bool {
	return age >= t.Adult
}

// ValidateAges validates a roster of ages against t.
//
// The roster is valid iff every age >= t.Min and either every age >=
// t.Intermediate or at least one age >= t.Adult. An empty roster is
// rejected explicitly rather than passing vacuously.
func ValidateAges(ages []int, t Thresholds) Result {
	res := Result{
		Details: Details{Minors: []int{}, Adults: []int{}},
	}

	if len(ages) == 0 {
		res.Errors = append(res.Errors, "at least one participant is required")
		return res
	}

	underMin := false
	for _, age := range ages {
		if !IsParticipantValid(age, t) {
			underMin = true
		}
		if IsMinor(age, t) {
			res.Details.Minors = append(res.Details.Minors, age)
		}
		if IsAdult(age, t) {
			res.Details.Adults = append(res.Details.Adults, age)
		}
	}

	if underMin {
		res.Errors = append(res.Errors,
			fmt.Sprintf("at least one participant is under the minimum age of %d", t.Min))
	}
	if len(res.Details.Minors) > 0 && len(res.Details.Adults) == 0 {
		res.Errors = append(res.Errors,
			fmt.Sprintf("participants under %d must be accompanied by an adult aged %d or over",
				t.Intermediate, t.Adult))
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// ValidateBirthdates converts each birthdate to a civil age at ref and
// delegates to ValidateAges. A birthdate after ref is a structural input
// error, not a domain failure, and aborts the whole validation.
func ValidateBirthdates(birthdates []time.Time, ref time.Time, t Thresholds) (Result, error) {
	ages := make([]int, 0, len(birthdates))
	for _, bd := range birthdates {
		if bd.After(ref) {
			return Result{}, fmt.Errorf("birthdate %s is after reference date %s",
				bd.Format("2006-01-02"), ref.Format("2006-01-02"))
		}
		ages = append(ages, Age(bd, ref))
	}
	return ValidateAges(ages, t), nil
}

// Age returns the whole civil years elapsed between birth and ref:
// the year difference, minus one if ref falls before the anniversary.
// A Feb 29 birth counts its birthday as Mar 1 in non-leap years.
func Age(birth, ref time.Time) int {
	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() ||
		(ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return years
}
