package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/orientraid/raidapi/eligibility"
	"github.com/orientraid/raidapi/metrics"
)

// maxSaneAge guards against typoed input; it is an application-level
// sanity cap, not part of the age rule itself.
const maxSaneAge = 150

type checkEligibilityRequest struct {
	Ages          []int    `json:"ages"`
	Birthdates    []string `json:"birthdates"`
	ReferenceDate string   `json:"referenceDate"`
	RaidID        *int     `json:"raidID"`

	// Explicit thresholds win over raid and default ones.
	Thresholds *eligibility.Thresholds `json:"thresholds"`
}

// CheckEligibility runs an ad-hoc roster validation from raw ages or
// birthdates, without touching any stored team.
func (h *Handler) CheckEligibility(c echo.Context) error {
	var req checkEligibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Ages) > 0 && len(req.Birthdates) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "provide ages or birthdates, not both")
	}
	if len(req.Ages) == 0 && len(req.Birthdates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ages or birthdates are required")
	}

	thresholds := h.thresholds
	switch {
	case req.Thresholds != nil:
		thresholds = *req.Thresholds
		if err := thresholds.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	case req.RaidID != nil:
		t, err := h.raidThresholds(c.Request().Context(), *req.RaidID)
		if err != nil {
			return err
		}
		thresholds = t
	}

	var result eligibility.Result
	if len(req.Ages) > 0 {
		for _, age := range req.Ages {
			if age < 0 || age > maxSaneAge {
				return echo.NewHTTPError(http.StatusBadRequest, "age out of range")
			}
		}
		result = eligibility.ValidateAges(req.Ages, thresholds)
	} else {
		ref := time.Now()
		if req.ReferenceDate != "" {
			var err error
			ref, err = time.Parse(dateLayout, req.ReferenceDate)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "referenceDate must be YYYY-MM-DD")
			}
		}
		dates := make([]time.Time, 0, len(req.Birthdates))
		for _, bd := range req.Birthdates {
			d, err := time.Parse(dateLayout, bd)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "birthdate must be YYYY-MM-DD, got "+bd)
			}
			if eligibility.Age(d, ref) > maxSaneAge {
				return echo.NewHTTPError(http.StatusBadRequest, "age out of range for birthdate "+bd)
			}
			dates = append(dates, d)
		}
		var err error
		result, err = eligibility.ValidateBirthdates(dates, ref, thresholds)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	metrics.EligibilityChecks.WithLabelValues(metrics.OutcomeLabel(result.Valid)).Inc()
	return c.JSON(http.StatusOK, result)
}
