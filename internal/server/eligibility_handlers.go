package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/absenced-dev/absenced/internal/absence"
	"github.com/absenced-dev/absenced/internal/eligibility"
)

type SummaryResponse struct {
	Policy             string                 `json:"policy"`
	PolicyLabel        string                 `json:"policy_label"`
	MaxTwelveMonthDays int                    `json:"max_twelve_month_days"`
	MaxFiveYearDays    int                    `json:"max_five_year_days"`
	TripCount          int                    `json:"trip_count"`
	Check              absence.CandidateCheck `json:"check"`
}

type EarliestResponse struct {
	Policy             string                  `json:"policy"`
	PolicyLabel        string                  `json:"policy_label"`
	MaxTwelveMonthDays int                     `json:"max_twelve_month_days"`
	MaxFiveYearDays    int                     `json:"max_five_year_days"`
	SearchYears        int                     `json:"search_years"`
	Found              bool                    `json:"found"`
	Check              *absence.CandidateCheck `json:"check,omitempty"`
}

type PolicyResponse struct {
	Name               string `json:"name"`
	Label              string `json:"label"`
	MaxTwelveMonthDays int    `json:"max_twelve_month_days"`
	MaxFiveYearDays    int    `json:"max_five_year_days"`
	SearchYears        int    `json:"search_years"`
	Default            bool   `json:"default"`
}

// parseOnQuery reads the optional candidate date from the on query
// parameter, defaulting to today.
func parseOnQuery(c *gin.Context) (time.Time, error) {
	raw := c.Query("on")
	if raw == "" {
		return time.Now(), nil
	}
	on, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return on, nil
}

// validatePolicyQuery rejects policy names the configured set does not
// know, so callers get a 400 instead of a masked 500.
func (s *Server) validatePolicyQuery(c *gin.Context) (string, bool) {
	name := c.Query("policy")
	if name == "" {
		return "", true
	}
	if _, err := s.eligibilityService.Policies().Get(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return name, true
}

// @Summary Absence summary
// @Description Check the rolling absence counts and presence test as of a candidate date
// @Tags eligibility
// @Produce json
// @Security BearerAuth
// @Param on query string false "Candidate date (YYYY-MM-DD, default today)"
// @Param policy query string false "Policy preset name"
// @Success 200 {object} SummaryResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/summary [get]
func (s *Server) getSummary(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	on, err := parseOnQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	policyName, ok := s.validatePolicyQuery(c)
	if !ok {
		return
	}

	summary, err := s.eligibilityService.Summarize(c.Request.Context(), sessionData.UserID, on, policyName)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error computing absence summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Policy:             summary.PolicyName,
		PolicyLabel:        summary.PolicyLabel,
		MaxTwelveMonthDays: summary.Policy.MaxTwelveMonthDays,
		MaxFiveYearDays:    summary.Policy.MaxFiveYearDays,
		TripCount:          summary.TripCount,
		Check:              summary.Check,
	})
}

// @Summary Earliest application date
// @Description Scan forward from today for the first date on which an application would pass
// @Tags eligibility
// @Produce json
// @Security BearerAuth
// @Param on query string false "Date to scan from (YYYY-MM-DD, default today)"
// @Param policy query string false "Policy preset name"
// @Success 200 {object} EarliestResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/earliest [get]
func (s *Server) getEarliest(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	on, err := parseOnQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	policyName, ok := s.validatePolicyQuery(c)
	if !ok {
		return
	}

	result, err := s.eligibilityService.Earliest(c.Request.Context(), sessionData.UserID, on, policyName)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error searching for earliest application date")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := EarliestResponse{
		Policy:             result.PolicyName,
		PolicyLabel:        result.PolicyLabel,
		MaxTwelveMonthDays: result.Policy.MaxTwelveMonthDays,
		MaxFiveYearDays:    result.Policy.MaxFiveYearDays,
		SearchYears:        result.SearchYears,
		Found:              result.Found,
	}
	if result.Found {
		check := result.Check
		response.Check = &check
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Recompute eligibility now
// @Description Run the full calculation synchronously and store a fresh snapshot
// @Tags eligibility
// @Produce json
// @Security BearerAuth
// @Param policy query string false "Policy preset name"
// @Success 200 {object} models.EligibilitySnapshot
// @Failure 400 {object} map[string]interface{}
// @Router /api/recompute [post]
func (s *Server) recompute(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	policyName, ok := s.validatePolicyQuery(c)
	if !ok {
		return
	}

	snapshot, err := s.eligibilityService.Recompute(c.Request.Context(), sessionData.UserID, policyName, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Error recomputing eligibility")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// @Summary List policy presets
// @Tags eligibility
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PolicyResponse
// @Router /api/policies [get]
func (s *Server) listPolicies(c *gin.Context) {
	set := s.eligibilityService.Policies()
	names := set.Names()

	responses := make([]PolicyResponse, 0, len(names))
	for _, name := range names {
		p, err := set.Get(name)
		if err != nil {
			continue
		}
		responses = append(responses, PolicyResponse{
			Name:               name,
			Label:              set.Label(name),
			MaxTwelveMonthDays: p.MaxTwelveMonthDays,
			MaxFiveYearDays:    p.MaxFiveYearDays,
			SearchYears:        p.SearchYears,
			Default:            name == s.eligibilityService.DefaultPolicy(),
		})
	}

	c.JSON(http.StatusOK, responses)
}

// @Summary Latest stored snapshot
// @Description Return the most recent background recompute result
// @Tags eligibility
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.EligibilitySnapshot
// @Failure 404 {object} map[string]interface{}
// @Router /api/snapshots/latest [get]
func (s *Server) getLatestSnapshot(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	snapshot, err := s.eligibilityService.LatestSnapshot(c.Request.Context(), sessionData.UserID)
	if errors.Is(err, eligibility.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No eligibility snapshot yet"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error loading latest snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
