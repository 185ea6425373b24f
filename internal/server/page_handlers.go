package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/absenced-dev/absenced/internal/absence"
	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/trips"
)

type loginPageData struct {
	Error  string
	Notice string
	Email  string
}

type policyOption struct {
	Name     string
	Label    string
	Selected bool
}

type tripRow struct {
	Index   int
	ID      string
	StartUK string
	EndUK   string
	Days    int
	Note    string
}

type summaryView struct {
	Days12Months int
	Max12Months  int
	Days5Years   int
	Max5Years    int
}

type earliestView struct {
	Found        bool
	DateUK       string
	Days12Months int
	Days5Years   int
	PresenceUK   string
	Present      bool
	SearchYears  int
}

type dashboardPageData struct {
	Email         string
	UserID        string
	Error         string
	Notice        string
	OnISO         string
	OnUK          string
	PolicyOptions []policyOption
	Trips         []tripRow
	Summary       summaryView
	Earliest      earliestView
	LastRecompute string
	DevDetails    bool
	Version       string
}

// @Summary Landing page
// @Description Sends the browser to the dashboard or the login screen
// @Tags pages
// @Router / [get]
func (s *Server) indexPage(c *gin.Context) {
	if _, err := resolveSession(c); err == nil {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

// @Summary Login screen
// @Description Renders the sign-in card; a live session skips straight to the dashboard
// @Tags pages
// @Router /login [get]
func (s *Server) loginPage(c *gin.Context) {
	if _, err := resolveSession(c); err == nil {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}

	c.HTML(http.StatusOK, "login", loginPageData{
		Error:  c.Query("error"),
		Notice: c.Query("notice"),
		Email:  c.Query("email"),
	})
}

// @Summary Privacy page
// @Tags pages
// @Router /privacy [get]
func (s *Server) privacyPage(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy", gin.H{})
}

// @Summary Dashboard
// @Description Renders saved trips, the rolling absence summary and the earliest application date
// @Tags pages
// @Router /dashboard [get]
func (s *Server) dashboardPage(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	on := time.Now()
	if raw := c.Query("on"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			on = parsed
		}
	}
	on = absence.Date(on)
	policyName := c.Query("policy")

	summary, err := s.eligibilityService.Summarize(c.Request.Context(), sessionData.UserID, on, policyName)
	if err != nil {
		// An unknown policy in the query string falls back to the default
		summary, err = s.eligibilityService.Summarize(c.Request.Context(), sessionData.UserID, on, "")
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to build absence summary")
			c.String(http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	earliest, err := s.eligibilityService.Earliest(c.Request.Context(), sessionData.UserID, on, summary.PolicyName)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to find earliest application date")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	userTrips, err := s.tripsService.List(c.Request.Context(), sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list trips")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	policySet := s.eligibilityService.Policies()
	limits := summary.Policy

	data := dashboardPageData{
		Email:      sessionData.Email,
		UserID:     sessionData.UserID,
		Error:      c.Query("error"),
		Notice:     c.Query("notice"),
		OnISO:      on.Format("2006-01-02"),
		OnUK:       absence.FormatUK(on),
		DevDetails: s.config.Server.DevDetails,
		Version:    s.version,
		Summary: summaryView{
			Days12Months: summary.Check.Days12Months,
			Max12Months:  limits.MaxTwelveMonthDays,
			Days5Years:   summary.Check.Days5Years,
			Max5Years:    limits.MaxFiveYearDays,
		},
		Earliest: earliestView{
			Found:        earliest.Found,
			SearchYears:  earliest.SearchYears,
			Days12Months: earliest.Check.Days12Months,
			Days5Years:   earliest.Check.Days5Years,
			Present:      earliest.Check.PresentOnPresenceDate,
		},
	}
	if earliest.Found {
		data.Earliest.DateUK = absence.FormatUK(earliest.Check.CandidateDate)
		data.Earliest.PresenceUK = absence.FormatUK(earliest.Check.PresenceDate)
	}

	for _, name := range policySet.Names() {
		data.PolicyOptions = append(data.PolicyOptions, policyOption{
			Name:     name,
			Label:    policySet.Label(name),
			Selected: name == summary.PolicyName,
		})
	}

	for i, trip := range userTrips {
		data.Trips = append(data.Trips, tripRow{
			Index:   i + 1,
			ID:      trip.ID,
			StartUK: absence.FormatUK(trip.StartDate),
			EndUK:   absence.FormatUK(trip.EndDate),
			Days:    trips.ToAbsenceTrip(trip).FullAbsenceDays(),
			Note:    trip.Note,
		})
	}

	var profile models.UserProfile
	if err := s.db.Where("id = ?", sessionData.UserID).First(&profile).Error; err == nil {
		if profile.LastRecomputeAt != nil {
			data.LastRecompute = profile.LastRecomputeAt.Format("02/01/2006 15:04 MST")
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn().Err(err).Msg("Failed to load user profile")
	}

	c.HTML(http.StatusOK, "dashboard", data)
}
