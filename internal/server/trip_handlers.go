package server

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/absenced-dev/absenced/internal/absence"
	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/trips"
)

type CreateTripRequest struct {
	StartDate string `json:"start_date" binding:"required" validate:"required,dateonly"`
	EndDate   string `json:"end_date" binding:"required" validate:"required,dateonly"`
	Note      string `json:"note" validate:"max=500"`
}

type TripResponse struct {
	ID              string    `json:"id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Note            string    `json:"note"`
	FullAbsenceDays int       `json:"full_absence_days"`
	CreatedAt       time.Time `json:"created_at"`
}

func toTripResponse(trip models.Trip) TripResponse {
	return TripResponse{
		ID:              trip.ID,
		StartDate:       trip.StartDate,
		EndDate:         trip.EndDate,
		Note:            trip.Note,
		FullAbsenceDays: trips.ToAbsenceTrip(trip).FullAbsenceDays(),
		CreatedAt:       trip.CreatedAt,
	}
}

// dashboardRedirect sends the browser back to the dashboard with optional
// banner text.
func dashboardRedirect(c *gin.Context, params map[string]string) {
	v := url.Values{}
	for key, value := range params {
		if value != "" {
			v.Set(key, value)
		}
	}
	target := "/dashboard"
	if encoded := v.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusSeeOther, target)
}

// @Summary Add a trip (dashboard form)
// @Tags trips
// @Accept x-www-form-urlencoded
// @Success 303
// @Router /trips [post]
func (s *Server) createTripForm(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	start, startErr := time.Parse("2006-01-02", c.PostForm("start_date"))
	end, endErr := time.Parse("2006-01-02", c.PostForm("end_date"))
	if startErr != nil || endErr != nil {
		dashboardRedirect(c, map[string]string{"error": "Enter both dates as DD/MM/YYYY."})
		return
	}

	_, err := s.tripsService.Create(c.Request.Context(), trips.CreateParams{
		UserID:    sessionData.UserID,
		StartDate: start,
		EndDate:   end,
		Note:      c.PostForm("note"),
	})
	if errors.Is(err, absence.ErrEndBeforeStart) {
		dashboardRedirect(c, map[string]string{"error": "Return date cannot be before start date."})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error creating trip")
		dashboardRedirect(c, map[string]string{"error": "Could not save the trip, please try again."})
		return
	}

	dashboardRedirect(c, map[string]string{"notice": "Trip added."})
}

// @Summary Delete a trip (dashboard form)
// @Tags trips
// @Success 303
// @Router /trips/{id}/delete [post]
func (s *Server) deleteTripForm(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	err := s.tripsService.Delete(c.Request.Context(), sessionData.UserID, c.Param("id"))
	if err != nil && !errors.Is(err, trips.ErrTripNotFound) {
		s.logger.Error().Err(err).Msg("Error deleting trip")
		dashboardRedirect(c, map[string]string{"error": "Could not delete the trip, please try again."})
		return
	}

	dashboardRedirect(c, nil)
}

// @Summary List trips
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TripResponse
// @Router /api/trips [get]
func (s *Server) listTrips(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	userTrips, err := s.tripsService.List(c.Request.Context(), sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing trips")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	responses := make([]TripResponse, len(userTrips))
	for i, trip := range userTrips {
		responses[i] = toTripResponse(trip)
	}

	c.JSON(http.StatusOK, responses)
}

// @Summary Add a trip
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTripRequest true "Trip to add"
// @Success 201 {object} TripResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/trips [post]
func (s *Server) createTrip(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Parse request body
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	// Validate request
	if err := s.validator.Struct(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	// The dateonly validator guarantees both parses succeed
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	trip, err := s.tripsService.Create(c.Request.Context(), trips.CreateParams{
		UserID:    sessionData.UserID,
		StartDate: start,
		EndDate:   end,
		Note:      req.Note,
	})
	if errors.Is(err, absence.ErrEndBeforeStart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error creating trip")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toTripResponse(*trip))
}

// @Summary Delete a trip
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trip ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/trips/{id} [delete]
func (s *Server) deleteTrip(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	err := s.tripsService.Delete(c.Request.Context(), sessionData.UserID, c.Param("id"))
	if errors.Is(err, trips.ErrTripNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error deleting trip")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}
