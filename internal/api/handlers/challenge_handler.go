package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nutripace/backend/internal/api/dto"
	"github.com/nutripace/backend/internal/api/middleware"
	"github.com/nutripace/backend/internal/domain/challenge"
)

// ChallengeHandler handles HTTP requests for challenge operations
type ChallengeHandler struct {
	service challenge.Service
}

// NewChallengeHandler creates a new ChallengeHandler instance
func NewChallengeHandler(service challenge.Service) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

// challengeStatusCode maps domain errors to HTTP status codes.
func challengeStatusCode(err error) int {
	switch {
	case errors.Is(err, challenge.ErrChallengeNotFound),
		errors.Is(err, challenge.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, challenge.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, challenge.ErrGoalTooVague),
		errors.Is(err, challenge.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, challenge.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CreateChallenge creates a new challenge for the authenticated user
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	var req dto.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	input := challenge.CreateChallengeInput{
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		GoalType:     challenge.GoalType(req.GoalType),
		GoalDetails:  req.GoalDetails,
		StartDate:    req.StartDate,
		DurationDays: req.DurationDays,
		Items:        req.Items,
		Source:       req.Source,
		SourceID:     req.SourceID,
	}

	created, err := h.service.CreateChallenge(c.Request.Context(), input)
	if err != nil {
		c.JSON(challengeStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": ChallengeToResponse(created)})
}

// GetChallenge returns a challenge with its checklist and recent logs
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge ID"})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	detail, err := h.service.GetChallenge(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(challengeStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ChallengeDetailToResponse(detail)})
}

// ListChallenges returns all challenges for the authenticated user
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	challenges, err := h.service.ListChallenges(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ChallengeListResponse{
		Challenges: ChallengesToResponse(challenges),
		TotalCount: len(challenges),
	}})
}

// ListActiveChallenges returns the authenticated user's active challenges
func (h *ChallengeHandler) ListActiveChallenges(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	challenges, err := h.service.ListActiveChallenges(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ChallengeListResponse{
		Challenges: ChallengesToResponse(challenges),
		TotalCount: len(challenges),
	}})
}

// UpdateChallenge updates a challenge and replaces its checklist
func (h *ChallengeHandler) UpdateChallenge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge ID"})
		return
	}

	var req dto.UpdateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	input := challenge.UpdateChallengeInput{
		Title:       req.Title,
		Description: req.Description,
		GoalDetails: req.GoalDetails,
		Items:       req.Items,
	}
	if req.GoalType != nil {
		goalType := challenge.GoalType(*req.GoalType)
		input.GoalType = &goalType
	}

	updated, err := h.service.UpdateChallenge(c.Request.Context(), id, userID, input)
	if err != nil {
		c.JSON(challengeStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ChallengeToResponse(updated)})
}

// CompleteChallenge marks an active challenge as completed
func (h *ChallengeHandler) CompleteChallenge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge ID"})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	completed, err := h.service.CompleteChallenge(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(challengeStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ChallengeToResponse(completed)})
}

// DeleteChallenge removes a challenge with its items and logs
func (h *ChallengeHandler) DeleteChallenge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge ID"})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.service.DeleteChallenge(c.Request.Context(), id, userID); err != nil {
		c.JSON(challengeStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleItem sets a checklist item's done state and rescores the day
func (h *ChallengeHandler) ToggleItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return
	}

	var req dto.ToggleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	item, err := h.service.ToggleItem(c.Request.Context(), itemID, userID, *req.Done)
	if err != nil {
		c.JSON(challengeStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ChallengeItemToResponse(item)})
}

// RecordDailyLog accepts a metrics snapshot for a date and evaluates the
// challenge goal against it. Used by the nutrition report pipeline.
func (h *ChallengeHandler) RecordDailyLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge ID"})
		return
	}

	var req dto.RecordDailyLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected YYYY-MM-DD"})
		return
	}

	if err := h.service.RecordDailyLog(c.Request.Context(), id, date, req.Metrics); err != nil {
		c.JSON(challengeStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "daily log recorded"})
}
