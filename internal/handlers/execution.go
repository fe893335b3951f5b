package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/testtrackhq/testtrack-backend/internal/services"
)

type ExecutionHandler struct {
	executionService services.ExecutionService
}

func NewExecutionHandler(executionService services.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: executionService}
}

type recordResultRequest struct {
	TestCaseID      uuid.UUID  `json:"test_case_id" binding:"required"`
	ActualResult    string     `json:"actual_result"`
	StatusID        uuid.UUID  `json:"status_id" binding:"required"`
	ExecutingTeamID *uuid.UUID `json:"executing_team_id"`
}

func (eh *ExecutionHandler) RecordResult(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req recordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	execution, err := eh.executionService.RecordResult(c.Request.Context(), services.RecordResultInput{
		TestRunID:       runID,
		TestCaseID:      req.TestCaseID,
		ActualResult:    req.ActualResult,
		StatusID:        req.StatusID,
		ExecutingTeamID: req.ExecutingTeamID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"execution": execution})
}

func (eh *ExecutionHandler) RunHistory(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	executions, err := eh.executionService.GetRunHistory(c.Request.Context(), runID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"executions": executions})
}
