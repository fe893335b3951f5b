package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/testtrackhq/testtrack-backend/internal/services"
)

type TestRunHandler struct {
	testRunService services.TestRunService
}

func NewTestRunHandler(testRunService services.TestRunService) *TestRunHandler {
	return &TestRunHandler{testRunService: testRunService}
}

type createTestRunRequest struct {
	TaskID          uuid.UUID  `json:"task_id" binding:"required"`
	Name            string     `json:"name" binding:"required"`
	CreatedByTeamID uuid.UUID  `json:"created_by_team_id" binding:"required"`
	ExecutingTeamID *uuid.UUID `json:"executing_team_id"`
	RunDate         *time.Time `json:"run_date"`
}

func (rh *TestRunHandler) Create(c *gin.Context) {
	var req createTestRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	input := services.CreateTestRunInput{
		TaskID:          req.TaskID,
		Name:            req.Name,
		CreatedByTeamID: req.CreatedByTeamID,
		ExecutingTeamID: req.ExecutingTeamID,
	}
	if req.RunDate != nil {
		input.RunDate = *req.RunDate
	}
	run, err := rh.testRunService.CreateTestRun(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"test_run": run})
}

func (rh *TestRunHandler) ListByTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	runs, err := rh.testRunService.GetTaskTestRuns(c.Request.Context(), taskID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"test_runs": runs})
}

type updateTestRunStatusRequest struct {
	StatusID uuid.UUID `json:"status_id" binding:"required"`
}

func (rh *TestRunHandler) UpdateStatus(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req updateTestRunStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	run, err := rh.testRunService.UpdateTestRunStatus(c.Request.Context(), runID, req.StatusID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"test_run": run})
}

func (rh *TestRunHandler) Delete(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := rh.testRunService.DeleteTestRun(c.Request.Context(), runID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
