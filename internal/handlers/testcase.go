package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/testtrackhq/testtrack-backend/internal/services"
)

type TestCaseHandler struct {
	testCaseService services.TestCaseService
}

func NewTestCaseHandler(testCaseService services.TestCaseService) *TestCaseHandler {
	return &TestCaseHandler{testCaseService: testCaseService}
}

type createTestCaseRequest struct {
	TaskID         uuid.UUID  `json:"task_id" binding:"required"`
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Steps          []string   `json:"steps"`
	ExpectedResult string     `json:"expected_result"`
	TypeID         *uuid.UUID `json:"type_id"`
	AuthorTeamID   uuid.UUID  `json:"author_team_id" binding:"required"`
}

func (ch *TestCaseHandler) Create(c *gin.Context) {
	var req createTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	testCase, err := ch.testCaseService.CreateTestCase(c.Request.Context(), services.CreateTestCaseInput{
		TaskID:         req.TaskID,
		Title:          req.Title,
		Description:    req.Description,
		Steps:          req.Steps,
		ExpectedResult: req.ExpectedResult,
		TypeID:         req.TypeID,
		AuthorTeamID:   req.AuthorTeamID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"test_case": testCase})
}

func (ch *TestCaseHandler) ListByTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	cases, err := ch.testCaseService.GetTaskTestCases(c.Request.Context(), taskID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"test_cases": cases})
}

type updateTestCaseRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Steps          []string   `json:"steps"`
	ExpectedResult *string    `json:"expected_result"`
	ActualResult   *string    `json:"actual_result"`
	TypeID         *uuid.UUID `json:"type_id"`
	StatusID       *uuid.UUID `json:"status_id"`
}

func (ch *TestCaseHandler) Update(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("caseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req updateTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	testCase, err := ch.testCaseService.UpdateTestCase(c.Request.Context(), caseID, services.UpdateTestCaseInput{
		Title:          req.Title,
		Description:    req.Description,
		Steps:          req.Steps,
		ExpectedResult: req.ExpectedResult,
		ActualResult:   req.ActualResult,
		TypeID:         req.TypeID,
		StatusID:       req.StatusID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"test_case": testCase})
}

func (ch *TestCaseHandler) Delete(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("caseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.testCaseService.DeleteTestCase(c.Request.Context(), caseID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
