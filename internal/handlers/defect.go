package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/testtrackhq/testtrack-backend/internal/services"
)

type DefectHandler struct {
	defectService services.DefectService
}

func NewDefectHandler(defectService services.DefectService) *DefectHandler {
	return &DefectHandler{defectService: defectService}
}

type createDefectRequest struct {
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description"`
	StepsToReproduce string    `json:"steps_to_reproduce"`
	Severity         string    `json:"severity"`
	PriorityID       uuid.UUID `json:"priority_id" binding:"required"`
	TestRunID        uuid.UUID `json:"test_run_id" binding:"required"`
	ReportedByTeamID uuid.UUID `json:"reported_by_team_id" binding:"required"`
}

func (dh *DefectHandler) Create(c *gin.Context) {
	var req createDefectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defect, err := dh.defectService.CreateDefect(c.Request.Context(), services.CreateDefectInput{
		Title:            req.Title,
		Description:      req.Description,
		StepsToReproduce: req.StepsToReproduce,
		Severity:         req.Severity,
		PriorityID:       req.PriorityID,
		TestRunID:        req.TestRunID,
		ReportedByTeamID: req.ReportedByTeamID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"defect": defect})
}

func (dh *DefectHandler) Get(c *gin.Context) {
	defectID, err := uuid.Parse(c.Param("defectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defect, err := dh.defectService.GetDefect(c.Request.Context(), defectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"defect": defect})
}

func (dh *DefectHandler) ListByRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defects, err := dh.defectService.GetRunDefects(c.Request.Context(), runID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"defects": defects})
}

type updateDefectRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Severity    *string    `json:"severity"`
	PriorityID  *uuid.UUID `json:"priority_id"`
}

func (dh *DefectHandler) Update(c *gin.Context) {
	defectID, err := uuid.Parse(c.Param("defectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req updateDefectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defect, err := dh.defectService.UpdateDefect(c.Request.Context(), defectID, services.UpdateDefectInput{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		PriorityID:  req.PriorityID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"defect": defect})
}

type resolveDefectRequest struct {
	StepsToReproduce *string `json:"steps_to_reproduce"`
	Severity         *string `json:"severity"`
}

func (dh *DefectHandler) Resolve(c *gin.Context) {
	defectID, err := uuid.Parse(c.Param("defectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req resolveDefectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}
	defect, err := dh.defectService.ResolveDefect(c.Request.Context(), defectID, services.ResolveDefectInput{
		StepsToReproduce: req.StepsToReproduce,
		Severity:         req.Severity,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"defect": defect})
}

func (dh *DefectHandler) Delete(c *gin.Context) {
	defectID, err := uuid.Parse(c.Param("defectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := dh.defectService.DeleteDefect(c.Request.Context(), defectID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
