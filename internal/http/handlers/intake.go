package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/relocation-intake/internal/http/response"
	"github.com/yungbote/relocation-intake/internal/pkg/ctxutil"
	"github.com/yungbote/relocation-intake/internal/services"
)

const maxBodyBytes = 1 << 20

type IntakeHandler struct {
	intake services.IntakeService
}

func NewIntakeHandler(intake services.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

func bindAnswers(c *gin.Context) (map[string]string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return nil, false
	}
	if len(req.Answers) == 0 {
		response.RespondError(c, http.StatusBadRequest, "missing_answers", nil)
		return nil, false
	}
	return req.Answers, true
}

func parseIDParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/intake/cases
func (h *IntakeHandler) SubmitInitialAnswers(c *gin.Context) {
	answers, ok := bindAnswers(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	res, err := h.intake.SubmitInitialAnswers(ctx, ctxutil.UserID(ctx), answers)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/intake/cases
func (h *IntakeHandler) ListCases(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	ctx := c.Request.Context()
	cases, err := h.intake.ListCases(ctx, ctxutil.UserID(ctx), limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cases": cases})
}

// GET /api/intake/cases/:id
func (h *IntakeHandler) GetCase(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id", "invalid_case_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	state, err := h.intake.GetCaseState(ctx, ctxutil.UserID(ctx), caseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, state)
}

// POST /api/intake/cases/:id/rounds
func (h *IntakeHandler) BeginRound(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id", "invalid_case_id")
	if !ok {
		return
	}
	answers, ok := bindAnswers(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	job, err := h.intake.BeginFollowUpRound(ctx, ctxutil.UserID(ctx), caseID, answers)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondAccepted(c, services.RoundStatus{
		JobID:  job.ID,
		CaseID: job.EntityID,
		Status: services.RoundProcessing,
		Stage:  job.Stage,
	})
}

// GET /api/intake/rounds/:job_id
func (h *IntakeHandler) PollRound(c *gin.Context) {
	jobID, ok := parseIDParam(c, "job_id", "invalid_job_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	st, err := h.intake.PollRoundStatus(ctx, ctxutil.UserID(ctx), jobID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, st)
}
