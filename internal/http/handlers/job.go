package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/relocation-intake/internal/http/response"
	"github.com/yungbote/relocation-intake/internal/pkg/ctxutil"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	"github.com/yungbote/relocation-intake/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id", "invalid_job_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	job, err := h.jobs.GetByIDForUser(dbctx.Context{Ctx: ctx}, ctxutil.UserID(ctx), jobID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
