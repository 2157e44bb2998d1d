package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugcmarket/ugc-backend/internal/dto"
	"github.com/ugcmarket/ugc-backend/internal/http/handlers/common"
	"github.com/ugcmarket/ugc-backend/internal/http/response"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// JobHandler — жизненный цикл заданий.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler создаёт хэндлер заданий.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Create обрабатывает POST /jobs.
func (h *JobHandler) Create(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	var req dto.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), actor, service.JobInput{
		Title:          req.Title,
		Description:    req.Description,
		BudgetMinCents: req.BudgetMinCents,
		BudgetMaxCents: req.BudgetMaxCents,
		Currency:       req.Currency,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusCreated, job)
}

// List обрабатывает GET /jobs — витрина опубликованных заданий.
func (h *JobHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListVisible(c.Request.Context(), limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, jobs)
}

// ListMine обрабатывает GET /jobs/my.
func (h *JobHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListMine(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, jobs)
}

// Get обрабатывает GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	actor, _ := common.CurrentActor(c)
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, job)
}

// Update обрабатывает PUT /jobs/:id.
func (h *JobHandler) Update(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	var req dto.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	job, err := h.jobs.Update(c.Request.Context(), actor, jobID, service.JobInput{
		Title:          req.Title,
		Description:    req.Description,
		BudgetMinCents: req.BudgetMinCents,
		BudgetMaxCents: req.BudgetMaxCents,
		Currency:       req.Currency,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, job)
}

// lifecycleAction выполняет смену статуса задания без тела запроса.
func (h *JobHandler) lifecycleAction(c *gin.Context, fn func(*gin.Context, service.Actor) (interface{}, error)) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	data, err := fn(c, actor)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, data)
}

// Publish обрабатывает POST /jobs/:id/publish.
func (h *JobHandler) Publish(c *gin.Context) {
	h.lifecycleAction(c, func(c *gin.Context, actor service.Actor) (interface{}, error) {
		jobID, err := common.ParseUUIDParam(c, "id")
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		return h.jobs.Publish(c.Request.Context(), actor, jobID)
	})
}

// Pause обрабатывает POST /jobs/:id/pause.
func (h *JobHandler) Pause(c *gin.Context) {
	h.lifecycleAction(c, func(c *gin.Context, actor service.Actor) (interface{}, error) {
		jobID, err := common.ParseUUIDParam(c, "id")
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		return h.jobs.Pause(c.Request.Context(), actor, jobID)
	})
}

// Unpause обрабатывает POST /jobs/:id/unpause.
func (h *JobHandler) Unpause(c *gin.Context) {
	h.lifecycleAction(c, func(c *gin.Context, actor service.Actor) (interface{}, error) {
		jobID, err := common.ParseUUIDParam(c, "id")
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		return h.jobs.Unpause(c.Request.Context(), actor, jobID)
	})
}

// Close обрабатывает POST /jobs/:id/close.
func (h *JobHandler) Close(c *gin.Context) {
	h.lifecycleAction(c, func(c *gin.Context, actor service.Actor) (interface{}, error) {
		jobID, err := common.ParseUUIDParam(c, "id")
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		return h.jobs.Close(c.Request.Context(), actor, jobID)
	})
}

// Cancel обрабатывает POST /jobs/:id/cancel.
func (h *JobHandler) Cancel(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	var req dto.CancelJobRequest
	_ = c.ShouldBindJSON(&req)

	job, err := h.jobs.Cancel(c.Request.Context(), actor, jobID, req.Reason)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, job)
}

// Resubmit обрабатывает POST /jobs/:id/resubmit — повторная модерация.
func (h *JobHandler) Resubmit(c *gin.Context) {
	h.lifecycleAction(c, func(c *gin.Context, actor service.Actor) (interface{}, error) {
		jobID, err := common.ParseUUIDParam(c, "id")
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		return h.jobs.ResubmitModeration(c.Request.Context(), actor, jobID)
	})
}

// SubmitWork обрабатывает POST /jobs/:id/submissions.
func (h *JobHandler) SubmitWork(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	var req dto.SubmitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	sub, err := h.jobs.SubmitWork(c.Request.Context(), actor, jobID, req.Content, req.MediaID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, sub)
}

// ListSubmissions обрабатывает GET /jobs/:id/submissions.
func (h *JobHandler) ListSubmissions(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	subs, err := h.jobs.ListSubmissions(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, subs)
}

// ApproveWork обрабатывает POST /jobs/:id/approve — приёмка и выплата.
func (h *JobHandler) ApproveWork(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	settlement, err := h.jobs.ApproveWork(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, settlement)
}

// RequestChanges обрабатывает POST /jobs/:id/request-changes.
func (h *JobHandler) RequestChanges(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	if err := h.jobs.RequestChanges(c.Request.Context(), actor, jobID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"changes_requested": true})
}
