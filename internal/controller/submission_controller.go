package controller

import (
	"mooc_backend/internal/service"
	"mooc_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{SubmissionService: submissionService}
}

type slideSubmissionResponse struct {
	Submission interface{} `json:"submission"`
	State      interface{} `json:"state"`
}

// @Summary Submit answers for an exercise slide
// @Description Stores the submission, grades every task and returns the updated state. Each task is graded at most once.
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param request body service.SlideSubmissionRequest true "Slide submission"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 412 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /api/exercises/{id}/submissions [post]
func (c *SubmissionController) CreateSubmission(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SlideSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, state, err := c.SubmissionService.CreateSlideSubmission(ctx.Request.Context(), user.UserID, ctx.Param("id"), &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, slideSubmissionResponse{Submission: sub, State: state})
}
