package controller

import (
	"mooc_backend/internal/service"
	"mooc_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PeerReviewController struct {
	PeerReviewService *service.PeerReviewService
}

func NewPeerReviewController(peerReviewService *service.PeerReviewService) *PeerReviewController {
	return &PeerReviewController{PeerReviewService: peerReviewService}
}

// @Summary Get a submission to peer review
// @Description Picks another learner's submission for the current user to review, preferring submissions that still need reviews. Returns no data when nothing is available yet.
// @Tags peer-reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param courseInstanceId query string false "Course instance context"
// @Param examId query string false "Exam context"
// @Success 200 {object} util.Response
// @Failure 412 {object} util.Response
// @Router /api/exercises/{id}/peer-review [get]
func (c *PeerReviewController) GetReviewTarget(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	target, err := c.PeerReviewService.SelectCandidate(user.UserID, ctx.Param("id"), contextFromQuery(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, target)
}

// @Summary Submit a peer review
// @Description Records the review and re-aggregates both the reviewer's and the receiver's exercise states.
// @Tags peer-reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param request body service.PeerReviewSubmissionRequest true "Peer review"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 412 {object} util.Response
// @Router /api/exercises/{id}/peer-reviews [post]
func (c *PeerReviewController) SubmitReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.PeerReviewSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	state, err := c.PeerReviewService.Submit(user.UserID, ctx.Param("id"), &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, state)
}
