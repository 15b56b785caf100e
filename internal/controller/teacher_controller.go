package controller

import (
	"strconv"

	"mooc_backend/internal/service"
	"mooc_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// TeacherController bundles the teacher-facing operations: authoring
// exercises, manual grading decisions, regrades and submission listings.
type TeacherController struct {
	ExerciseService       *service.ExerciseService
	SubmissionService     *service.SubmissionService
	TeacherGradingService *service.TeacherGradingService
	RegradingService      *service.RegradingService
}

func NewTeacherController(exerciseService *service.ExerciseService, submissionService *service.SubmissionService, teacherGradingService *service.TeacherGradingService, regradingService *service.RegradingService) *TeacherController {
	return &TeacherController{
		ExerciseService:       exerciseService,
		SubmissionService:     submissionService,
		TeacherGradingService: teacherGradingService,
		RegradingService:      regradingService,
	}
}

// @Summary Create an exercise
// @Description Creates an exercise with its slides, tasks and optional peer-review config. Scale question weights are normalized to sum to 1.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateExerciseRequest true "Exercise definition"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/teacher/exercises [post]
func (c *TeacherController) CreateExercise(ctx *gin.Context) {
	var req service.CreateExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exercise, err := c.ExerciseService.CreateExercise(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, exercise)
}

// @Summary Get an exercise with full specs
// @Description Returns the exercise including private and model-solution specs and its peer-review config.
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/teacher/exercises/{id} [get]
func (c *TeacherController) GetExercise(ctx *gin.Context) {
	exercise, peerReviewConfig, err := c.ExerciseService.GetFull(ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"exercise":         exercise,
		"peerReviewConfig": peerReviewConfig,
	})
}

// @Summary Record a grading decision
// @Description Applies a manual decision (full points, zero points, custom points or suspected plagiarism) to a user's exercise state. Decisions may lower the score.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User exercise state ID"
// @Param request body service.TeacherDecisionRequest true "Decision"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/teacher/user-exercise-states/{id}/decision [post]
func (c *TeacherController) RecordDecision(ctx *gin.Context) {
	var req service.TeacherDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	state, err := c.TeacherGradingService.RecordDecision(ctx.Param("id"), &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, state)
}

// @Summary Regrade an exercise
// @Description Re-runs the grader over every live submission and re-aggregates all user states with the requested points update strategy.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param request body service.RegradeRequest true "Regrade options"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/teacher/exercises/{id}/regrade [post]
func (c *TeacherController) RegradeExercise(ctx *gin.Context) {
	var req service.RegradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	report, err := c.RegradingService.RegradeExercise(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// @Summary List submissions of an exercise
// @Description Pages through every slide submission of an exercise, newest first.
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response
// @Router /api/teacher/exercises/{id}/submissions [get]
func (c *TeacherController) ListSubmissions(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	subs, total, err := c.SubmissionService.ListForExercise(ctx.Param("id"), page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: subs, Total: total, Page: page, Limit: limit})
}
