package controller

import (
	"mooc_backend/internal/model"
	"mooc_backend/internal/service"
	"mooc_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExerciseController struct {
	ExerciseService *service.ExerciseService
}

func NewExerciseController(exerciseService *service.ExerciseService) *ExerciseController {
	return &ExerciseController{ExerciseService: exerciseService}
}

// contextFromQuery reads the submission context from query parameters.
// Exactly one of courseInstanceId and examId must be present; the services
// validate that.
func contextFromQuery(ctx *gin.Context) model.SubmissionContext {
	var sctx model.SubmissionContext
	if v, ok := ctx.GetQuery("courseInstanceId"); ok {
		sctx.CourseInstanceID = &v
	}
	if v, ok := ctx.GetQuery("examId"); ok {
		sctx.ExamID = &v
	}
	return sctx
}

// @Summary Get an exercise for the current user
// @Description Returns the exercise with the user's assigned slide, public task specs only, and the user's current state. Creates the state on first access.
// @Tags exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param courseInstanceId query string false "Course instance context"
// @Param examId query string false "Exam context"
// @Success 200 {object} util.Response
// @Router /api/exercises/{id} [get]
func (c *ExerciseController) GetExercise(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.ExerciseService.GetForUser(user.UserID, ctx.Param("id"), contextFromQuery(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary Get the current user's exercise state
// @Description Returns the score and progress aggregate without creating it.
// @Tags exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param courseInstanceId query string false "Course instance context"
// @Param examId query string false "Exam context"
// @Success 200 {object} util.Response
// @Router /api/exercises/{id}/state [get]
func (c *ExerciseController) GetState(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	state, err := c.ExerciseService.GetState(user.UserID, ctx.Param("id"), contextFromQuery(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, state)
}
