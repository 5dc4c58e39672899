package controller

import (
	"errors"
	"strconv"

	"github.com/wyattbui/toeic-app-mimi-service/internal/service"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"

	"github.com/gin-gonic/gin"
)

type TestSetController struct {
	TestSetService *service.TestSetService
}

func NewTestSetController(testSetService *service.TestSetService) *TestSetController {
	return &TestSetController{TestSetService: testSetService}
}

// GenerateTestSet godoc
// @Summary Generate a randomized test set
// @Description Samples questions from the part's pool and persists the set with a frozen question snapshot
// @Tags test-sets
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.GenerateTestSetReq true "Generation parameters"
// @Success 201 {object} util.Response{data=model.TestSet} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Failure 404 {object} util.Response "Part not found"
// @Router /api/questions/test-sets/generate [post]
func (c *TestSetController) GenerateTestSet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GenerateTestSetReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	testSet, err := c.TestSetService.GenerateTestSet(claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrPartNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, testSet)
}

// GetMyTestSets godoc
// @Summary List the current user's test sets
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TestSet} "Success"
// @Router /api/questions/test-sets/my [get]
func (c *TestSetController) GetMyTestSets(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	testSets, err := c.TestSetService.GetUserTestSets(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, testSets)
}

// GetAbandonedTestSets godoc
// @Summary List test sets left open for more than a day
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TestSet} "Success"
// @Router /api/questions/test-sets/abandoned [get]
func (c *TestSetController) GetAbandonedTestSets(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	testSets, err := c.TestSetService.GetAbandonedTestSets(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, testSets)
}

// GetTestSet godoc
// @Summary Get one owned test set with its questions
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Test set ID"
// @Success 200 {object} util.Response{data=model.TestSet} "Success"
// @Failure 404 {object} util.Response "Test set not found"
// @Router /api/questions/test-sets/{id} [get]
func (c *TestSetController) GetTestSet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, ok := c.pathID(ctx)
	if !ok {
		return
	}

	testSet, err := c.TestSetService.GetTestSet(claims.UserID, id)
	if err != nil {
		c.writeTestSetError(ctx, err)
		return
	}
	util.Success(ctx, testSet)
}

// StartTest godoc
// @Summary Start a created test set
// @Description Transitions the set to in_progress and records the start time. Only one start can win.
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Test set ID"
// @Success 200 {object} util.Response{data=model.TestSet} "Success"
// @Failure 404 {object} util.Response "Test set not found"
// @Failure 409 {object} util.Response "Not in the created state"
// @Router /api/questions/test-sets/{id}/start [post]
func (c *TestSetController) StartTest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, ok := c.pathID(ctx)
	if !ok {
		return
	}

	testSet, err := c.TestSetService.StartTest(claims.UserID, id)
	if err != nil {
		c.writeTestSetError(ctx, err)
		return
	}
	util.Success(ctx, testSet)
}

// SubmitTestSet godoc
// @Summary Submit answers for a test set
// @Description Grades the answers against the frozen snapshot, records them idempotently and completes the set
// @Tags test-sets
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitTestSetReq true "Answers"
// @Success 200 {object} util.Response{data=model.TestSet} "Success"
// @Failure 400 {object} util.Response "Invalid payload"
// @Failure 404 {object} util.Response "Test set not found"
// @Failure 409 {object} util.Response "Already completed"
// @Router /api/questions/test-sets/submit [post]
func (c *TestSetController) SubmitTestSet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitTestSetReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	testSet, err := c.TestSetService.SubmitTestSet(claims.UserID, req)
	if err != nil {
		c.writeTestSetError(ctx, err)
		return
	}
	util.Success(ctx, testSet)
}

// GetTestSetReview godoc
// @Summary Review a test set
// @Description Returns each snapshot question with the correct letter and the user's recorded answer
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Test set ID"
// @Success 200 {object} util.Response{data=service.TestSetReview} "Success"
// @Failure 404 {object} util.Response "Test set not found"
// @Router /api/questions/test-sets/{id}/review [get]
func (c *TestSetController) GetTestSetReview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, ok := c.pathID(ctx)
	if !ok {
		return
	}

	review, err := c.TestSetService.GetTestSetReview(claims.UserID, id)
	if err != nil {
		c.writeTestSetError(ctx, err)
		return
	}
	util.Success(ctx, review)
}

// DeleteTestSet godoc
// @Summary Delete an owned test set
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Test set ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Test set not found"
// @Router /api/questions/test-sets/{id} [delete]
func (c *TestSetController) DeleteTestSet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, ok := c.pathID(ctx)
	if !ok {
		return
	}

	if err := c.TestSetService.DeleteTestSet(claims.UserID, id); err != nil {
		c.writeTestSetError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetTestHistory godoc
// @Summary List the current user's completed test sets
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TestSet} "Success"
// @Router /api/questions/test-sets/history [get]
func (c *TestSetController) GetTestHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	history, err := c.TestSetService.GetUserTestHistory(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// GetStatistics godoc
// @Summary Aggregate the current user's completed test sets
// @Description Returns overall and per-part counts, averages and bests. Zeroes, not nulls, with no history.
// @Tags test-sets
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserStatistics} "Success"
// @Router /api/questions/test-sets/statistics/my [get]
func (c *TestSetController) GetStatistics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.TestSetService.GetUserStatistics(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// GetAllUsersHistory godoc
// @Summary List completed test sets across all users
// @Description Admin only
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TestSet} "Success"
// @Router /api/admin/test-sets/history [get]
func (c *TestSetController) GetAllUsersHistory(ctx *gin.Context) {
	history, err := c.TestSetService.GetAllUsersTestHistory()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// GetUserHistory godoc
// @Summary One user's completed test sets with statistics
// @Description Admin only
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Param   userId path int true "User ID"
// @Success 200 {object} util.Response{data=service.UserTestHistory} "Success"
// @Failure 404 {object} util.Response "User not found"
// @Router /api/admin/test-sets/history/{userId} [get]
func (c *TestSetController) GetUserHistory(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("userId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	history, err := c.TestSetService.GetUserHistoryWithStatistics(uint(userID))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, history)
}

func (c *TestSetController) pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid test set id")
		return 0, false
	}
	return uint(id), true
}

func (c *TestSetController) writeTestSetError(ctx *gin.Context, err error) {
	var conflict *service.StateConflictError
	switch {
	case errors.Is(err, util.ErrTestSetNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrTestSetCompleted):
		util.Conflict(ctx, err.Error())
	case errors.As(err, &conflict):
		util.Conflict(ctx, conflict.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
