package controller

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wyattbui/toeic-app-mimi-service/internal/service"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadSize = 10 << 20 // 10MB

type QuestionController struct {
	QuestionService *service.QuestionService
	StorageService  *service.StorageService
}

func NewQuestionController(questionService *service.QuestionService, storageService *service.StorageService) *QuestionController {
	return &QuestionController{
		QuestionService: questionService,
		StorageService:  storageService,
	}
}

// GetParts godoc
// @Summary List the seven TOEIC parts
// @Description Returns each part with its current question pool size
// @Tags questions
// @Produce  json
// @Success 200 {object} util.Response{data=[]repository.PartListRow} "Success"
// @Router /api/questions/parts [get]
func (c *QuestionController) GetParts(ctx *gin.Context) {
	parts, err := c.QuestionService.GetAllParts(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, parts)
}

// GetQuestionsByPart godoc
// @Summary List questions of one part
// @Tags questions
// @Produce  json
// @Param   partId path int true "Part ID"
// @Param   limit query int false "Maximum number of questions"
// @Success 200 {object} util.Response{data=[]model.Question} "Success"
// @Failure 400 {object} util.Response "Invalid part ID"
// @Router /api/questions/part/{partId} [get]
func (c *QuestionController) GetQuestionsByPart(ctx *gin.Context) {
	partID, err := strconv.ParseUint(ctx.Param("partId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid part id")
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))

	questions, err := c.QuestionService.GetQuestionsByPart(uint(partID), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// GetRandomQuestions godoc
// @Summary Draw a random practice sample
// @Description Samples questions across the whole catalog without persisting anything
// @Tags questions
// @Produce  json
// @Param   count query int false "Sample size (default 20)"
// @Param   difficulty query string false "easy, medium or hard"
// @Success 200 {object} util.Response{data=[]model.Question} "Success"
// @Router /api/questions/random [get]
func (c *QuestionController) GetRandomQuestions(ctx *gin.Context) {
	count, _ := strconv.Atoi(ctx.DefaultQuery("count", "0"))
	difficulty := ctx.Query("difficulty")
	if difficulty != "" && difficulty != "easy" && difficulty != "medium" && difficulty != "hard" {
		util.BadRequest(ctx, "difficulty must be easy, medium or hard")
		return
	}

	questions, err := c.QuestionService.GetRandomQuestions(count, difficulty)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// GetQuestion godoc
// @Summary Get one question with its options
// @Tags questions
// @Produce  json
// @Param   id path int true "Question ID"
// @Success 200 {object} util.Response{data=model.Question} "Success"
// @Failure 404 {object} util.Response "Question not found"
// @Router /api/questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	question, err := c.QuestionService.GetQuestionByID(uint(id))
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, question)
}

// CreateQuestion godoc
// @Summary Create a question
// @Description Options must hold 3-4 distinct letters with exactly one correct.
// @Tags questions
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateQuestionReq true "Question payload"
// @Success 201 {object} util.Response{data=model.Question} "Created"
// @Failure 400 {object} util.Response "Invalid payload or option set"
// @Failure 404 {object} util.Response "Part not found"
// @Router /api/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req service.CreateQuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuestionService.CreateQuestion(ctx.Request.Context(), req)
	if err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Description Patches the given fields; a present options array replaces the full option set.
// @Tags questions
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Question ID"
// @Param   body body service.UpdateQuestionReq true "Fields to update"
// @Success 200 {object} util.Response{data=model.Question} "Success"
// @Failure 400 {object} util.Response "Invalid payload or option set"
// @Failure 404 {object} util.Response "Question not found"
// @Router /api/questions/{id} [patch]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req service.UpdateQuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuestionService.UpdateQuestion(ctx.Request.Context(), uint(id), req)
	if err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Description Existing test-set snapshots keep their references.
// @Tags questions
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Question ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Question not found"
// @Router /api/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.QuestionService.DeleteQuestion(ctx.Request.Context(), uint(id)); err != nil {
		c.writeCatalogError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *QuestionController) writeCatalogError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuestionNotFound), errors.Is(err, util.ErrPartNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrOptionSet):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

var allowedMediaPrefixes = []string{"image/", "audio/"}

// UploadMedia godoc
// @Summary Upload question media
// @Description Accepts one image or audio file up to 10MB and returns its public URL. Audio uploads also return the probed duration.
// @Tags questions
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "Image or audio file"
// @Success 201 {object} util.Response{data=object} "Created"
// @Failure 400 {object} util.Response "Missing or oversized file"
// @Failure 415 {object} util.Response "Unsupported media type"
// @Router /api/questions/upload [post]
func (c *QuestionController) UploadMedia(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	if file.Size > maxUploadSize {
		util.BadRequest(ctx, util.ErrFileTooLarge.Error())
		return
	}

	contentType := file.Header.Get("Content-Type")
	allowed := false
	for _, prefix := range allowedMediaPrefixes {
		if strings.HasPrefix(contentType, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		util.Error(ctx, http.StatusUnsupportedMediaType, util.ErrUnsupportedMedia.Error())
		return
	}

	subdir := "images"
	if strings.HasPrefix(contentType, "audio/") {
		subdir = "audio"
	}
	filename := subdir + "/" + uuid.New().String() + filepath.Ext(file.Filename)

	tmp := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
	if err := ctx.SaveUploadedFile(file, tmp); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmp)

	payload := gin.H{"contentType": contentType, "size": file.Size}

	if subdir == "audio" {
		if info, err := util.ProbeAudio(tmp); err == nil {
			payload["duration"] = info.Duration
			payload["format"] = info.Format
		} else {
			logger.Log.Warn("audio probe failed", zap.String("file", file.Filename), zap.Error(err))
		}
	}

	url, err := c.StorageService.UploadFile(ctx.Request.Context(), filename, tmp, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	payload["url"] = url

	util.Created(ctx, payload)
}

// SubmitTest godoc
// @Summary Submit a flat practice test
// @Description Grades the answers against the live catalog and records a scored result
// @Tags results
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitTestReq true "Answers"
// @Success 201 {object} util.Response{data=model.TestResult} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Router /api/questions/submit-test [post]
func (c *QuestionController) SubmitTest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitTestReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuestionService.SubmitTest(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// GetUserResults godoc
// @Summary List the current user's flat test results
// @Tags results
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TestResult} "Success"
// @Router /api/questions/user/results [get]
func (c *QuestionController) GetUserResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	results, err := c.QuestionService.GetUserTestResults(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// CreateBookmark godoc
// @Summary Bookmark a question
// @Tags bookmarks
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateBookmarkReq true "Bookmark payload"
// @Success 201 {object} util.Response{data=model.Bookmark} "Created"
// @Failure 404 {object} util.Response "Question not found"
// @Failure 409 {object} util.Response "Already bookmarked"
// @Router /api/questions/bookmarks [post]
func (c *QuestionController) CreateBookmark(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateBookmarkReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	bookmark, err := c.QuestionService.CreateBookmark(claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrAlreadyBookmarked):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, bookmark)
}

// GetBookmarks godoc
// @Summary List the current user's bookmarks
// @Tags bookmarks
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Bookmark} "Success"
// @Router /api/questions/user/bookmarks [get]
func (c *QuestionController) GetBookmarks(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	bookmarks, err := c.QuestionService.GetUserBookmarks(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, bookmarks)
}

// DeleteBookmark godoc
// @Summary Remove a bookmark
// @Tags bookmarks
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Bookmark ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Bookmark not found"
// @Router /api/questions/bookmarks/{id} [delete]
func (c *QuestionController) DeleteBookmark(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid bookmark id")
		return
	}

	if err := c.QuestionService.RemoveBookmark(claims.UserID, uint(id)); err != nil {
		if errors.Is(err, util.ErrBookmarkNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
