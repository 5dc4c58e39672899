package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/internal/repository"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPracticeCount = 20
	partsCacheKey        = "toeic:parts"
	partsCacheTTL        = 10 * time.Minute
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	PartRepo     *repository.PartRepository
	ResultRepo   *repository.TestResultRepository
	BookmarkRepo *repository.BookmarkRepository
	Sampler      *util.Sampler
	Redis        *redis.Client
}

func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	partRepo *repository.PartRepository,
	resultRepo *repository.TestResultRepository,
	bookmarkRepo *repository.BookmarkRepository,
	sampler *util.Sampler,
	rdb *redis.Client,
) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		PartRepo:     partRepo,
		ResultRepo:   resultRepo,
		BookmarkRepo: bookmarkRepo,
		Sampler:      sampler,
		Redis:        rdb,
	}
}

// GetAllParts lists the seven sections with their pool sizes. The listing is
// reference data on the hottest public endpoint, so it is served from redis
// and refreshed on catalog writes.
func (s *QuestionService) GetAllParts(ctx context.Context) ([]repository.PartListRow, error) {
	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, partsCacheKey).Result(); err == nil {
			var cached []repository.PartListRow
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		}
	}

	rows, err := s.PartRepo.ListWithQuestionCounts()
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(rows); err == nil {
			if err := s.Redis.Set(ctx, partsCacheKey, payload, partsCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache parts listing", zap.Error(err))
			}
		}
	}

	return rows, nil
}

func (s *QuestionService) invalidatePartsCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, partsCacheKey).Err(); err != nil {
		logger.Log.Warn("failed to invalidate parts cache", zap.Error(err))
	}
}

func (s *QuestionService) GetQuestionsByPart(partID uint, limit int) ([]model.Question, error) {
	return s.QuestionRepo.ListByPart(partID, limit)
}

// GetRandomQuestions draws a non-persisted practice sample across the whole
// catalog, optionally narrowed by difficulty.
func (s *QuestionService) GetRandomQuestions(count int, difficulty string) ([]model.Question, error) {
	if count <= 0 {
		count = defaultPracticeCount
	}

	questions, err := s.QuestionRepo.ListAll(difficulty)
	if err != nil {
		return nil, err
	}

	selected := make([]model.Question, 0, count)
	for _, idx := range s.Sampler.SampleIndices(len(questions), count) {
		selected = append(selected, questions[idx])
	}
	return selected, nil
}

func (s *QuestionService) GetQuestionByID(id uint) (*model.Question, error) {
	question, err := s.QuestionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	return question, err
}

type OptionReq struct {
	OptionLetter string `json:"optionLetter" binding:"required,oneof=A B C D"`
	OptionText   string `json:"optionText" binding:"required"`
	IsCorrect    bool   `json:"isCorrect"`
}

type CreateQuestionReq struct {
	PartID       uint        `json:"partId" binding:"required"`
	QuestionText string      `json:"questionText" binding:"required"`
	QuestionType string      `json:"questionType" binding:"required,oneof=single multiple passage"`
	Difficulty   string      `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Explanation  *string     `json:"explanation"`
	AudioURL     *string     `json:"audioUrl"`
	ImageURL     *string     `json:"imageUrl"`
	PassageText  *string     `json:"passageText"`
	PassageTitle *string     `json:"passageTitle"`
	Options      []OptionReq `json:"options" binding:"required,min=3,max=4,dive"`
}

// validateOptions enforces the authoring invariant: 3-4 options, distinct
// letters, exactly one flagged correct. Storage does not enforce this, so
// the write path must.
func validateOptions(options []OptionReq) error {
	if len(options) < 3 || len(options) > 4 {
		return util.ErrOptionSet
	}
	letters := make(map[string]bool, len(options))
	correct := 0
	for _, opt := range options {
		if letters[opt.OptionLetter] {
			return util.ErrOptionSet
		}
		letters[opt.OptionLetter] = true
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return util.ErrOptionSet
	}
	return nil
}

func (s *QuestionService) CreateQuestion(ctx context.Context, req CreateQuestionReq) (*model.Question, error) {
	if _, err := s.PartRepo.FindByID(req.PartID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPartNotFound
		}
		return nil, err
	}
	if err := validateOptions(req.Options); err != nil {
		return nil, err
	}

	question := &model.Question{
		PartID:       req.PartID,
		QuestionText: req.QuestionText,
		QuestionType: req.QuestionType,
		Difficulty:   req.Difficulty,
	}
	applyOptionalText(question, req.Explanation, req.AudioURL, req.ImageURL, req.PassageText, req.PassageTitle)
	for _, opt := range req.Options {
		question.Options = append(question.Options, model.Option{
			OptionLetter: opt.OptionLetter,
			OptionText:   opt.OptionText,
			IsCorrect:    opt.IsCorrect,
		})
	}

	if err := s.QuestionRepo.CreateWithOptions(question); err != nil {
		return nil, err
	}

	s.invalidatePartsCache(ctx)
	return s.QuestionRepo.FindByID(question.ID)
}

type UpdateQuestionReq struct {
	PartID       *uint        `json:"partId"`
	QuestionText *string      `json:"questionText"`
	QuestionType *string      `json:"questionType" binding:"omitempty,oneof=single multiple passage"`
	Difficulty   *string      `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Explanation  *string      `json:"explanation"`
	AudioURL     *string      `json:"audioUrl"`
	ImageURL     *string      `json:"imageUrl"`
	PassageText  *string      `json:"passageText"`
	PassageTitle *string      `json:"passageTitle"`
	Options      *[]OptionReq `json:"options" binding:"omitempty,dive"`
}

// UpdateQuestion patches the given fields; when options are present the full
// option set is replaced. Existing test-set snapshots keep their question
// references and ordering regardless.
func (s *QuestionService) UpdateQuestion(ctx context.Context, id uint, req UpdateQuestionReq) (*model.Question, error) {
	question, err := s.QuestionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.PartID != nil {
		if _, err := s.PartRepo.FindByID(*req.PartID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrPartNotFound
			}
			return nil, err
		}
		question.PartID = *req.PartID
	}
	if req.QuestionText != nil {
		question.QuestionText = *req.QuestionText
	}
	if req.QuestionType != nil {
		question.QuestionType = *req.QuestionType
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	applyOptionalText(question, req.Explanation, req.AudioURL, req.ImageURL, req.PassageText, req.PassageTitle)

	var replacement []model.Option
	if req.Options != nil {
		if err := validateOptions(*req.Options); err != nil {
			return nil, err
		}
		replacement = make([]model.Option, 0, len(*req.Options))
		for _, opt := range *req.Options {
			replacement = append(replacement, model.Option{
				OptionLetter: opt.OptionLetter,
				OptionText:   opt.OptionText,
				IsCorrect:    opt.IsCorrect,
			})
		}
	}

	question.Part = nil
	question.Options = nil
	if err := s.QuestionRepo.UpdateWithOptions(question, replacement); err != nil {
		return nil, err
	}

	s.invalidatePartsCache(ctx)
	return s.QuestionRepo.FindByID(id)
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, id uint) error {
	if _, err := s.QuestionRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuestionNotFound
		}
		return err
	}
	if err := s.QuestionRepo.Delete(id); err != nil {
		return err
	}
	s.invalidatePartsCache(ctx)
	return nil
}

func applyOptionalText(q *model.Question, explanation, audioURL, imageURL, passageText, passageTitle *string) {
	if explanation != nil {
		q.Explanation = *explanation
	}
	if audioURL != nil {
		q.AudioURL = *audioURL
	}
	if imageURL != nil {
		q.ImageURL = *imageURL
	}
	if passageText != nil {
		q.PassageText = *passageText
	}
	if passageTitle != nil {
		q.PassageTitle = *passageTitle
	}
}

type AnswerReq struct {
	QuestionID     uint   `json:"questionId" binding:"required"`
	SelectedOption string `json:"selectedOption" binding:"required,oneof=A B C D"`
	TimeSpent      *int   `json:"timeSpent" binding:"omitempty,min=0"`
}

type SubmitTestReq struct {
	TestType string      `json:"testType" binding:"required"`
	Duration int         `json:"duration" binding:"required,min=1"`
	Answers  []AnswerReq `json:"answers" binding:"required,min=1,dive"`
}

// SubmitTest is the flat (non-test-set) submission flow. It grades against
// the live catalog and records a TestResult with TOEIC-style section scores.
// Unknown question IDs are skipped.
func (s *QuestionService) SubmitTest(userID uint, req SubmitTestReq) (*model.TestResult, error) {
	result := &model.TestResult{
		UserID:   userID,
		TestType: req.TestType,
		Duration: req.Duration,
	}
	if err := s.ResultRepo.Create(result); err != nil {
		return nil, err
	}

	correctAnswers := 0
	listeningCorrect := 0
	readingCorrect := 0

	for _, answer := range req.Answers {
		question, err := s.QuestionRepo.FindByID(answer.QuestionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		isCorrect := false
		for _, opt := range question.Options {
			if opt.IsCorrect {
				isCorrect = opt.OptionLetter == answer.SelectedOption
				break
			}
		}

		record := &model.UserAnswer{
			TestResultID:   result.ID,
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			IsCorrect:      isCorrect,
		}
		if answer.TimeSpent != nil {
			record.TimeSpent = *answer.TimeSpent
		}
		if err := s.ResultRepo.CreateAnswer(record); err != nil {
			return nil, err
		}

		if isCorrect {
			correctAnswers++
			if question.Part != nil && question.Part.SkillType == model.SkillListening {
				listeningCorrect++
			} else {
				readingCorrect++
			}
		}
	}

	// Simplified linear approximation of TOEIC scaling, not the official
	// conversion table. The listening section is normalized over the full
	// 100-question section size.
	totalScore := TOEICScore(correctAnswers, len(req.Answers))
	listeningScore := TOEICScore(listeningCorrect, 100)
	readingScore := totalScore - listeningScore

	if err := s.ResultRepo.UpdateScores(result.ID, totalScore, listeningScore, readingScore); err != nil {
		return nil, err
	}

	return s.ResultRepo.FindByID(result.ID)
}

// TOEICScore maps a correct-answer ratio onto the 495-point section scale.
func TOEICScore(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 495))
}

func (s *QuestionService) GetUserTestResults(userID uint) ([]model.TestResult, error) {
	return s.ResultRepo.ListByUser(userID)
}

type CreateBookmarkReq struct {
	QuestionID uint    `json:"questionId" binding:"required"`
	Note       *string `json:"note"`
}

func (s *QuestionService) CreateBookmark(userID uint, req CreateBookmarkReq) (*model.Bookmark, error) {
	if _, err := s.QuestionRepo.FindByID(req.QuestionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	if _, err := s.BookmarkRepo.FindByUserAndQuestion(userID, req.QuestionID); err == nil {
		return nil, util.ErrAlreadyBookmarked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bookmark := &model.Bookmark{
		UserID:     userID,
		QuestionID: req.QuestionID,
	}
	if req.Note != nil {
		bookmark.Note = *req.Note
	}

	if err := s.BookmarkRepo.Create(bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *QuestionService) GetUserBookmarks(userID uint) ([]model.Bookmark, error) {
	return s.BookmarkRepo.ListByUser(userID)
}

// RemoveBookmark deletes an owned bookmark. A bookmark owned by someone else
// reports not-found, same as a missing one.
func (s *QuestionService) RemoveBookmark(userID, bookmarkID uint) error {
	bookmark, err := s.BookmarkRepo.FindByID(bookmarkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrBookmarkNotFound
	}
	if err != nil {
		return err
	}
	if bookmark.UserID != userID {
		return util.ErrBookmarkNotFound
	}
	return s.BookmarkRepo.Delete(bookmarkID)
}
