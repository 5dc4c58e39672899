package service

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/internal/repository"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/logger"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultQuestionCount = 20
	defaultTimeLimit     = 60 // minutes
	abandonedAfter       = 24 * time.Hour
)

// StateConflictError reports a lifecycle transition attempted from the wrong
// state, naming the state the test set is actually in.
type StateConflictError struct {
	Action string
	Status string
}

func (e *StateConflictError) Error() string {
	return "cannot " + e.Action + " test with status: " + e.Status
}

type TestSetService struct {
	TestSetRepo  *repository.TestSetRepository
	QuestionRepo *repository.QuestionRepository
	PartRepo     *repository.PartRepository
	UserRepo     *repository.UserRepository
	Sampler      *util.Sampler
}

func NewTestSetService(
	testSetRepo *repository.TestSetRepository,
	questionRepo *repository.QuestionRepository,
	partRepo *repository.PartRepository,
	userRepo *repository.UserRepository,
	sampler *util.Sampler,
) *TestSetService {
	return &TestSetService{
		TestSetRepo:  testSetRepo,
		QuestionRepo: questionRepo,
		PartRepo:     partRepo,
		UserRepo:     userRepo,
		Sampler:      sampler,
	}
}

type GenerateTestSetReq struct {
	PartID        uint    `json:"partId" binding:"required"`
	Title         string  `json:"title" binding:"required"`
	Description   *string `json:"description"`
	QuestionCount *int    `json:"questionCount" binding:"omitempty,min=1,max=50"`
	TimeLimit     *int    `json:"timeLimit" binding:"omitempty,min=1"`
	Difficulty    *string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// GenerateTestSet samples a random question snapshot for the part (and
// difficulty, when given) and persists the set with its snapshot in one
// transaction. A pool smaller than the requested count is a warning, not a
// failure: the set is generated from everything available.
func (s *TestSetService) GenerateTestSet(userID uint, req GenerateTestSetReq) (*model.TestSet, error) {
	part, err := s.PartRepo.FindByID(req.PartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPartNotFound
	}
	if err != nil {
		return nil, err
	}

	difficulty := ""
	if req.Difficulty != nil {
		difficulty = *req.Difficulty
	}

	pool, err := s.QuestionRepo.ListPool(part.ID, difficulty)
	if err != nil {
		return nil, err
	}

	count := defaultQuestionCount
	if req.QuestionCount != nil {
		count = *req.QuestionCount
	}
	if len(pool) < count {
		logger.Log.Warn("question pool smaller than requested",
			zap.Uint("partId", part.ID),
			zap.String("difficulty", difficulty),
			zap.Int("requested", count),
			zap.Int("available", len(pool)),
		)
	}

	selected := make([]uint, 0, count)
	for _, idx := range s.Sampler.SampleIndices(len(pool), count) {
		selected = append(selected, pool[idx])
	}

	timeLimit := defaultTimeLimit
	if req.TimeLimit != nil {
		timeLimit = *req.TimeLimit
	}

	testSet := &model.TestSet{
		UserID:        userID,
		PartID:        part.ID,
		Title:         req.Title,
		QuestionCount: count,
		TimeLimit:     timeLimit,
		Difficulty:    difficulty,
		Status:        model.TestSetCreated,
	}
	if req.Description != nil {
		testSet.Description = *req.Description
	}

	if err := s.TestSetRepo.CreateWithQuestions(testSet, selected); err != nil {
		return nil, err
	}
	monitoring.TestSetsGenerated.WithLabelValues(strconv.Itoa(part.PartNumber)).Inc()

	return s.TestSetRepo.FindByID(testSet.ID)
}

// GetTestSet returns an owned, fully hydrated test set.
func (s *TestSetService) GetTestSet(userID, testSetID uint) (*model.TestSet, error) {
	if _, err := s.TestSetRepo.FindOwned(testSetID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestSetNotFound
		}
		return nil, err
	}
	return s.TestSetRepo.FindByID(testSetID)
}

func (s *TestSetService) GetUserTestSets(userID uint) ([]model.TestSet, error) {
	return s.TestSetRepo.ListByUser(userID)
}

// GetAbandonedTestSets lists the user's sets still open 24h after creation.
func (s *TestSetService) GetAbandonedTestSets(userID uint) ([]model.TestSet, error) {
	return s.TestSetRepo.ListAbandoned(userID, time.Now().Add(-abandonedAfter))
}

// StartTest transitions created -> in_progress with a single conditional
// update, so two racing starts cannot both win.
func (s *TestSetService) StartTest(userID, testSetID uint) (*model.TestSet, error) {
	rows, err := s.TestSetRepo.MarkStarted(testSetID, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		testSet, err := s.TestSetRepo.FindOwned(testSetID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestSetNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, &StateConflictError{Action: "start", Status: testSet.Status}
	}

	return s.TestSetRepo.FindOwned(testSetID, userID)
}

type TestSetAnswerReq struct {
	QuestionID     uint    `json:"questionId" binding:"required"`
	SelectedOption *string `json:"selectedOption" binding:"omitempty,oneof=A B C D"`
	TimeSpent      *int    `json:"timeSpent" binding:"omitempty,min=0"`
}

type SubmitTestSetReq struct {
	TestSetID uint               `json:"testSetId" binding:"required"`
	Answers   []TestSetAnswerReq `json:"answers" binding:"required"`
}

// SubmitTestSet grades and records the answers, then completes the set. The
// whole read-grade-write runs inside one transaction and the final
// transition is guarded on status, so a concurrent submit that loses the
// race gets a conflict and no double completion happens. Submitting from
// the created state is allowed and acts as an implicit start.
func (s *TestSetService) SubmitTestSet(userID uint, req SubmitTestSetReq) (*model.TestSet, error) {
	err := s.TestSetRepo.Transaction(func(tx *gorm.DB) error {
		testSet, err := s.TestSetRepo.FindOwnedWithSnapshot(tx, req.TestSetID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTestSetNotFound
		}
		if err != nil {
			return err
		}
		if testSet.Status == model.TestSetCompleted {
			return util.ErrTestSetCompleted
		}

		snapshot := make(map[uint]*model.Question, len(testSet.Questions))
		for i := range testSet.Questions {
			snapshot[testSet.Questions[i].QuestionID] = testSet.Questions[i].Question
		}

		correct, wrong := 0, 0
		for _, answer := range req.Answers {
			question, ok := snapshot[answer.QuestionID]
			if !ok {
				// Not part of this set's snapshot; malformed client input
				// is skipped, not rejected.
				continue
			}

			isCorrect := gradeAnswer(question, answer.SelectedOption)
			if isCorrect {
				correct++
			} else if answer.SelectedOption != nil {
				// A skipped question is neither correct nor wrong.
				wrong++
			}

			record := &model.TestSetAnswer{
				TestSetID:      testSet.ID,
				QuestionID:     answer.QuestionID,
				SelectedOption: answer.SelectedOption,
				IsCorrect:      isCorrect,
			}
			if answer.TimeSpent != nil {
				record.TimeSpent = *answer.TimeSpent
			}
			if err := s.TestSetRepo.UpsertAnswer(tx, record); err != nil {
				return err
			}
		}

		// The denominator is the requested question count, so partial
		// submissions score proportionally lower.
		totalScore := PercentageScore(correct, testSet.QuestionCount)

		rows, err := s.TestSetRepo.Complete(tx, testSet.ID, totalScore, correct, wrong, time.Now())
		if err != nil {
			return err
		}
		if rows == 0 {
			return util.ErrTestSetCompleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.TestSetRepo.FindByID(req.TestSetID)
}

// gradeAnswer evaluates one selection against the question's flagged-correct
// option. A question with no correct option flagged is a data-integrity
// anomaly and grades as incorrect rather than failing the submission; the
// same goes for a snapshot reference whose question has been deleted.
func gradeAnswer(question *model.Question, selected *string) bool {
	if question == nil || selected == nil {
		return false
	}
	for _, opt := range question.Options {
		if opt.IsCorrect {
			return opt.OptionLetter == *selected
		}
	}
	return false
}

// PercentageScore is the test-set scoring contract: correct answers over the
// originally requested question count, as a rounded percentage.
func PercentageScore(correct, questionCount int) int {
	if questionCount <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(questionCount) * 100))
}

type ReviewAnswer struct {
	SelectedOption *string `json:"selectedOption"`
	IsCorrect      bool    `json:"isCorrect"`
	TimeSpent      int     `json:"timeSpent"`
}

type ReviewQuestion struct {
	model.TestSetQuestion
	UserAnswer    *ReviewAnswer `json:"userAnswer"`
	CorrectAnswer string        `json:"correctAnswer,omitempty"`
}

type TestSetReview struct {
	*model.TestSet
	Questions []ReviewQuestion `json:"questions"`
}

// GetTestSetReview returns the hydrated set with, per snapshot question, the
// user's recorded answer and the correct letter.
func (s *TestSetService) GetTestSetReview(userID, testSetID uint) (*TestSetReview, error) {
	if _, err := s.TestSetRepo.FindOwned(testSetID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestSetNotFound
		}
		return nil, err
	}

	testSet, err := s.TestSetRepo.FindByID(testSetID)
	if err != nil {
		return nil, err
	}

	answers := make(map[uint]*model.TestSetAnswer, len(testSet.Answers))
	for i := range testSet.Answers {
		answers[testSet.Answers[i].QuestionID] = &testSet.Answers[i]
	}

	questions := make([]ReviewQuestion, 0, len(testSet.Questions))
	for _, tsq := range testSet.Questions {
		review := ReviewQuestion{TestSetQuestion: tsq}
		if tsq.Question != nil {
			for _, opt := range tsq.Question.Options {
				if opt.IsCorrect {
					review.CorrectAnswer = opt.OptionLetter
					break
				}
			}
		}
		if ans, ok := answers[tsq.QuestionID]; ok {
			review.UserAnswer = &ReviewAnswer{
				SelectedOption: ans.SelectedOption,
				IsCorrect:      ans.IsCorrect,
				TimeSpent:      ans.TimeSpent,
			}
		}
		questions = append(questions, review)
	}

	testSet.Questions = nil
	return &TestSetReview{TestSet: testSet, Questions: questions}, nil
}

// DeleteTestSet removes an owned set with its snapshot and answers. Deletion
// is state-independent: any lifecycle stage may be deleted by the owner.
func (s *TestSetService) DeleteTestSet(userID, testSetID uint) error {
	if _, err := s.TestSetRepo.FindOwned(testSetID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTestSetNotFound
		}
		return err
	}
	return s.TestSetRepo.Delete(testSetID)
}

func (s *TestSetService) GetUserTestHistory(userID uint) ([]model.TestSet, error) {
	return s.TestSetRepo.ListCompletedByUser(userID)
}

func (s *TestSetService) GetAllUsersTestHistory() ([]model.TestSet, error) {
	return s.TestSetRepo.ListCompletedAll()
}

type UserTestHistory struct {
	User       *model.User     `json:"user"`
	History    []model.TestSet `json:"testHistory"`
	Statistics *UserStatistics `json:"statistics"`
}

// GetUserHistoryWithStatistics is the admin view of one user's completed
// tests plus their rollups.
func (s *TestSetService) GetUserHistoryWithStatistics(targetUserID uint) (*UserTestHistory, error) {
	user, err := s.UserRepo.FindByID(targetUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	history, err := s.TestSetRepo.ListCompletedByUser(targetUserID)
	if err != nil {
		return nil, err
	}

	stats, err := s.GetUserStatistics(targetUserID)
	if err != nil {
		return nil, err
	}

	return &UserTestHistory{User: user, History: history, Statistics: stats}, nil
}

type PartStatistic struct {
	PartID       uint    `json:"partId"`
	PartNumber   int     `json:"partNumber"`
	PartName     string  `json:"partName"`
	TestCount    int64   `json:"testCount"`
	AverageScore float64 `json:"averageScore"`
	BestScore    int     `json:"bestScore"`
}

type UserStatistics struct {
	CompletedTests int64           `json:"completedTests"`
	AverageScore   float64         `json:"averageScore"`
	BestScore      int             `json:"bestScore"`
	PartStatistics []PartStatistic `json:"partStatistics"`
}

// GetUserStatistics aggregates completed test sets. With no completed sets
// every value is a defined zero, never null. The per-part fan-out lookup is
// bounded by the number of distinct parts attempted.
func (s *TestSetService) GetUserStatistics(userID uint) (*UserStatistics, error) {
	completed, err := s.TestSetRepo.CountCompleted(userID)
	if err != nil {
		return nil, err
	}

	average, err := s.TestSetRepo.AverageScore(userID)
	if err != nil {
		return nil, err
	}

	best, err := s.TestSetRepo.BestScore(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.TestSetRepo.PartStats(userID)
	if err != nil {
		return nil, err
	}

	partStats := make([]PartStatistic, 0, len(rows))
	for _, row := range rows {
		stat := PartStatistic{
			PartID:       row.PartID,
			TestCount:    row.TestCount,
			AverageScore: row.AvgScore,
			BestScore:    row.MaxScore,
		}
		if part, err := s.PartRepo.FindByID(row.PartID); err == nil {
			stat.PartNumber = part.PartNumber
			stat.PartName = part.Name
		}
		partStats = append(partStats, stat)
	}

	return &UserStatistics{
		CompletedTests: completed,
		AverageScore:   average,
		BestScore:      best,
		PartStatistics: partStats,
	}, nil
}
