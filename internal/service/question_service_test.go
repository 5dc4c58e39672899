package service

import (
	"context"
	"testing"

	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/internal/repository"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuestionService(t *testing.T) (*QuestionService, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	return NewQuestionService(
		repository.NewQuestionRepository(db),
		repository.NewPartRepository(db),
		repository.NewTestResultRepository(db),
		repository.NewBookmarkRepository(db),
		util.NewSampler(1),
		nil,
	), db
}

func validCreateReq(partID uint) CreateQuestionReq {
	return CreateQuestionReq{
		PartID:       partID,
		QuestionText: "Choose the best word.",
		QuestionType: "single",
		Difficulty:   "easy",
		Options: []OptionReq{
			{OptionLetter: "A", OptionText: "run", IsCorrect: false},
			{OptionLetter: "B", OptionText: "runs", IsCorrect: true},
			{OptionLetter: "C", OptionText: "running", IsCorrect: false},
		},
	}
}

func TestValidateOptions(t *testing.T) {
	valid := validCreateReq(1).Options
	assert.NoError(t, validateOptions(valid))

	twoOptions := valid[:2]
	assert.ErrorIs(t, validateOptions(twoOptions), util.ErrOptionSet)

	duplicateLetter := append([]OptionReq{}, valid...)
	duplicateLetter[2].OptionLetter = "A"
	assert.ErrorIs(t, validateOptions(duplicateLetter), util.ErrOptionSet)

	noCorrect := append([]OptionReq{}, valid...)
	noCorrect[1].IsCorrect = false
	assert.ErrorIs(t, validateOptions(noCorrect), util.ErrOptionSet)

	twoCorrect := append([]OptionReq{}, valid...)
	twoCorrect[0].IsCorrect = true
	assert.ErrorIs(t, validateOptions(twoCorrect), util.ErrOptionSet)
}

func TestCreateQuestion(t *testing.T) {
	svc, db := newQuestionService(t)
	part := createTestPart(t, db, 5, model.SkillReading)

	question, err := svc.CreateQuestion(context.Background(), validCreateReq(part.ID))
	require.NoError(t, err)

	assert.Equal(t, part.ID, question.PartID)
	require.Len(t, question.Options, 3)

	_, err = svc.CreateQuestion(context.Background(), validCreateReq(999))
	assert.ErrorIs(t, err, util.ErrPartNotFound)
}

func TestUpdateQuestionReplacesOptions(t *testing.T) {
	svc, db := newQuestionService(t)
	part := createTestPart(t, db, 5, model.SkillReading)
	question := createTestQuestion(t, db, part.ID, "A")

	updated, err := svc.UpdateQuestion(context.Background(), question.ID, UpdateQuestionReq{
		QuestionText: strPtr("Rewritten stem."),
		Difficulty:   strPtr("hard"),
		Options: &[]OptionReq{
			{OptionLetter: "A", OptionText: "first", IsCorrect: false},
			{OptionLetter: "B", OptionText: "second", IsCorrect: false},
			{OptionLetter: "C", OptionText: "third", IsCorrect: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Rewritten stem.", updated.QuestionText)
	assert.Equal(t, "hard", updated.Difficulty)
	require.Len(t, updated.Options, 3)

	correct := 0
	for _, opt := range updated.Options {
		if opt.IsCorrect {
			correct++
			assert.Equal(t, "C", opt.OptionLetter)
		}
	}
	assert.Equal(t, 1, correct)
}

func TestUpdateQuestionWithoutOptionsKeepsThem(t *testing.T) {
	svc, db := newQuestionService(t)
	part := createTestPart(t, db, 6, model.SkillReading)
	question := createTestQuestion(t, db, part.ID, "B")

	updated, err := svc.UpdateQuestion(context.Background(), question.ID, UpdateQuestionReq{
		Explanation: strPtr("Because B."),
	})
	require.NoError(t, err)

	assert.Equal(t, "Because B.", updated.Explanation)
	assert.Len(t, updated.Options, 4)
}

func TestDeleteQuestion(t *testing.T) {
	svc, db := newQuestionService(t)
	part := createTestPart(t, db, 7, model.SkillReading)
	question := createTestQuestion(t, db, part.ID, "A")

	require.NoError(t, svc.DeleteQuestion(context.Background(), question.ID))

	_, err := svc.GetQuestionByID(question.ID)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	assert.ErrorIs(t, svc.DeleteQuestion(context.Background(), question.ID), util.ErrQuestionNotFound)
}

func TestGetRandomQuestions(t *testing.T) {
	svc, db := newQuestionService(t)
	part := createTestPart(t, db, 5, model.SkillReading)
	for i := 0; i < 30; i++ {
		createTestQuestion(t, db, part.ID, "A")
	}

	sample, err := svc.GetRandomQuestions(5, "")
	require.NoError(t, err)
	assert.Len(t, sample, 5)

	seen := make(map[uint]bool, 5)
	for _, q := range sample {
		assert.False(t, seen[q.ID])
		seen[q.ID] = true
	}

	// Zero falls back to the default sample size.
	sample, err = svc.GetRandomQuestions(0, "")
	require.NoError(t, err)
	assert.Len(t, sample, defaultPracticeCount)
}

func TestGetAllPartsWithoutRedis(t *testing.T) {
	svc, db := newQuestionService(t)
	listening := createTestPart(t, db, 1, model.SkillListening)
	createTestPart(t, db, 5, model.SkillReading)
	createTestQuestion(t, db, listening.ID, "A")
	createTestQuestion(t, db, listening.ID, "B")

	rows, err := svc.GetAllParts(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].PartNumber)
	assert.Equal(t, int64(2), rows[0].QuestionCount)
	assert.Equal(t, int64(0), rows[1].QuestionCount)
}

func TestTOEICScore(t *testing.T) {
	assert.Equal(t, 495, TOEICScore(100, 100))
	assert.Equal(t, 248, TOEICScore(50, 100))
	assert.Equal(t, 0, TOEICScore(0, 100))
	assert.Equal(t, 0, TOEICScore(5, 0))
	assert.Equal(t, 165, TOEICScore(1, 3))
}

func TestSubmitTestRecordsScoredResult(t *testing.T) {
	svc, db := newQuestionService(t)
	user := createTestUser(t, db, "flat@example.com")
	listening := createTestPart(t, db, 1, model.SkillListening)
	reading := createTestPart(t, db, 5, model.SkillReading)

	lq := createTestQuestion(t, db, listening.ID, "A")
	rq := createTestQuestion(t, db, reading.ID, "B")

	result, err := svc.SubmitTest(user.ID, SubmitTestReq{
		TestType: "mini",
		Duration: 600,
		Answers: []AnswerReq{
			{QuestionID: lq.ID, SelectedOption: "A", TimeSpent: intPtr(30)}, // correct listening
			{QuestionID: rq.ID, SelectedOption: "C"},                        // wrong
			{QuestionID: 9999, SelectedOption: "A"},                         // unknown, skipped
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "mini", result.TestType)
	assert.Len(t, result.Answers, 2)

	// 1 of 3 submitted answers correct on the 495 scale.
	assert.Equal(t, 165, result.TotalScore)
	// Listening is normalized over the fixed 100-question section.
	assert.Equal(t, 5, result.ListeningScore)
	assert.Equal(t, 160, result.ReadingScore)

	results, err := svc.GetUserTestResults(user.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, result.ID, results[0].ID)
}

func TestBookmarks(t *testing.T) {
	svc, db := newQuestionService(t)
	user := createTestUser(t, db, "mark@example.com")
	other := createTestUser(t, db, "othermark@example.com")
	part := createTestPart(t, db, 5, model.SkillReading)
	question := createTestQuestion(t, db, part.ID, "A")

	bookmark, err := svc.CreateBookmark(user.ID, CreateBookmarkReq{
		QuestionID: question.ID,
		Note:       strPtr("tricky"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tricky", bookmark.Note)

	_, err = svc.CreateBookmark(user.ID, CreateBookmarkReq{QuestionID: question.ID})
	assert.ErrorIs(t, err, util.ErrAlreadyBookmarked)

	_, err = svc.CreateBookmark(user.ID, CreateBookmarkReq{QuestionID: 9999})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	list, err := svc.GetUserBookmarks(user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.RemoveBookmark(other.ID, bookmark.ID), util.ErrBookmarkNotFound)
	require.NoError(t, svc.RemoveBookmark(user.ID, bookmark.ID))

	list, err = svc.GetUserBookmarks(user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
