package service

import (
	"testing"
	"time"

	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/internal/repository"
	"github.com/wyattbui/toeic-app-mimi-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSetService(t *testing.T) (*TestSetService, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	return NewTestSetService(
		repository.NewTestSetRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewPartRepository(db),
		repository.NewUserRepository(db),
		util.NewSampler(1),
	), db
}

func TestGenerateTestSetSamplesRequestedCount(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "gen@example.com")
	part := createTestPart(t, db, 5, model.SkillReading)
	for i := 0; i < 10; i++ {
		createTestQuestion(t, db, part.ID, "A")
	}

	testSet, err := svc.GenerateTestSet(user.ID, GenerateTestSetReq{
		PartID:        part.ID,
		Title:         "Reading drill",
		QuestionCount: intPtr(4),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TestSetCreated, testSet.Status)
	assert.Equal(t, 4, testSet.QuestionCount)
	assert.Equal(t, defaultTimeLimit, testSet.TimeLimit)
	require.Len(t, testSet.Questions, 4)

	seen := make(map[uint]bool, 4)
	for i, tsq := range testSet.Questions {
		assert.Equal(t, i+1, tsq.OrderIndex)
		assert.False(t, seen[tsq.QuestionID], "question %d sampled twice", tsq.QuestionID)
		seen[tsq.QuestionID] = true
	}
}

func TestGenerateTestSetPoolSmallerThanRequest(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "short@example.com")
	part := createTestPart(t, db, 2, model.SkillListening)
	for i := 0; i < 3; i++ {
		createTestQuestion(t, db, part.ID, "B")
	}

	testSet, err := svc.GenerateTestSet(user.ID, GenerateTestSetReq{
		PartID:        part.ID,
		Title:         "Listening drill",
		QuestionCount: intPtr(10),
	})
	require.NoError(t, err)

	// Every available question is used; the requested count stays the
	// scoring denominator.
	assert.Len(t, testSet.Questions, 3)
	assert.Equal(t, 10, testSet.QuestionCount)
}

func TestGenerateTestSetFiltersByDifficulty(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "diff@example.com")
	part := createTestPart(t, db, 7, model.SkillReading)
	hard := createTestQuestion(t, db, part.ID, "A")
	require.NoError(t, db.Model(hard).Update("difficulty", "hard").Error)
	createTestQuestion(t, db, part.ID, "A")

	testSet, err := svc.GenerateTestSet(user.ID, GenerateTestSetReq{
		PartID:        part.ID,
		Title:         "Hard only",
		QuestionCount: intPtr(5),
		Difficulty:    strPtr("hard"),
	})
	require.NoError(t, err)

	require.Len(t, testSet.Questions, 1)
	assert.Equal(t, hard.ID, testSet.Questions[0].QuestionID)
}

func TestGenerateTestSetUnknownPart(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "nopart@example.com")

	_, err := svc.GenerateTestSet(user.ID, GenerateTestSetReq{PartID: 999, Title: "x"})
	assert.ErrorIs(t, err, util.ErrPartNotFound)
}

func generateSet(t *testing.T, svc *TestSetService, userID, partID uint, count int) *model.TestSet {
	t.Helper()

	testSet, err := svc.GenerateTestSet(userID, GenerateTestSetReq{
		PartID:        partID,
		Title:         "Practice",
		QuestionCount: intPtr(count),
	})
	require.NoError(t, err)
	return testSet
}

func TestGenerateTestSetSnapshotSurvivesCatalogGrowth(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "frozen@example.com")
	part := createTestPart(t, db, 6, model.SkillReading)
	for i := 0; i < 3; i++ {
		createTestQuestion(t, db, part.ID, "A")
	}
	testSet := generateSet(t, svc, user.ID, part.ID, 3)

	sampled := make([]uint, 0, 3)
	for _, tsq := range testSet.Questions {
		sampled = append(sampled, tsq.QuestionID)
	}

	// Catalog edits after generation must not leak into the snapshot.
	for i := 0; i < 5; i++ {
		createTestQuestion(t, db, part.ID, "B")
	}

	reloaded, err := svc.GetTestSet(user.ID, testSet.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Questions, 3)
	for i, tsq := range reloaded.Questions {
		assert.Equal(t, i+1, tsq.OrderIndex)
		assert.Equal(t, sampled[i], tsq.QuestionID)
	}
}

func TestStartTestTransitionsOnce(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "start@example.com")
	part := createTestPart(t, db, 1, model.SkillListening)
	for i := 0; i < 4; i++ {
		createTestQuestion(t, db, part.ID, "A")
	}
	testSet := generateSet(t, svc, user.ID, part.ID, 4)

	started, err := svc.StartTest(user.ID, testSet.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TestSetInProgress, started.Status)
	require.NotNil(t, started.StartedAt)

	_, err = svc.StartTest(user.ID, testSet.ID)
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.TestSetInProgress, conflict.Status)
}

func TestStartTestOwnershipCollapsesToNotFound(t *testing.T) {
	svc, db := newTestSetService(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	part := createTestPart(t, db, 1, model.SkillListening)
	createTestQuestion(t, db, part.ID, "A")
	testSet := generateSet(t, svc, owner.ID, part.ID, 1)

	_, err := svc.StartTest(other.ID, testSet.ID)
	assert.ErrorIs(t, err, util.ErrTestSetNotFound)

	_, err = svc.StartTest(owner.ID, 9999)
	assert.ErrorIs(t, err, util.ErrTestSetNotFound)
}

func TestSubmitTestSetGradesAndCompletes(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "submit@example.com")
	part := createTestPart(t, db, 5, model.SkillReading)

	q1 := createTestQuestion(t, db, part.ID, "A")
	q2 := createTestQuestion(t, db, part.ID, "B")
	q3 := createTestQuestion(t, db, part.ID, "A")
	q4 := createTestQuestion(t, db, part.ID, "D")
	testSet := generateSet(t, svc, user.ID, part.ID, 4)

	_, err := svc.StartTest(user.ID, testSet.ID)
	require.NoError(t, err)

	result, err := svc.SubmitTestSet(user.ID, SubmitTestSetReq{
		TestSetID: testSet.ID,
		Answers: []TestSetAnswerReq{
			{QuestionID: q1.ID, SelectedOption: strPtr("A"), TimeSpent: intPtr(12)}, // correct
			{QuestionID: q2.ID, SelectedOption: strPtr("B")},                        // correct
			{QuestionID: q3.ID, SelectedOption: strPtr("C")},                        // wrong
			{QuestionID: q4.ID},                             // skipped
			{QuestionID: 9999, SelectedOption: strPtr("A")}, // not in snapshot
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.TestSetCompleted, result.Status)
	assert.Equal(t, 50, result.TotalScore)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 1, result.WrongAnswers)
	require.NotNil(t, result.CompletedAt)
	assert.Len(t, result.Answers, 4)
}

func TestSubmitTestSetFromCreatedState(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "implicit@example.com")
	part := createTestPart(t, db, 6, model.SkillReading)
	q := createTestQuestion(t, db, part.ID, "C")
	testSet := generateSet(t, svc, user.ID, part.ID, 1)

	// No explicit start; submitting a created set completes it directly.
	result, err := svc.SubmitTestSet(user.ID, SubmitTestSetReq{
		TestSetID: testSet.ID,
		Answers:   []TestSetAnswerReq{{QuestionID: q.ID, SelectedOption: strPtr("C")}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.TestSetCompleted, result.Status)
	assert.Equal(t, 100, result.TotalScore)
}

func TestSubmitTestSetDuplicateAnswerOverwrites(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "dup@example.com")
	part := createTestPart(t, db, 4, model.SkillListening)
	q := createTestQuestion(t, db, part.ID, "A")
	testSet := generateSet(t, svc, user.ID, part.ID, 1)

	// The same question answered twice in one submission keeps a single
	// row holding the last selection.
	result, err := svc.SubmitTestSet(user.ID, SubmitTestSetReq{
		TestSetID: testSet.ID,
		Answers: []TestSetAnswerReq{
			{QuestionID: q.ID, SelectedOption: strPtr("B")},
			{QuestionID: q.ID, SelectedOption: strPtr("A")},
		},
	})
	require.NoError(t, err)

	var answers []model.TestSetAnswer
	require.NoError(t, db.Where("test_set_id = ?", testSet.ID).Find(&answers).Error)
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].SelectedOption)
	assert.Equal(t, "A", *answers[0].SelectedOption)
	assert.True(t, answers[0].IsCorrect)

	// Both gradings enter the tallies; the stored row reflects the latest.
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Equal(t, 1, result.WrongAnswers)
	assert.Equal(t, 100, result.TotalScore)
}

func TestSubmitTestSetTwiceConflicts(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "twice@example.com")
	part := createTestPart(t, db, 3, model.SkillListening)
	q := createTestQuestion(t, db, part.ID, "A")
	testSet := generateSet(t, svc, user.ID, part.ID, 1)

	req := SubmitTestSetReq{
		TestSetID: testSet.ID,
		Answers:   []TestSetAnswerReq{{QuestionID: q.ID, SelectedOption: strPtr("A")}},
	}

	first, err := svc.SubmitTestSet(user.ID, req)
	require.NoError(t, err)

	_, err = svc.SubmitTestSet(user.ID, req)
	assert.ErrorIs(t, err, util.ErrTestSetCompleted)

	// The first result is untouched by the rejected resubmission.
	again, err := svc.GetTestSet(user.ID, testSet.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TotalScore, again.TotalScore)
	assert.Equal(t, first.CompletedAt.Unix(), again.CompletedAt.Unix())
}

func TestGradeAnswer(t *testing.T) {
	question := &model.Question{
		Options: []model.Option{
			{OptionLetter: "A", IsCorrect: false},
			{OptionLetter: "B", IsCorrect: true},
		},
	}

	assert.True(t, gradeAnswer(question, strPtr("B")))
	assert.False(t, gradeAnswer(question, strPtr("A")))
	assert.False(t, gradeAnswer(question, nil))
	assert.False(t, gradeAnswer(nil, strPtr("B")))

	broken := &model.Question{Options: []model.Option{{OptionLetter: "A"}}}
	assert.False(t, gradeAnswer(broken, strPtr("A")))
}

func TestPercentageScore(t *testing.T) {
	assert.Equal(t, 50, PercentageScore(2, 4))
	assert.Equal(t, 33, PercentageScore(1, 3))
	assert.Equal(t, 67, PercentageScore(2, 3))
	assert.Equal(t, 100, PercentageScore(4, 4))
	assert.Equal(t, 0, PercentageScore(0, 4))
	assert.Equal(t, 0, PercentageScore(3, 0))
}

func TestGetTestSetReview(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "review@example.com")
	part := createTestPart(t, db, 4, model.SkillListening)
	q1 := createTestQuestion(t, db, part.ID, "A")
	createTestQuestion(t, db, part.ID, "B")
	testSet := generateSet(t, svc, user.ID, part.ID, 2)

	_, err := svc.SubmitTestSet(user.ID, SubmitTestSetReq{
		TestSetID: testSet.ID,
		Answers:   []TestSetAnswerReq{{QuestionID: q1.ID, SelectedOption: strPtr("D")}},
	})
	require.NoError(t, err)

	review, err := svc.GetTestSetReview(user.ID, testSet.ID)
	require.NoError(t, err)
	require.Len(t, review.Questions, 2)

	byQuestion := make(map[uint]ReviewQuestion, 2)
	for _, rq := range review.Questions {
		assert.NotEmpty(t, rq.CorrectAnswer)
		byQuestion[rq.QuestionID] = rq
	}

	answered := byQuestion[q1.ID]
	require.NotNil(t, answered.UserAnswer)
	assert.Equal(t, "D", *answered.UserAnswer.SelectedOption)
	assert.False(t, answered.UserAnswer.IsCorrect)
	assert.Equal(t, "A", answered.CorrectAnswer)
}

func TestDeleteTestSet(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "delete@example.com")
	other := createTestUser(t, db, "notmine@example.com")
	part := createTestPart(t, db, 1, model.SkillListening)
	createTestQuestion(t, db, part.ID, "A")
	testSet := generateSet(t, svc, user.ID, part.ID, 1)

	assert.ErrorIs(t, svc.DeleteTestSet(other.ID, testSet.ID), util.ErrTestSetNotFound)

	require.NoError(t, svc.DeleteTestSet(user.ID, testSet.ID))
	_, err := svc.GetTestSet(user.ID, testSet.ID)
	assert.ErrorIs(t, err, util.ErrTestSetNotFound)
}

func TestGetAbandonedTestSets(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "abandon@example.com")
	part := createTestPart(t, db, 1, model.SkillListening)
	createTestQuestion(t, db, part.ID, "A")

	stale := generateSet(t, svc, user.ID, part.ID, 1)
	require.NoError(t, db.Model(&model.TestSet{}).Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	generateSet(t, svc, user.ID, part.ID, 1) // fresh, not abandoned

	abandoned, err := svc.GetAbandonedTestSets(user.ID)
	require.NoError(t, err)
	require.Len(t, abandoned, 1)
	assert.Equal(t, stale.ID, abandoned[0].ID)
}

func TestGetUserStatisticsEmpty(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "empty@example.com")

	stats, err := svc.GetUserStatistics(user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.CompletedTests)
	assert.Equal(t, float64(0), stats.AverageScore)
	assert.Equal(t, 0, stats.BestScore)
	require.NotNil(t, stats.PartStatistics)
	assert.Empty(t, stats.PartStatistics)
}

func TestGetUserStatisticsAggregates(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "stats@example.com")
	part := createTestPart(t, db, 5, model.SkillReading)
	q1 := createTestQuestion(t, db, part.ID, "A")
	q2 := createTestQuestion(t, db, part.ID, "B")

	first := generateSet(t, svc, user.ID, part.ID, 2)
	_, err := svc.SubmitTestSet(user.ID, SubmitTestSetReq{
		TestSetID: first.ID,
		Answers: []TestSetAnswerReq{
			{QuestionID: q1.ID, SelectedOption: strPtr("A")},
			{QuestionID: q2.ID, SelectedOption: strPtr("B")},
		},
	})
	require.NoError(t, err)

	second := generateSet(t, svc, user.ID, part.ID, 2)
	_, err = svc.SubmitTestSet(user.ID, SubmitTestSetReq{
		TestSetID: second.ID,
		Answers:   []TestSetAnswerReq{{QuestionID: q1.ID, SelectedOption: strPtr("A")}},
	})
	require.NoError(t, err)

	stats, err := svc.GetUserStatistics(user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.CompletedTests)
	assert.InDelta(t, 75.0, stats.AverageScore, 0.01)
	assert.Equal(t, 100, stats.BestScore)

	require.Len(t, stats.PartStatistics, 1)
	ps := stats.PartStatistics[0]
	assert.Equal(t, part.ID, ps.PartID)
	assert.Equal(t, 5, ps.PartNumber)
	assert.Equal(t, int64(2), ps.TestCount)
	assert.Equal(t, 100, ps.BestScore)
}

func TestGetUserHistoryWithStatistics(t *testing.T) {
	svc, db := newTestSetService(t)
	user := createTestUser(t, db, "history@example.com")
	part := createTestPart(t, db, 2, model.SkillListening)
	q := createTestQuestion(t, db, part.ID, "A")

	testSet := generateSet(t, svc, user.ID, part.ID, 1)
	_, err := svc.SubmitTestSet(user.ID, SubmitTestSetReq{
		TestSetID: testSet.ID,
		Answers:   []TestSetAnswerReq{{QuestionID: q.ID, SelectedOption: strPtr("A")}},
	})
	require.NoError(t, err)

	history, err := svc.GetUserHistoryWithStatistics(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, history.User.ID)
	require.Len(t, history.History, 1)
	assert.Equal(t, int64(1), history.Statistics.CompletedTests)

	_, err = svc.GetUserHistoryWithStatistics(9999)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
