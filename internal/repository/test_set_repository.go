package repository

import (
	"time"

	"github.com/wyattbui/toeic-app-mimi-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TestSetRepository struct {
	DB *gorm.DB
}

func NewTestSetRepository(db *gorm.DB) *TestSetRepository {
	return &TestSetRepository{DB: db}
}

// Transaction runs fn inside one database transaction.
func (r *TestSetRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.DB.Transaction(fn)
}

// CreateWithQuestions persists the test set and its frozen question snapshot
// atomically. orderIndex is 1-based and follows the order of questionIDs.
func (r *TestSetRepository) CreateWithQuestions(testSet *model.TestSet, questionIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(testSet).Error; err != nil {
			return err
		}
		for i, qid := range questionIDs {
			tsq := model.TestSetQuestion{
				TestSetID:  testSet.ID,
				QuestionID: qid,
				OrderIndex: i + 1,
			}
			if err := tx.Create(&tsq).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID returns a fully hydrated test set: part, owner, ordered snapshot
// with options, and any recorded answers.
func (r *TestSetRepository) FindByID(id uint) (*model.TestSet, error) {
	var testSet model.TestSet
	err := r.DB.
		Preload("Part").
		Preload("User").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("test_set_questions.order_index asc")
		}).
		Preload("Questions.Question.Options").
		Preload("Questions.Question.Part").
		Preload("Answers").
		First(&testSet, id).Error
	if err != nil {
		return nil, err
	}
	return &testSet, nil
}

// FindOwned scopes the lookup by owner, so a non-owner gets
// gorm.ErrRecordNotFound exactly like a missing row.
func (r *TestSetRepository) FindOwned(id, userID uint) (*model.TestSet, error) {
	var testSet model.TestSet
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&testSet).Error
	if err != nil {
		return nil, err
	}
	return &testSet, nil
}

// FindOwnedWithSnapshot loads an owned test set together with its question
// snapshot and options, as needed for grading.
func (r *TestSetRepository) FindOwnedWithSnapshot(tx *gorm.DB, id, userID uint) (*model.TestSet, error) {
	var testSet model.TestSet
	err := tx.
		Preload("Questions.Question.Options").
		Where("id = ? AND user_id = ?", id, userID).
		First(&testSet).Error
	if err != nil {
		return nil, err
	}
	return &testSet, nil
}

func (r *TestSetRepository) ListByUser(userID uint) ([]model.TestSet, error) {
	var sets []model.TestSet
	err := r.DB.Preload("Part").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&sets).Error
	return sets, err
}

// ListAbandoned returns the user's sets still open after the cutoff.
func (r *TestSetRepository) ListAbandoned(userID uint, cutoff time.Time) ([]model.TestSet, error) {
	var sets []model.TestSet
	err := r.DB.Preload("Part").
		Where("user_id = ? AND status IN ? AND created_at < ?",
			userID, []string{model.TestSetCreated, model.TestSetInProgress}, cutoff).
		Order("created_at desc").
		Find(&sets).Error
	return sets, err
}

// ListCompletedByUser returns the user's finished sets with graded answers,
// newest first.
func (r *TestSetRepository) ListCompletedByUser(userID uint) ([]model.TestSet, error) {
	var sets []model.TestSet
	err := r.DB.Preload("Part").
		Preload("Answers.Question.Options").
		Preload("Answers.Question.Part").
		Where("user_id = ? AND status = ?", userID, model.TestSetCompleted).
		Order("completed_at desc").
		Find(&sets).Error
	return sets, err
}

func (r *TestSetRepository) ListCompletedAll() ([]model.TestSet, error) {
	var sets []model.TestSet
	err := r.DB.Preload("Part").Preload("User").
		Where("status = ?", model.TestSetCompleted).
		Order("completed_at desc").
		Find(&sets).Error
	return sets, err
}

// MarkStarted performs the created -> in_progress transition as a single
// conditional update. Zero rows affected means the set is missing, not
// owned, or no longer in the created state.
func (r *TestSetRepository) MarkStarted(id, userID uint, at time.Time) (int64, error) {
	res := r.DB.Model(&model.TestSet{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.TestSetCreated).
		Updates(map[string]interface{}{
			"status":     model.TestSetInProgress,
			"started_at": at,
		})
	return res.RowsAffected, res.Error
}

// Complete stamps the terminal state and the aggregate scores. The status
// guard makes the transition linearizable: a concurrent submit that lost the
// race affects zero rows.
func (r *TestSetRepository) Complete(tx *gorm.DB, id uint, totalScore, correct, wrong int, at time.Time) (int64, error) {
	res := tx.Model(&model.TestSet{}).
		Where("id = ? AND status <> ?", id, model.TestSetCompleted).
		Updates(map[string]interface{}{
			"status":          model.TestSetCompleted,
			"completed_at":    at,
			"total_score":     totalScore,
			"correct_answers": correct,
			"wrong_answers":   wrong,
		})
	return res.RowsAffected, res.Error
}

// UpsertAnswer creates or overwrites the answer for one (testSet, question)
// pair, keyed by the unique index.
func (r *TestSetRepository) UpsertAnswer(tx *gorm.DB, answer *model.TestSetAnswer) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "test_set_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option", "is_correct", "time_spent", "updated_at"}),
	}).Create(answer).Error
}

func (r *TestSetRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("test_set_id = ?", id).Delete(&model.TestSetAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("test_set_id = ?", id).Delete(&model.TestSetQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TestSet{}, id).Error
	})
}

func (r *TestSetRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestSet{}).
		Where("user_id = ? AND status = ?", userID, model.TestSetCompleted).
		Count(&count).Error
	return count, err
}

func (r *TestSetRepository) AverageScore(userID uint) (float64, error) {
	var avg float64
	err := r.DB.Model(&model.TestSet{}).
		Select("COALESCE(AVG(total_score), 0)").
		Where("user_id = ? AND status = ?", userID, model.TestSetCompleted).
		Scan(&avg).Error
	return avg, err
}

func (r *TestSetRepository) BestScore(userID uint) (int, error) {
	var best int
	err := r.DB.Model(&model.TestSet{}).
		Select("COALESCE(MAX(total_score), 0)").
		Where("user_id = ? AND status = ?", userID, model.TestSetCompleted).
		Scan(&best).Error
	return best, err
}

type PartStatRow struct {
	PartID    uint    `json:"partId"`
	TestCount int64   `json:"testCount"`
	AvgScore  float64 `json:"averageScore"`
	MaxScore  int     `json:"bestScore"`
}

// PartStats groups the user's completed sets by part. The result is bounded
// by the number of distinct parts attempted, never by test history size.
func (r *TestSetRepository) PartStats(userID uint) ([]PartStatRow, error) {
	var rows []PartStatRow
	err := r.DB.Model(&model.TestSet{}).
		Select("part_id, COUNT(*) as test_count, COALESCE(AVG(total_score), 0) as avg_score, COALESCE(MAX(total_score), 0) as max_score").
		Where("user_id = ? AND status = ?", userID, model.TestSetCompleted).
		Group("part_id").
		Scan(&rows).Error
	return rows, err
}
