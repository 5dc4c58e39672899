package repository

import (
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"

	"gorm.io/gorm"
)

type TestResultRepository struct {
	DB *gorm.DB
}

func NewTestResultRepository(db *gorm.DB) *TestResultRepository {
	return &TestResultRepository{DB: db}
}

func (r *TestResultRepository) Create(result *model.TestResult) error {
	return r.DB.Create(result).Error
}

func (r *TestResultRepository) CreateAnswer(answer *model.UserAnswer) error {
	return r.DB.Create(answer).Error
}

func (r *TestResultRepository) UpdateScores(id uint, totalScore, listeningScore, readingScore int) error {
	return r.DB.Model(&model.TestResult{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_score":     totalScore,
			"listening_score": listeningScore,
			"reading_score":   readingScore,
		}).Error
}

func (r *TestResultRepository) FindByID(id uint) (*model.TestResult, error) {
	var result model.TestResult
	err := r.DB.
		Preload("Answers.Question.Options").
		Preload("Answers.Question.Part").
		First(&result, id).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *TestResultRepository) ListByUser(userID uint) ([]model.TestResult, error) {
	var results []model.TestResult
	err := r.DB.
		Preload("Answers.Question.Options").
		Preload("Answers.Question.Part").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&results).Error
	return results, err
}
