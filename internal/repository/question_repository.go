package repository

import (
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Options").Preload("Part").First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) ListByPart(partID uint, limit int) ([]model.Question, error) {
	query := r.DB.Preload("Options").Preload("Part").
		Where("part_id = ?", partID).
		Order("created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var questions []model.Question
	err := query.Find(&questions).Error
	return questions, err
}

// ListAll returns the whole catalog, optionally filtered by difficulty.
// Used by the non-persisted random practice endpoint.
func (r *QuestionRepository) ListAll(difficulty string) ([]model.Question, error) {
	query := r.DB.Preload("Options").Preload("Part").Order("id asc")
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var questions []model.Question
	err := query.Find(&questions).Error
	return questions, err
}

// ListPool returns the generation pool for a part, optionally narrowed by
// difficulty. Only IDs are needed to build a snapshot.
func (r *QuestionRepository) ListPool(partID uint, difficulty string) ([]uint, error) {
	query := r.DB.Model(&model.Question{}).Where("part_id = ?", partID)
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var ids []uint
	err := query.Order("id asc").Pluck("id", &ids).Error
	return ids, err
}

func (r *QuestionRepository) CreateWithOptions(q *model.Question) error {
	return r.DB.Create(q).Error
}

// UpdateWithOptions saves the question and, when options is non-nil,
// replaces the full option set. Old rows are removed unscoped so the same
// letters can be re-inserted under the (question, letter) unique index.
func (r *QuestionRepository) UpdateWithOptions(q *model.Question, options []model.Option) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Save(q).Error; err != nil {
			return err
		}
		if options == nil {
			return nil
		}
		if err := tx.Unscoped().Where("question_id = ?", q.ID).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].ID = 0
			options[i].QuestionID = q.ID
			if err := tx.Create(&options[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("question_id = ?", id).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}
