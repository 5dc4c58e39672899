package repository

import (
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"

	"gorm.io/gorm"
)

type PartRepository struct {
	DB *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{DB: db}
}

func (r *PartRepository) FindByID(id uint) (*model.Part, error) {
	var part model.Part
	err := r.DB.First(&part, id).Error
	if err != nil {
		return nil, err
	}
	return &part, nil
}

type PartListRow struct {
	model.Part
	QuestionCount int64 `json:"questionCount"`
}

// ListWithQuestionCounts returns all parts ordered by part number, each with
// the size of its question pool.
func (r *PartRepository) ListWithQuestionCounts() ([]PartListRow, error) {
	var rows []PartListRow
	err := r.DB.Table("parts p").
		Select("p.*, " +
			"(SELECT COUNT(*) FROM questions q WHERE q.part_id = p.id AND q.deleted_at IS NULL) as question_count").
		Where("p.deleted_at IS NULL").
		Order("p.part_number asc").
		Scan(&rows).Error
	return rows, err
}
