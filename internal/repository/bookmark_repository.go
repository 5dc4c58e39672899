package repository

import (
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"

	"gorm.io/gorm"
)

type BookmarkRepository struct {
	DB *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{DB: db}
}

func (r *BookmarkRepository) Create(bookmark *model.Bookmark) error {
	return r.DB.Create(bookmark).Error
}

func (r *BookmarkRepository) FindByID(id uint) (*model.Bookmark, error) {
	var bookmark model.Bookmark
	err := r.DB.First(&bookmark, id).Error
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (r *BookmarkRepository) FindByUserAndQuestion(userID, questionID uint) (*model.Bookmark, error) {
	var bookmark model.Bookmark
	err := r.DB.Where("user_id = ? AND question_id = ?", userID, questionID).First(&bookmark).Error
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (r *BookmarkRepository) ListByUser(userID uint) ([]model.Bookmark, error) {
	var bookmarks []model.Bookmark
	err := r.DB.
		Preload("Question.Options").
		Preload("Question.Part").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&bookmarks).Error
	return bookmarks, err
}

func (r *BookmarkRepository) Delete(id uint) error {
	return r.DB.Unscoped().Delete(&model.Bookmark{}, id).Error
}
