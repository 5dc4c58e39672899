package model

// swagger:model Bookmark
type Bookmark struct {
	BaseModel
	UserID     uint      `gorm:"index;uniqueIndex:idx_user_question;not null" json:"userId"`
	QuestionID uint      `gorm:"uniqueIndex:idx_user_question;not null" json:"questionId"`
	Question   *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	Note       string    `gorm:"type:text" json:"note,omitempty"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
