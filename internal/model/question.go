package model

// swagger:model Question
type Question struct {
	BaseModel
	PartID       uint     `gorm:"index;not null" json:"partId"`
	Part         *Part    `gorm:"foreignKey:PartID" json:"part,omitempty"`
	QuestionText string   `gorm:"type:text;not null" json:"questionText"`
	QuestionType string   `gorm:"size:20;not null" json:"questionType"` // single, multiple, passage
	Difficulty   string   `gorm:"size:20;not null" json:"difficulty"`   // easy, medium, hard
	Explanation  string   `gorm:"type:text" json:"explanation,omitempty"`
	AudioURL     string   `gorm:"size:500" json:"audioUrl,omitempty"`
	ImageURL     string   `gorm:"size:500" json:"imageUrl,omitempty"`
	PassageText  string   `gorm:"type:text" json:"passageText,omitempty"`
	PassageTitle string   `gorm:"size:255" json:"passageTitle,omitempty"`
	Options      []Option `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// Option is one of the 3-4 lettered choices of a question. Content authoring
// must keep exactly one option per question flagged correct; the scorer
// degrades to "incorrect" when the invariant is broken.
// swagger:model Option
type Option struct {
	BaseModel
	QuestionID   uint   `gorm:"index;uniqueIndex:idx_question_letter;not null" json:"questionId"`
	OptionLetter string `gorm:"size:1;uniqueIndex:idx_question_letter;not null" json:"optionLetter"` // A..D
	OptionText   string `gorm:"type:text;not null" json:"optionText"`
	IsCorrect    bool   `gorm:"default:false" json:"isCorrect"`
}

func (Option) TableName() string {
	return "options"
}
