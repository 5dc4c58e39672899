package model

import "time"

// TestSet lifecycle states. The flow is created -> in_progress -> completed;
// completed is terminal.
const (
	TestSetCreated    = "created"
	TestSetInProgress = "in_progress"
	TestSetCompleted  = "completed"
)

// TestSet is a user-owned, ordered snapshot of questions attempted as one
// exam session. The snapshot is fixed at generation time; later catalog
// edits never reorder it.
// swagger:model TestSet
type TestSet struct {
	BaseModel
	UserID         uint       `gorm:"index;not null" json:"userId"`
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PartID         uint       `gorm:"index;not null" json:"partId"`
	Part           *Part      `gorm:"foreignKey:PartID" json:"part,omitempty"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	QuestionCount  int        `gorm:"not null" json:"questionCount"`
	TimeLimit      int        `gorm:"default:60" json:"timeLimit"` // minutes
	Difficulty     string     `gorm:"size:20" json:"difficulty,omitempty"`
	Status         string     `gorm:"size:20;default:'created'" json:"status"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	TotalScore     int        `gorm:"default:0" json:"totalScore"`
	CorrectAnswers int        `gorm:"default:0" json:"correctAnswers"`
	WrongAnswers   int        `gorm:"default:0" json:"wrongAnswers"`

	Questions []TestSetQuestion `gorm:"foreignKey:TestSetID" json:"questions,omitempty"`
	Answers   []TestSetAnswer   `gorm:"foreignKey:TestSetID" json:"answers,omitempty"`
}

func (TestSet) TableName() string {
	return "test_sets"
}

// TestSetQuestion pins one catalog question into a test set at a fixed
// 1-based position.
// swagger:model TestSetQuestion
type TestSetQuestion struct {
	BaseModel
	TestSetID  uint      `gorm:"index;uniqueIndex:idx_test_set_question;not null" json:"testSetId"`
	QuestionID uint      `gorm:"uniqueIndex:idx_test_set_question;not null" json:"questionId"`
	Question   *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	OrderIndex int       `gorm:"not null" json:"orderIndex"`
}

func (TestSetQuestion) TableName() string {
	return "test_set_questions"
}

// TestSetAnswer holds at most one answer per (testSet, question) pair; the
// unique index is what makes submission idempotent. SelectedOption is nil
// when the question was skipped.
// swagger:model TestSetAnswer
type TestSetAnswer struct {
	BaseModel
	TestSetID      uint      `gorm:"index;uniqueIndex:idx_test_set_answer;not null" json:"testSetId"`
	QuestionID     uint      `gorm:"uniqueIndex:idx_test_set_answer;not null" json:"questionId"`
	Question       *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	SelectedOption *string   `gorm:"size:1" json:"selectedOption"`
	IsCorrect      bool      `gorm:"default:false" json:"isCorrect"`
	TimeSpent      int       `gorm:"default:0" json:"timeSpent"` // seconds
}

func (TestSetAnswer) TableName() string {
	return "test_set_answers"
}
