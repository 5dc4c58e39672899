package model

// TestResult is the flat submission record of the simple-test flow. Scores
// use the simplified 495-point linear approximation, not the official TOEIC
// conversion table.
// swagger:model TestResult
type TestResult struct {
	BaseModel
	UserID         uint         `gorm:"index;not null" json:"userId"`
	TestType       string       `gorm:"size:50;not null" json:"testType"` // Full, Part1-7, Practice
	Duration       int          `gorm:"default:0" json:"duration"`        // minutes
	TotalScore     int          `gorm:"default:0" json:"totalScore"`
	ListeningScore int          `gorm:"default:0" json:"listeningScore"`
	ReadingScore   int          `gorm:"default:0" json:"readingScore"`
	Answers        []UserAnswer `gorm:"foreignKey:TestResultID" json:"answers,omitempty"`
}

func (TestResult) TableName() string {
	return "test_results"
}

// swagger:model UserAnswer
type UserAnswer struct {
	BaseModel
	TestResultID   uint      `gorm:"index;not null" json:"testResultId"`
	QuestionID     uint      `gorm:"index;not null" json:"questionId"`
	Question       *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	SelectedOption string    `gorm:"size:1" json:"selectedOption"`
	IsCorrect      bool      `gorm:"default:false" json:"isCorrect"`
	TimeSpent      int       `gorm:"default:0" json:"timeSpent"` // seconds
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
