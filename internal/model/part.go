package model

type SkillType string

const (
	SkillListening SkillType = "Listening"
	SkillReading   SkillType = "Reading"
)

// Part is one of the seven fixed TOEIC exam sections. Reference data,
// seeded at startup and never mutated by the API.
// swagger:model Part
type Part struct {
	BaseModel
	PartNumber  int       `gorm:"uniqueIndex;not null" json:"partNumber"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	SkillType   SkillType `gorm:"size:20;not null" json:"skillType"`
}

func (Part) TableName() string {
	return "parts"
}
