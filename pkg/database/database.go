package database

import (
	"fmt"
	"log"

	"github.com/wyattbui/toeic-app-mimi-service/internal/config"
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Part{},
		&model.Question{},
		&model.Option{},
		&model.TestSet{},
		&model.TestSetQuestion{},
		&model.TestSetAnswer{},
		&model.TestResult{},
		&model.UserAnswer{},
		&model.Bookmark{},
	)
}

// SeedParts inserts the seven TOEIC sections when the table is empty.
func SeedParts(db *gorm.DB) {
	var count int64
	db.Model(&model.Part{}).Count(&count)
	if count > 0 {
		return
	}

	parts := []model.Part{
		{PartNumber: 1, Name: "Photographs", Description: "Look at the picture and choose the best description", SkillType: model.SkillListening},
		{PartNumber: 2, Name: "Question-Response", Description: "Listen to a question and choose the best response", SkillType: model.SkillListening},
		{PartNumber: 3, Name: "Conversations", Description: "Listen to conversations and answer questions", SkillType: model.SkillListening},
		{PartNumber: 4, Name: "Short Talks", Description: "Listen to short talks and answer questions", SkillType: model.SkillListening},
		{PartNumber: 5, Name: "Incomplete Sentences", Description: "Complete the sentences with the best word", SkillType: model.SkillReading},
		{PartNumber: 6, Name: "Text Completion", Description: "Complete the texts with the best words", SkillType: model.SkillReading},
		{PartNumber: 7, Name: "Reading Comprehension", Description: "Read passages and answer questions", SkillType: model.SkillReading},
	}
	for i := range parts {
		db.Create(&parts[i])
	}
}
