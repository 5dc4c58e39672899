package service

import (
	"os"
	"testing"

	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/database"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// An in-memory sqlite database exists per connection; pin the pool to
	// one so every query sees the migrated schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:    email,
		Password: "hashed",
		Name:     "Test User",
		Role:     model.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPart(t *testing.T, db *gorm.DB, number int, skill model.SkillType) *model.Part {
	t.Helper()

	part := &model.Part{
		PartNumber: number,
		Name:       "Part",
		SkillType:  skill,
	}
	require.NoError(t, db.Create(part).Error)
	return part
}

// createTestQuestion inserts a question with four options where correctLetter
// is the flagged-correct one.
func createTestQuestion(t *testing.T, db *gorm.DB, partID uint, correctLetter string) *model.Question {
	t.Helper()

	question := &model.Question{
		PartID:       partID,
		QuestionText: "What is the correct answer?",
		QuestionType: "single",
		Difficulty:   "medium",
	}
	for _, letter := range []string{"A", "B", "C", "D"} {
		question.Options = append(question.Options, model.Option{
			OptionLetter: letter,
			OptionText:   "Option " + letter,
			IsCorrect:    letter == correctLetter,
		})
	}
	require.NoError(t, db.Create(question).Error)
	return question
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
