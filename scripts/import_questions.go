// Bulk question importer for first deployment or content refreshes.
//
// Reads a YAML file of questions keyed by part number and inserts them with
// their options. Parts must already be seeded (the server does that on
// startup).
//
// Usage: go run scripts/import_questions.go <questions.yaml>

package main

import (
	"log"
	"os"

	"github.com/wyattbui/toeic-app-mimi-service/internal/config"
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/internal/repository"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/database"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/logger"

	"gopkg.in/yaml.v3"
)

type importOption struct {
	Letter  string `yaml:"letter"`
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type importQuestion struct {
	PartNumber   int            `yaml:"part"`
	QuestionText string         `yaml:"text"`
	QuestionType string         `yaml:"type"`
	Difficulty   string         `yaml:"difficulty"`
	Explanation  string         `yaml:"explanation"`
	AudioURL     string         `yaml:"audioUrl"`
	ImageURL     string         `yaml:"imageUrl"`
	PassageText  string         `yaml:"passageText"`
	PassageTitle string         `yaml:"passageTitle"`
	Options      []importOption `yaml:"options"`
}

type importFile struct {
	Questions []importQuestion `yaml:"questions"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: go run scripts/import_questions.go <questions.yaml>")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("failed to read %s: %v", os.Args[1], err)
	}

	var file importFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		log.Fatalf("failed to parse %s: %v", os.Args[1], err)
	}

	partsByNumber := make(map[int]uint)
	var parts []model.Part
	if err := db.Find(&parts).Error; err != nil {
		log.Fatalf("failed to load parts: %v", err)
	}
	for _, p := range parts {
		partsByNumber[p.PartNumber] = p.ID
	}

	questionRepo := repository.NewQuestionRepository(db)

	imported, skipped := 0, 0
	for i, q := range file.Questions {
		partID, ok := partsByNumber[q.PartNumber]
		if !ok {
			log.Printf("question %d: unknown part %d, skipping", i, q.PartNumber)
			skipped++
			continue
		}

		correct := 0
		for _, opt := range q.Options {
			if opt.Correct {
				correct++
			}
		}
		if len(q.Options) < 3 || len(q.Options) > 4 || correct != 1 {
			log.Printf("question %d: invalid option set, skipping", i)
			skipped++
			continue
		}

		question := &model.Question{
			PartID:       partID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Difficulty:   q.Difficulty,
			Explanation:  q.Explanation,
			AudioURL:     q.AudioURL,
			ImageURL:     q.ImageURL,
			PassageText:  q.PassageText,
			PassageTitle: q.PassageTitle,
		}
		for _, opt := range q.Options {
			question.Options = append(question.Options, model.Option{
				OptionLetter: opt.Letter,
				OptionText:   opt.Text,
				IsCorrect:    opt.Correct,
			})
		}

		if err := questionRepo.CreateWithOptions(question); err != nil {
			log.Fatalf("question %d: insert failed: %v", i, err)
		}
		imported++
	}

	log.Printf("done: %d imported, %d skipped", imported, skipped)
}
