// @title TOEIC Mimi Service API
// @version 1.0
// @description REST backend for TOEIC practice tests: question catalog, randomized test sets, scoring and statistics.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"github.com/wyattbui/toeic-app-mimi-service/internal/app"
	"github.com/wyattbui/toeic-app-mimi-service/internal/config"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	migrate := flag.Bool("migrate", false, "force database migration on startup")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	application.Run()
}
