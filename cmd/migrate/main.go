package main

import (
	"context"
	"log"

	"medscribe-be/internal/config"
	"medscribe-be/internal/model"
	"medscribe-be/pkg/database"
	"medscribe-be/pkg/embedding/embeddingtest"
	"medscribe-be/pkg/vector"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting GORM migration...")

	color.Yellow("Step 1: Setting up extensions")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Red("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	color.Yellow("Step 2: Running AutoMigrate")
	models := []interface{}{
		&model.Case{},
		&model.ConversationTurn{},
		&model.MemorySummary{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// The embedder is never called while creating tables.
	color.Yellow("Step 3: Ensuring vector collection %s", cfg.Rag.CollectionName)
	index, err := vector.NewPgIndex(db, embeddingtest.New(cfg.Rag.EmbeddingDimension), cfg.Rag.CollectionName, cfg.Rag.EmbeddingDimension)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if err := index.EnsureCollection(context.Background(), index.Collection()); err != nil {
		log.Fatalf("Error: Failed to create collection: %v", err)
	}

	color.Green("✅ Success: Database migration completed successfully via GORM.")
}
