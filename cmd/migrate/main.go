package main

import (
	"log"
	"os"

	"chat-handoff-be/internal/model"
	"chat-handoff-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	models := []interface{}{
		&model.Tenant{},
		&model.TenantAgentBinding{},
		&model.Agent{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.HandoffRequest{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: indexes the hot paths rely on. Partial unique index
	// enforces at most one live handoff per chat session.
	postMigrationSQL := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_handoff_requests_live_session
		 ON handoff_requests (chat_session_id)
		 WHERE status IN ('pending', 'active');`,

		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session_created
		 ON chat_messages (chat_session_id, created_at);`,

		`CREATE INDEX IF NOT EXISTS idx_handoff_requests_tenant_status
		 ON handoff_requests (tenant_id, status);`,

		`CREATE INDEX IF NOT EXISTS idx_chat_sessions_activity
		 ON chat_sessions (last_activity_at);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
