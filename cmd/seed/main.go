package main

import (
	"log"
	"os"
	"time"

	"chat-handoff-be/internal/constant"
	"chat-handoff-be/internal/model"
	"chat-handoff-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo tenant with a widget binding and two operators, for local
// development against a fresh database.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	now := time.Now()
	legacyKey := "demo-widget-key"

	tenant := model.Tenant{
		Id:              uuid.New(),
		Name:            "Demo Tenant",
		LegacyWidgetKey: &legacyKey,
		AfterHoursEmail: "support@demo.test",
		CreatedAt:       now,
	}
	if err := db.Create(&tenant).Error; err != nil {
		log.Fatalf("Error: Failed to seed tenant: %v", err)
	}

	binding := model.TenantAgentBinding{
		Id:              uuid.New(),
		TenantId:        tenant.Id,
		ExternalAgentId: "demo-external-agent",
		Channel:         constant.ChannelWidget,
		CreatedAt:       now,
	}
	if err := db.Create(&binding).Error; err != nil {
		log.Fatalf("Error: Failed to seed binding: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash password: %v", err)
	}

	operators := []model.Agent{
		{
			Id:           uuid.New(),
			TenantId:     tenant.Id,
			Name:         "Alice Operator",
			Email:        "alice@demo.test",
			PasswordHash: string(hash),
			Status:       constant.AgentStatusOffline,
			MaxChatCount: 3,
			LastSeenAt:   now,
			CreatedAt:    now,
		},
		{
			Id:           uuid.New(),
			TenantId:     tenant.Id,
			Name:         "Bob Operator",
			Email:        "bob@demo.test",
			PasswordHash: string(hash),
			Status:       constant.AgentStatusOffline,
			MaxChatCount: 2,
			LastSeenAt:   now,
			CreatedAt:    now,
		},
	}
	for i := range operators {
		if err := db.Create(&operators[i]).Error; err != nil {
			log.Fatalf("Error: Failed to seed agent: %v", err)
		}
	}

	log.Printf("✅ Seeded tenant %s (widget key %q, external agent id %q)", tenant.Id, legacyKey, binding.ExternalAgentId)
	log.Println("   Operators: alice@demo.test / bob@demo.test, password: password123")
}
