package main

import (
	"context"
	stdErrors "errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telaila/companion/internal/adapter/repository"
	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	"github.com/telaila/companion/internal/infrastructure/database"
	"github.com/telaila/companion/internal/usecase/tester"
	"github.com/telaila/companion/pkg/config"
)

func main() {
	link := flag.Bool("link", true, "link a generated demo agent to every seeded tester")
	flag.Parse()

	log.Println("🚀 Seeding demo beta testers...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var testers repositories.TesterRepository
	if cfg.Database.Enabled {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)
		testers = repository.NewTesterRepository(db)
	} else {
		log.Printf("📒 Using tester registry file %s", cfg.Archive.RegistryFile)
		testers = repository.NewRegistryRepository(cfg.Archive.RegistryFile)
	}

	archive := repository.NewFileArchive(cfg.Archive.DataDir, zap.NewNop())
	service := tester.NewService(testers, archive, zap.NewNop())

	demo := []tester.RegisterInput{
		{FamilyName: "Alice Moreno", FamilyEmail: "alice@test.local", ElderName: "Rosa Moreno", ElderAge: 82, Relationship: "daughter", PrimaryLanguage: "Spanish"},
		{FamilyName: "Ben Carter", FamilyEmail: "ben@test.local", ElderName: "Harold Carter", ElderAge: 88, Relationship: "grandson"},
		{FamilyName: "Chloe Nguyen", FamilyEmail: "chloe@test.local", ElderName: "Mai Nguyen", ElderAge: 76, Relationship: "daughter", PrimaryLanguage: "Vietnamese"},
	}

	ctx := context.Background()
	for i, input := range demo {
		t, err := service.Register(ctx, input)
		if stdErrors.Is(err, entities.ErrTesterAlreadyExists) {
			log.Printf("⏭️  %s already registered, skipping", input.FamilyEmail)
			continue
		}
		if err != nil {
			log.Printf("❌ Failed to register %s: %v", input.FamilyEmail, err)
			continue
		}

		if *link {
			agentID := "agent_demo_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
			linked, err := service.LinkAgent(ctx, t.ID, agentID)
			if err != nil {
				log.Printf("❌ Failed to link agent for %s: %v", t.ID, err)
				continue
			}
			t = linked
		}

		fmt.Printf("═══════════════════════════════════════════════════════════════\n")
		fmt.Printf("🟢 Tester %d: %s (%s)\n", i+1, t.ElderName, t.ID)
		fmt.Printf("═══════════════════════════════════════════════════════════════\n")
		fmt.Printf("Family:       %s <%s>\n", t.FamilyName, t.FamilyEmail)
		fmt.Printf("Status:       %s\n", t.Status)
		if t.AgentID != nil {
			fmt.Printf("Agent ID:     %s\n", *t.AgentID)
		}
		fmt.Printf("\n📋 Dashboard access token:\n")
		fmt.Printf("%s\n", t.AccessToken)
		fmt.Printf("───────────────────────────────────────────────────────────────\n\n")
	}

	log.Println("✅ Demo testers ready")
	log.Println("\n💡 Usage:")
	log.Println("   GET /v1/testers/<beta_id>/dashboard")
	log.Println("   POST the agent's conversations to /v1/webhooks/elevenlabs/conversation-ended")
}
