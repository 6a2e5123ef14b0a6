package main

import (
	"fmt"
	"log"
	"os"

	"github.com/blogpulse/backend/internal/database"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "down":
		runMigrationsDown()
	default:
		fmt.Println("Usage: migrate [up|down]")
		fmt.Println("  up     - Run all pending migrations")
		fmt.Println("  down   - Rollback last migration (not implemented)")
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("🔄 Connecting to database...")

	if err := database.Initialize(); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("✅ Database connected")
	log.Println("📈 Running migrations...")

	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ All migrations completed successfully!")
}

func runMigrationsDown() {
	log.Println("❌ Migration rollback not yet implemented")
	log.Println("💡 Tip: Add your model to internal/models and it will be auto-migrated")
	os.Exit(1)
}
