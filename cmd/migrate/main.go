package main

import (
	"fmt"
	"log"
	"os"

	"github.com/corclo/backend/internal/database"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		migrateUp()
	case "status":
		migrateStatus()
	default:
		fmt.Println("Usage: migrate [up|status]")
		fmt.Println("  up     - Apply the schema to the configured database")
		fmt.Println("  status - Check database connectivity and report table counts")
		os.Exit(1)
	}
}

func migrateUp() {
	log.Println("Connecting to database...")
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed")
}

func migrateStatus() {
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		log.Fatalf("Database unhealthy: %v", err)
	}

	var tables []string
	err := database.DB.Raw(
		"SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename",
	).Scan(&tables).Error
	if err != nil {
		log.Fatalf("Failed to list tables: %v", err)
	}

	fmt.Printf("Database healthy, %d tables:\n", len(tables))
	for _, table := range tables {
		var count int64
		if err := database.DB.Table(table).Count(&count).Error; err != nil {
			fmt.Printf("  %-28s (count failed: %v)\n", table, err)
			continue
		}
		fmt.Printf("  %-28s %d rows\n", table, count)
	}
}
