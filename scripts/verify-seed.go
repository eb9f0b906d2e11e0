package main

import (
	"fmt"
	"log"
	"os"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/models"
	"github.com/joho/godotenv"
)

// Sanity-checks a seeded database: row counts per table plus a few
// cross-table invariants the seeder is supposed to maintain.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Verifying seed data...")
	fmt.Println()

	counts := []struct {
		name  string
		model interface{}
	}{
		{"users", &models.User{}},
		{"posts", &models.Post{}},
		{"comments", &models.Comment{}},
		{"likes", &models.Like{}},
		{"follows", &models.Follow{}},
		{"stories", &models.Story{}},
		{"conversations", &models.Conversation{}},
		{"messages", &models.Message{}},
		{"affinity pings", &models.AffinityPing{}},
		{"engagement logs", &models.EngagementLog{}},
		{"notifications", &models.Notification{}},
	}

	failed := false
	for _, c := range counts {
		var n int64
		if err := database.DB.Model(c.model).Count(&n).Error; err != nil {
			fmt.Printf("  %-18s ERROR: %v\n", c.name, err)
			failed = true
			continue
		}
		fmt.Printf("  %-18s %d\n", c.name, n)
		if n == 0 {
			failed = true
		}
	}

	fmt.Println()

	// Follower counters must match the actual edges
	var mismatched int64
	err := database.DB.Raw(`
		SELECT COUNT(*) FROM users u
		WHERE u.follower_count != (SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id)
	`).Scan(&mismatched).Error
	if err != nil {
		log.Fatalf("Failed to check follower counters: %v", err)
	}
	if mismatched > 0 {
		fmt.Printf("FAIL: %d users with stale follower_count\n", mismatched)
		failed = true
	}

	// No ordered (sender, receiver) pair may have more than one ping
	var duplicatePairs int64
	err = database.DB.Raw(`
		SELECT COUNT(*) FROM (
			SELECT sender_id, receiver_id FROM affinity_pings
			GROUP BY sender_id, receiver_id HAVING COUNT(*) > 1
		) d
	`).Scan(&duplicatePairs).Error
	if err != nil {
		log.Fatalf("Failed to check ping pairs: %v", err)
	}
	if duplicatePairs > 0 {
		fmt.Printf("FAIL: %d duplicate ping pairs\n", duplicatePairs)
		failed = true
	}

	if failed {
		fmt.Println("Seed verification FAILED")
		os.Exit(1)
	}
	fmt.Println("Seed data looks good")
}
