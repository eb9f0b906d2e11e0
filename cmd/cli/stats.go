package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/models"
	"github.com/spf13/cobra"
)

type instanceStats struct {
	Users          int64            `json:"users"`
	Posts          int64            `json:"posts"`
	Comments       int64            `json:"comments"`
	Likes          int64            `json:"likes"`
	Follows        int64            `json:"follows"`
	Messages       int64            `json:"messages"`
	ActiveStories  int64            `json:"active_stories"`
	AffinityPings  int64            `json:"affinity_pings"`
	Notifications  int64            `json:"notifications"`
	EngagementLogs map[string]int64 `json:"engagement_logs"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print instance-wide statistics",
	Long: `Print row counts for the core tables plus a per-type breakdown of the
engagement log.

Examples:
  corclo stats
  corclo stats --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStats()
	},
}

func printStats() error {
	db := database.DB
	stats := instanceStats{EngagementLogs: map[string]int64{}}

	counts := []struct {
		dest  *int64
		model interface{}
	}{
		{&stats.Users, &models.User{}},
		{&stats.Posts, &models.Post{}},
		{&stats.Comments, &models.Comment{}},
		{&stats.Likes, &models.Like{}},
		{&stats.Follows, &models.Follow{}},
		{&stats.Messages, &models.Message{}},
		{&stats.AffinityPings, &models.AffinityPing{}},
		{&stats.Notifications, &models.Notification{}},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return err
		}
	}

	err := db.Model(&models.Story{}).Where("expires_at > CURRENT_TIMESTAMP").Count(&stats.ActiveStories).Error
	if err != nil {
		return err
	}

	var rows []struct {
		Type  string
		Count int64
	}
	err = db.Model(&models.EngagementLog{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		stats.EngagementLogs[row.Type] = row.Count
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Users:          %d\n", stats.Users)
	fmt.Printf("Posts:          %d\n", stats.Posts)
	fmt.Printf("Comments:       %d\n", stats.Comments)
	fmt.Printf("Likes:          %d\n", stats.Likes)
	fmt.Printf("Follows:        %d\n", stats.Follows)
	fmt.Printf("Messages:       %d\n", stats.Messages)
	fmt.Printf("Active stories: %d\n", stats.ActiveStories)
	fmt.Printf("Affinity pings: %d\n", stats.AffinityPings)
	fmt.Printf("Notifications:  %d\n", stats.Notifications)
	fmt.Println("Engagement log:")
	for typ, count := range stats.EngagementLogs {
		fmt.Printf("  %-10s %d\n", typ, count)
	}
	return nil
}
