package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/engagement"
	"github.com/corclo/backend/internal/models"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect individual accounts",
	Long:  "Commands for looking up accounts and their engagement activity",
}

var userShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show an account's profile and counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showUser(args[0])
	},
}

var userAttentionCmd = &cobra.Command{
	Use:   "attention <username>",
	Short: "Show an account's attention metrics",
	Long: `Compute the same attention metrics the transparency dashboard shows:
recent view window, unique posts viewed, lifetime interactions, and the
attention ratio.

Examples:
  corclo user attention alice
  corclo user attention alice --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showAttention(args[0])
	},
}

func init() {
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userAttentionCmd)
}

func lookupUser(username string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return &user, nil
}

func showUser(username string) error {
	user, err := lookupUser(username)
	if err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	}

	fmt.Printf("ID:           %s\n", user.ID)
	fmt.Printf("Username:     %s\n", user.Username)
	fmt.Printf("Display name: %s\n", user.DisplayName)
	fmt.Printf("Email:        %s\n", user.Email)
	fmt.Printf("Followers:    %d\n", user.FollowerCount)
	fmt.Printf("Following:    %d\n", user.FollowingCount)
	fmt.Printf("Posts:        %d\n", user.PostCount)
	fmt.Printf("Joined:       %s\n", user.CreatedAt.Format("2006-01-02"))
	return nil
}

func showAttention(username string) error {
	user, err := lookupUser(username)
	if err != nil {
		return err
	}

	attention, err := engagement.ComputeAttentionMetrics(database.DB, user.ID)
	if err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(attention)
	}

	fmt.Printf("Recent views:        %d\n", attention.TotalViews)
	fmt.Printf("Unique posts viewed: %d\n", attention.UniquePostsViewed)
	fmt.Printf("Interactions:        %d\n", attention.InteractionLogs)
	fmt.Printf("Attention ratio:     %.1f%%\n", attention.AttentionRatio)
	return nil
}
