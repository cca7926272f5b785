package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/progress"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank signed-in learners by completed lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		return withApp(cmd, func(ctx context.Context, a *application) error {
			entries := a.tracker.Leaderboard(ctx, top)
			if len(entries) == 0 {
				fmt.Println("No ranked learners yet.")
				return nil
			}

			fmt.Printf("%4s  %-28s  %7s  %s\n", "Rank", "Learner", "Lessons", "Last active")
			fmt.Println(strings.Repeat("─", 64))
			for _, e := range entries {
				name := e.DisplayName
				if name == "" {
					name = e.UserID
				}
				fmt.Printf("%4d  %-28s  %7d  %s\n", e.Rank, truncate(name, 28), e.CompletedLessons,
					e.LastActivity.Local().Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

func init() {
	leaderboardCmd.Flags().IntP("top", "n", progress.DefaultLeaderboardSize, "Number of learners to show")
}
