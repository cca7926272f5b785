package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/progress"
	"github.com/abhisek/genlearn/internal/ui/components"
	"github.com/abhisek/genlearn/internal/ui/theme"
)

const barWidth = 48

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show and record learning progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show progress across all modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *application) error {
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}
			p := a.tracker.GetProgress(ctx, id)

			fmt.Println(components.NewProgressBar("Overall", progress.OverallPercentage(p, a.catalog), true, barWidth).View())
			fmt.Println()

			for _, m := range a.catalog.ListModules() {
				label := fmt.Sprintf("%-24s", truncate(m.Title, 24))
				fmt.Println(components.NewProgressBar(label, progress.ModulePercentage(p, a.catalog, m.ID), true, barWidth+26).View())
				for _, l := range m.Lessons {
					var started, completed bool
					if lp := p.Lesson(m.ID, l.ID); lp != nil {
						started, completed = lp.Started, lp.Completed
					}
					fmt.Printf("    %s %s\n", components.StatusMark(started, completed), l.Title)
				}
			}

			if len(p.Achievements) > 0 {
				fmt.Println()
				fmt.Println(theme.Title.Render("Achievements"))
				for _, ach := range p.Achievements {
					fmt.Printf("  %s %s  %s\n", ach.Kind().Icon(), theme.Badge.Render(ach.Title),
						theme.Subtitle.Render(ach.AwardedAt.Local().Format("2006-01-02")))
				}
			}
			return nil
		})
	},
}

var progressStartCmd = &cobra.Command{
	Use:   "start <module> <lesson>",
	Short: "Mark a lesson as started",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *application) error {
			l, err := lookupLesson(a.catalog, args[0], args[1])
			if err != nil {
				return err
			}
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}
			a.tracker.MarkLessonStarted(ctx, id, l.ModuleID, l.ID)
			fmt.Printf("Started %s\n", theme.Title.Render(l.Title))
			return nil
		})
	},
}

var progressCompleteCmd = &cobra.Command{
	Use:   "complete <module> <lesson>",
	Short: "Mark a lesson as completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *application) error {
			l, err := lookupLesson(a.catalog, args[0], args[1])
			if err != nil {
				return err
			}
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}
			before := a.tracker.GetProgress(ctx, id)
			p := a.tracker.MarkLessonCompleted(ctx, id, l.ModuleID, l.ID)
			fmt.Printf("%s Completed %s\n", theme.Correct.Render("✓"), l.Title)
			printNewAchievements(before, p)

			if next, ok := a.catalog.NextLesson(l.ModuleID, l.ID); ok {
				fmt.Println(theme.Hint.Render("Next: " + next.Title))
			}
			return nil
		})
	},
}

var progressQuizCmd = &cobra.Command{
	Use:   "quiz <module> <lesson>",
	Short: "Submit quiz answers (--answer question=option)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringToString("answer")
		return withApp(cmd, func(ctx context.Context, a *application) error {
			l, err := lookupLesson(a.catalog, args[0], args[1])
			if err != nil {
				return err
			}
			if l.Quiz == nil {
				return fmt.Errorf("lesson %s has no quiz", l.ID)
			}
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}

			grade := l.Quiz.Grade(pairs)
			for _, r := range grade.Results {
				mark := theme.Correct.Render("✓")
				if !r.Correct {
					mark = theme.Incorrect.Render("✗")
				}
				fmt.Printf("%s %-12s answered %-4s correct %s\n", mark, r.QuestionID, orDash(r.Answer), r.CorrectOption)
				if !r.Correct && r.Explanation != "" {
					fmt.Println(theme.Hint.Render("  " + r.Explanation))
				}
			}

			before := a.tracker.GetProgress(ctx, id)
			p := a.tracker.SaveQuizResult(ctx, id, l.ModuleID, l.ID, l.Quiz.ID, grade.Score, grade.Passed)
			q := p.Lesson(l.ModuleID, l.ID).Quiz

			verdict := theme.Incorrect.Render("not passed")
			if grade.Passed {
				verdict = theme.Correct.Render("passed")
			}
			fmt.Printf("\nScore %d%% (%s, need %d%%). Best %d%% over %d attempts.\n",
				grade.Score, verdict, l.Quiz.PassingScore, q.BestScore, q.AttemptsCount)
			printNewAchievements(before, p)
			return nil
		})
	},
}

var progressOverallCmd = &cobra.Command{
	Use:   "overall",
	Short: "Print the overall completion percentage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *application) error {
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}
			fmt.Printf("%d%%\n", a.tracker.OverallProgressPercentage(ctx, id, a.catalog))
			return nil
		})
	},
}

var progressSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Update display name and theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *application) error {
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}
			s := a.tracker.GetProgress(ctx, id).Settings
			if cmd.Flags().Changed("name") {
				s.DisplayName, _ = cmd.Flags().GetString("name")
			}
			if cmd.Flags().Changed("theme") {
				t, _ := cmd.Flags().GetString("theme")
				s.Theme = progress.Theme(t)
			}
			p := a.tracker.UpdateSettings(ctx, id, s)
			fmt.Printf("Display name: %s\nTheme:        %s\n", orDash(p.Settings.DisplayName), p.Settings.Theme)
			return nil
		})
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all progress for this learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("this deletes all progress; re-run with --yes to confirm")
		}
		return withApp(cmd, func(ctx context.Context, a *application) error {
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}
			a.tracker.ResetProgress(ctx, id)
			fmt.Println("Progress reset.")
			return nil
		})
	},
}

func lookupLesson(cat *catalog.Catalog, moduleID, lessonID string) (catalog.Lesson, error) {
	l, ok := cat.GetLesson(moduleID, lessonID)
	if !ok {
		return catalog.Lesson{}, fmt.Errorf("lesson %s/%s not found (see: genlearn catalog show %s)", moduleID, lessonID, moduleID)
	}
	return l, nil
}

func printNewAchievements(before, after *progress.UserProgress) {
	for _, ach := range after.Achievements {
		if before.HasAchievement(ach.ID) {
			continue
		}
		fmt.Printf("%s %s %s\n", ach.Kind().Icon(), theme.Badge.Render("Achievement unlocked:"), ach.Title)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func init() {
	progressQuizCmd.Flags().StringToStringP("answer", "a", nil, "Answer as question=option (repeatable)")
	progressSettingsCmd.Flags().String("name", "", "Display name shown on the leaderboard")
	progressSettingsCmd.Flags().String("theme", "", "Theme: system, light or dark")
	progressResetCmd.Flags().Bool("yes", false, "Confirm the reset")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressStartCmd)
	progressCmd.AddCommand(progressCompleteCmd)
	progressCmd.AddCommand(progressQuizCmd)
	progressCmd.AddCommand(progressOverallCmd)
	progressCmd.AddCommand(progressSettingsCmd)
	progressCmd.AddCommand(progressResetCmd)
}
