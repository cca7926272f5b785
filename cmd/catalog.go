package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/ui/theme"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse modules and lessons",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules (optionally filtered by level)",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("level")
		cat := catalog.Default()

		modules := cat.ListModules()
		if level != "" {
			if !catalog.Level(level).Valid() {
				return fmt.Errorf("unknown level %q (want one of %s)", level, levelNames())
			}
			modules = cat.ListModulesByLevel(catalog.Level(level))
		}

		fmt.Printf("%-24s  %-36s  %-12s  %s\n", "ID", "Title", "Level", "Lessons")
		fmt.Println(strings.Repeat("─", 86))
		for _, m := range modules {
			fmt.Printf("%-24s  %-36s  %-12s  %d\n", m.ID, truncate(m.Title, 36), m.Level, len(m.Lessons))
		}
		fmt.Printf("\n%d modules, catalog %s\n", len(modules), cat.Version())
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <module> [lesson]",
	Short: "Show a module or one of its lessons",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		m, ok := cat.GetModule(args[0])
		if !ok {
			return fmt.Errorf("module %q not found", args[0])
		}
		if len(args) == 1 {
			printModule(m)
			return nil
		}
		l, ok := cat.GetLesson(m.ID, args[1])
		if !ok {
			return fmt.Errorf("lesson %q not found in %s", args[1], m.ID)
		}
		printLesson(l)
		return nil
	},
}

var catalogNextCmd = &cobra.Command{
	Use:   "next <module> [lesson]",
	Short: "Show what comes after a module or lesson",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		if len(args) == 1 {
			m, ok := cat.NextModule(args[0])
			if !ok {
				fmt.Println("No further modules.")
				return nil
			}
			fmt.Printf("%s  %s\n", m.ID, theme.Title.Render(m.Title))
			return nil
		}
		l, ok := cat.NextLesson(args[0], args[1])
		if !ok {
			fmt.Println("No further lessons in this module.")
			return nil
		}
		fmt.Printf("%s  %s\n", l.ID, theme.Title.Render(l.Title))
		return nil
	},
}

func printModule(m catalog.Module) {
	fmt.Println(theme.Title.Render(m.Title))
	fmt.Println(theme.Subtitle.Render(fmt.Sprintf("%s · %s", m.ID, m.Level)))
	if m.Description != "" {
		fmt.Println()
		fmt.Println(m.Description)
	}
	if len(m.Prerequisites) > 0 {
		fmt.Printf("\nPrerequisites: %s\n", strings.Join(m.Prerequisites, ", "))
	}

	fmt.Println()
	for _, l := range m.Lessons {
		extra := ""
		switch {
		case l.Lab != nil:
			extra = "lab " + l.Lab.ID
		case l.Quiz != nil:
			extra = "quiz " + l.Quiz.ID
		}
		fmt.Printf("  %2d. %-28s  %-10s  %3d min  %s\n", l.Order, l.ID, l.Type, l.EstimatedMinutes, extra)
	}
}

func printLesson(l catalog.Lesson) {
	fmt.Println(theme.Title.Render(l.Title))
	fmt.Println(theme.Subtitle.Render(fmt.Sprintf("%s/%s · %s · %d min", l.ModuleID, l.ID, l.Type, l.EstimatedMinutes)))

	for _, s := range l.Sections {
		fmt.Println()
		if s.Title != "" {
			fmt.Println(theme.Badge.Render(s.Title))
		}
		if s.Type == catalog.SectionCode {
			fmt.Println(theme.Card.Render(s.Content))
			continue
		}
		fmt.Println(s.Content)
	}

	if l.Lab != nil {
		fmt.Println()
		fmt.Println(theme.Badge.Render("Lab: " + l.Lab.Title))
		fmt.Println(l.Lab.Instructions)
		if l.Lab.StarterInput != "" {
			fmt.Println(theme.Card.Render(l.Lab.StarterInput))
		}
		fmt.Println(theme.Hint.Render(fmt.Sprintf("genlearn lab run %s %s \"<your prompt>\"", l.ModuleID, l.ID)))
	}
	if l.Quiz != nil {
		fmt.Println()
		fmt.Println(theme.Badge.Render(fmt.Sprintf("Quiz: %s (pass at %d%%)", l.Quiz.Title, l.Quiz.PassingScore)))
		for i, q := range l.Quiz.Questions {
			fmt.Printf("\n%d. %s  [%s]\n", i+1, q.Text, q.ID)
			for _, o := range q.Options {
				fmt.Printf("   %s) %s\n", o.ID, o.Text)
			}
		}
		fmt.Println(theme.Hint.Render(fmt.Sprintf("\ngenlearn progress quiz %s %s --answer <question>=<option> ...", l.ModuleID, l.ID)))
	}
}

func levelNames() string {
	var names []string
	for _, l := range catalog.AllLevels() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	catalogListCmd.Flags().StringP("level", "l", "", "Filter by level (beginner, intermediate, advanced)")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogNextCmd)
}
