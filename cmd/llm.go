package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/llm"
	"github.com/abhisek/genlearn/internal/store"
	"github.com/abhisek/genlearn/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")

		return withEvents(cmd, func(ctx context.Context, events *store.EventRepo) error {
			calls, err := events.QueryModelCalls(ctx, store.QueryOpts{Limit: limit, Purpose: purpose, Failed: failed})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(calls) == 0 {
				fmt.Println("No model calls recorded.")
				return nil
			}

			t := newTable("ID", "Time", "Purpose", "Model", "Tokens", "Ms", "Result")
			for _, e := range calls {
				t.Row(
					strconv.Itoa(e.ID),
					e.Timestamp.Local().Format(timeLayout),
					e.Purpose,
					truncate(e.Model, 28),
					fmt.Sprintf("%d/%d", e.PromptTokens, e.CompletionTokens),
					strconv.FormatInt(e.LatencyMs, 10),
					resultMark(e.Success, e.ErrorKind),
				)
			}
			fmt.Println(t.Render())
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the messages, parameters and outcome of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withEvents(cmd, func(ctx context.Context, events *store.EventRepo) error {
			e, err := events.GetModelCall(ctx, id)
			if store.IsNotFound(err) {
				return fmt.Errorf("no model call with ID %d", id)
			}
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}

			fmt.Println(theme.Title.Render(fmt.Sprintf("Model call #%d", e.ID)))
			field := func(label, value string) {
				fmt.Printf("%s %s\n", theme.Subtitle.Render(fmt.Sprintf("%-9s", label)), value)
			}
			field("Time", e.Timestamp.Local().Format(timeLayout))
			field("Purpose", e.Purpose)
			field("Model", e.Provider+" / "+e.Model)
			field("Tokens", fmt.Sprintf("%d in, %d out", e.PromptTokens, e.CompletionTokens))
			if cost := llm.LookupCost(e.Model); cost != nil && e.Success {
				field("Cost", formatCost(cost.Cost(e.PromptTokens, e.CompletionTokens)))
			}
			field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
			field("Result", resultMark(e.Success, e.ErrorKind))
			if e.FinishReason != "" {
				field("Finish", e.FinishReason)
			}
			if e.ErrorMessage != "" {
				field("Error", theme.Incorrect.Render(e.ErrorMessage))
			}

			section("Request", e.RequestBody)
			section("Response", e.ResponseBody)
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize usage, failures and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvents(cmd, func(ctx context.Context, events *store.EventRepo) error {
			usage, err := events.UsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			if len(usage) == 0 {
				fmt.Println("No model usage recorded yet.")
				return nil
			}

			var calls, failed, in, out int
			t := newTable("Purpose", "Calls", "Failed", "Input", "Output", "Avg ms")
			for _, u := range usage {
				t.Row(u.Purpose, strconv.Itoa(u.Calls), failureRate(u.Failed, u.Calls),
					strconv.Itoa(u.PromptTokens), strconv.Itoa(u.CompletionTokens),
					strconv.FormatInt(u.AvgLatencyMs, 10))
				calls += u.Calls
				failed += u.Failed
				in += u.PromptTokens
				out += u.CompletionTokens
			}
			t.Row("total", strconv.Itoa(calls), failureRate(failed, calls), strconv.Itoa(in), strconv.Itoa(out), "")
			fmt.Println(theme.Title.Render("Usage by purpose"))
			fmt.Println(t.Render())

			failures, err := events.FailuresByKind(ctx)
			if err != nil {
				return fmt.Errorf("query failures: %w", err)
			}
			if len(failures) > 0 {
				t := newTable("Purpose", "Kind", "Calls", "Last error")
				for _, f := range failures {
					t.Row(f.Purpose, kindLabel(f.ErrorKind), strconv.Itoa(f.Calls), truncate(f.LastError, 48))
				}
				fmt.Println()
				fmt.Println(theme.Title.Render("Failures"))
				fmt.Println(t.Render())
			}

			models, err := events.UsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			if len(models) > 0 {
				fmt.Println()
				fmt.Println(theme.Title.Render("Estimated cost (USD)"))
				fmt.Println(costTable(models))
			}
			return nil
		})
	},
}

func withEvents(cmd *cobra.Command, fn func(ctx context.Context, events *store.EventRepo) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(cmd.Context(), s.EventRepo())
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

func costTable(models []store.ModelUsage) string {
	t := newTable("Model", "Calls", "Input", "Output", "Cost")
	var (
		total   float64
		unknown []string
	)
	for _, m := range models {
		price := "?"
		if cost := llm.LookupCost(m.Model); cost != nil {
			c := cost.Cost(m.PromptTokens, m.CompletionTokens)
			total += c
			price = formatCost(c)
		} else {
			unknown = append(unknown, m.Model)
		}
		t.Row(truncate(m.Model, 32), strconv.Itoa(m.Calls), strconv.Itoa(m.PromptTokens), strconv.Itoa(m.CompletionTokens), price)
	}
	label := "total"
	if len(unknown) > 0 {
		label = "total (partial)"
	}
	t.Row(label, "", "", "", formatCost(total))

	out := t.Render()
	if len(unknown) > 0 {
		out += "\n" + theme.Hint.Render("Pricing unavailable for: "+strings.Join(unknown, ", "))
	}
	return out
}

func section(title, body string) {
	fmt.Println()
	fmt.Println(theme.Badge.Render(strings.ToUpper(title)))
	if body == "" {
		fmt.Println(theme.Hint.Render("(not captured)"))
		return
	}
	fmt.Println(body)
}

func resultMark(success bool, kind string) string {
	if success {
		return theme.Correct.Render("ok")
	}
	return theme.Incorrect.Render(kindLabel(kind))
}

func kindLabel(kind string) string {
	if kind == "" {
		return "failed"
	}
	return kind
}

func failureRate(failed, calls int) string {
	if failed == 0 || calls == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%d%%)", failed, failed*100/calls)
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (lab, chat)")
	llmListCmd.Flags().Bool("failed", false, "Only show failed calls")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
