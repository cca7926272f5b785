package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/ui/theme"
)

var labCmd = &cobra.Command{
	Use:   "lab",
	Short: "Run lab prompts against the configured model",
}

var labRunCmd = &cobra.Command{
	Use:   "run <module> <lesson> [prompt...]",
	Short: "Send a prompt for a lab (use - or no prompt to read stdin)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := strings.Join(args[2:], " ")
		if input == "" || input == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read prompt: %w", err)
			}
			input = string(data)
		}

		return withApp(cmd, func(ctx context.Context, a *application) error {
			id, err := a.identity(cmd)
			if err != nil {
				return err
			}
			run, err := a.labs.Run(ctx, id, args[0], args[1], input)
			if err != nil {
				return err
			}

			res := run.Result
			if !res.Success {
				fmt.Fprintln(os.Stderr, theme.Incorrect.Render(res.Error))
				return fmt.Errorf("lab call failed (%s)", res.ErrorKind)
			}

			fmt.Println(theme.Card.Render(res.Response))
			usage := ""
			if res.Usage != nil {
				usage = fmt.Sprintf(" · %d in / %d out tokens", res.Usage.PromptTokens, res.Usage.CompletionTokens)
			}
			fmt.Println(theme.Subtitle.Render(fmt.Sprintf("%s · %s · %dms%s", res.Model, res.FinishReason, res.ElapsedMs, usage)))

			if lp := run.Progress.Lesson(args[0], args[1]); lp != nil && lp.Lab != nil {
				fmt.Println(theme.Hint.Render(fmt.Sprintf("Attempt %d recorded; lab completed.", lp.Lab.AttemptsCount)))
			}
			return nil
		})
	},
}

var labHintCmd = &cobra.Command{
	Use:   "hint <module> <lesson> [index]",
	Short: "Show a lab hint (1-based, default 1)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 1
		if len(args) == 3 {
			v, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid hint number %q: %w", args[2], err)
			}
			n = v
		}
		return withApp(cmd, func(_ context.Context, a *application) error {
			hint, err := a.labs.Hint(args[0], args[1], n-1)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", theme.Badge.Render(fmt.Sprintf("Hint %d:", n)), hint)
			return nil
		})
	},
}

func init() {
	labCmd.AddCommand(labRunCmd)
	labCmd.AddCommand(labHintCmd)
}
