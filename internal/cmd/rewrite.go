package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ownmytodo/todoai/internal/core/rewrite"
	"github.com/ownmytodo/todoai/internal/observability"
	"github.com/ownmytodo/todoai/internal/output"
)

// cliIdentity is the rate limit identity used by the rewrite command.
const cliIdentity = "cli"

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <title>",
	Short: "Rewrite one task title",
	Long: `Rewrite one vague task title into a specific next step using the
configured provider, then print the result.

The same pipeline as POST /rewrite runs once: credential check, validation,
rate limit, prompt rendering and a single generation call.`,
	Example: `  todoai rewrite "clean house"
  todoai rewrite "study" --todos "gym, groceries" --context "exam on friday" --output table`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().String("todos", "", "today's other tasks, free text")
	rewriteCmd.Flags().String("context", "", "extra context about the user")
	rewriteCmd.Flags().String("output", "json", "Output format: json, table, markdown, text")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	formatValue, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	comps, err := buildComponents(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer comps.Close() // nolint:errcheck // best-effort cleanup

	req := &rewrite.Request{Title: args[0]}
	if cmd.Flags().Changed("todos") {
		todos, _ := cmd.Flags().GetString("todos")
		req.TodayTodos = &todos
	}
	if cmd.Flags().Changed("context") {
		userContext, _ := cmd.Flags().GetString("context")
		req.UserContext = &userContext
	}

	start := time.Now()
	resp, err := comps.service.Rewrite(cmd.Context(), cliIdentity, req)
	elapsed := time.Since(start)
	if err != nil {
		observability.CLILogger.Debug("Rewrite failed",
			zap.String("kind", string(rewrite.KindOf(err))),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return err
	}

	result := &output.RewriteResult{
		Title:      req.Title,
		Rewritten:  resp.Rewritten,
		Provider:   comps.generator.Provider(),
		Model:      comps.generator.Model,
		DurationMs: elapsed.Milliseconds(),
	}
	if req.TodayTodos != nil {
		result.TodayTodos = *req.TodayTodos
	}
	if req.UserContext != nil {
		result.UserContext = *req.UserContext
	}

	rendered, err := output.NewFormatter(format).FormatRewrite(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
