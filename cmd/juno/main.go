// juno wraps coding-agent CLIs (claude, codex, gemini) and normalizes
// their streaming JSON output into a compact line protocol.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askbudi/juno-code/config"
)

var verbose bool

// exitCode carries the child's exit status out of the subcommands; main
// exits with it after cobra returns.
var exitCode int

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil && exitCode == 0 {
		exitCode = 1
	}
	os.Exit(exitCode)
}

var rootCmd = &cobra.Command{
	Use:   "juno",
	Short: "Run coding-agent CLIs with normalized streaming output",
	Long: `juno launches the claude, codex, or gemini CLI in headless streaming
mode and rewrites its JSON event stream into a compact line protocol:
one JSON header per event, verbatim multi-line bodies, noisy event kinds
suppressed. The wrapper's exit status mirrors the child's.

Configuration layers, lowest to highest precedence: built-in defaults,
.juno.yaml in the project directory, environment variables, flags.

Environment:
  JUNO_INSTRUCTION         prompt fallback when no --prompt/--prompt-file
  JUNO_SUPPRESS_EVENTS     extra suppressed event kinds (comma separated)
  CODEX_SUPPRESS_EVENTS    synonym of JUNO_SUPPRESS_EVENTS, merged
  JUNO_JSON_REPAIR         repair malformed event JSON before fallback
  JUNO_TOKEN_USAGE_FLUSH   emit the final token usage event at stream end`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose diagnostics on stderr")

	rootCmd.AddCommand(claudeCmd)
	rootCmd.AddCommand(codexCmd)
	rootCmd.AddCommand(geminiCmd)
	rootCmd.AddCommand(schemaCmd)
}

// applyStream overlays the stream section of .juno.yaml onto a wrapper
// config's shared pipeline knobs.
func applyStream(s config.StreamSection, pretty, repair, flush *bool, suppress *[]string) {
	if s.Pretty != nil {
		*pretty = *s.Pretty
	}
	if s.JSONRepair != nil {
		*repair = *s.JSONRepair
	}
	if s.TokenUsageFlush != nil {
		*flush = *s.TokenUsageFlush
	}
	*suppress = append(*suppress, s.Suppress...)
}
