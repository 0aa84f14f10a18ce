package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/askbudi/juno-code/claude"
	"github.com/askbudi/juno-code/config"
)

var (
	claudePrompt      string
	claudePromptFile  string
	claudePath        string
	claudeModel       string
	claudePermMode    string
	claudeTools       []string
	claudeInstruction string
	claudeContinue    bool
	claudeAdditional  string
	claudePretty      bool
	claudeSuppress    []string
)

var claudeCmd = &cobra.Command{
	Use:   "claude",
	Short: "Run the Claude Code CLI with normalized output",
	RunE:  runClaude,
}

func init() {
	f := claudeCmd.Flags()
	f.StringVarP(&claudePrompt, "prompt", "p", "",
		"instruction text (falls back to --prompt-file, then $JUNO_INSTRUCTION)")
	f.StringVarP(&claudePromptFile, "prompt-file", "f", "", "file containing the instruction")
	f.StringVar(&claudePath, "cd", ".", "project directory the CLI runs in")
	f.StringVarP(&claudeModel, "model", "m", claude.DefaultModel, "model name")
	f.StringVar(&claudePermMode, "permission-mode", "bypassPermissions",
		"permission mode ("+strings.Join(claude.PermissionModes, ", ")+")")
	f.StringSliceVar(&claudeTools, "allowed-tools", nil,
		"tool allow-list (default: the built-in set)")
	f.StringVar(&claudeInstruction, "auto-instruction", "",
		"system instruction prefixed to the prompt")
	f.BoolVar(&claudeContinue, "continue", false, "continue the previous session")
	f.StringVar(&claudeAdditional, "additional-args", "",
		"extra arguments appended to the claude command (space separated)")
	f.BoolVar(&claudePretty, "pretty", true,
		"normalize the event stream (false copies child stdout through raw)")
	f.StringSliceVar(&claudeSuppress, "suppress", nil, "extra event kinds to suppress")
}

func runClaude(cmd *cobra.Command, args []string) error {
	cfg := claude.DefaultConfig()

	file, err := config.Load(claudePath)
	if err != nil {
		exitCode = 1
		return err
	}
	if file.Claude.Model != "" {
		cfg.Model = file.Claude.Model
	}
	if file.Claude.PermissionMode != "" {
		cfg.PermissionMode = file.Claude.PermissionMode
	}
	if len(file.Claude.AllowedTools) > 0 {
		cfg.AllowedTools = file.Claude.AllowedTools
	}
	if file.Claude.AutoInstruction != "" {
		cfg.AutoInstruction = file.Claude.AutoInstruction
	}
	applyStream(file.Stream, &cfg.Pretty, &cfg.JSONRepair, &cfg.TokenUsageFlush, &cfg.Suppress)
	if file.Stream.UserMessageTruncate != nil {
		cfg.UserTruncate = *file.Stream.UserMessageTruncate
	}

	cfg.ApplyEnv()

	fl := cmd.Flags()
	cfg.Prompt = claudePrompt
	cfg.PromptFile = claudePromptFile
	cfg.Path = claudePath
	cfg.Verbose = verbose
	cfg.Continue = claudeContinue
	cfg.AdditionalArgs = claudeAdditional
	if fl.Changed("model") {
		cfg.Model = claudeModel
	}
	if fl.Changed("permission-mode") {
		cfg.PermissionMode = claudePermMode
	}
	if fl.Changed("allowed-tools") {
		cfg.AllowedTools = claudeTools
	}
	if fl.Changed("auto-instruction") {
		cfg.AutoInstruction = claudeInstruction
	}
	if fl.Changed("pretty") {
		cfg.Pretty = claudePretty
	}
	cfg.Suppress = append(cfg.Suppress, claudeSuppress...)

	code, err := claude.Run(cmd.Context(), cfg)
	exitCode = code
	return err
}
