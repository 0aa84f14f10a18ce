package main

import (
	"github.com/spf13/cobra"

	"github.com/askbudi/juno-code/codex"
	"github.com/askbudi/juno-code/config"
)

var (
	codexPrompt      string
	codexPromptFile  string
	codexPath        string
	codexModel       string
	codexConfigs     []string
	codexInstruction string
	codexPretty      bool
	codexSuppress    []string
)

var codexCmd = &cobra.Command{
	Use:   "codex",
	Short: "Run the Codex CLI with normalized output",
	RunE:  runCodex,
}

func init() {
	f := codexCmd.Flags()
	f.StringVarP(&codexPrompt, "prompt", "p", "",
		"instruction text (falls back to --prompt-file, then $JUNO_INSTRUCTION)")
	f.StringVarP(&codexPromptFile, "prompt-file", "f", "", "file containing the instruction")
	f.StringVar(&codexPath, "cd", ".", "project directory the CLI runs in")
	f.StringVarP(&codexModel, "model", "m", codex.DefaultModel, "model name")
	f.StringArrayVarP(&codexConfigs, "config", "c", nil,
		"codex -c key=value override (repeatable; replaces the built-in default for the same key)")
	f.StringVar(&codexInstruction, "auto-instruction", "",
		"system instruction prefixed to the prompt")
	f.BoolVar(&codexPretty, "pretty", true,
		"normalize the event stream (false copies child stdout through raw)")
	f.StringSliceVar(&codexSuppress, "suppress", nil, "extra event kinds to suppress")
}

func runCodex(cmd *cobra.Command, args []string) error {
	cfg := codex.DefaultConfig()

	file, err := config.Load(codexPath)
	if err != nil {
		exitCode = 1
		return err
	}
	if file.Codex.Model != "" {
		cfg.Model = file.Codex.Model
	}
	if len(file.Codex.Configs) > 0 {
		cfg.Configs = file.Codex.Configs
	}
	if file.Codex.AutoInstruction != "" {
		cfg.AutoInstruction = file.Codex.AutoInstruction
	}
	applyStream(file.Stream, &cfg.Pretty, &cfg.JSONRepair, &cfg.TokenUsageFlush, &cfg.Suppress)

	cfg.ApplyEnv()

	fl := cmd.Flags()
	cfg.Prompt = codexPrompt
	cfg.PromptFile = codexPromptFile
	cfg.Path = codexPath
	cfg.Verbose = verbose
	if fl.Changed("model") {
		cfg.Model = codexModel
	}
	if fl.Changed("config") {
		cfg.Configs = append(cfg.Configs, codexConfigs...)
	}
	if fl.Changed("auto-instruction") {
		cfg.AutoInstruction = codexInstruction
	}
	if fl.Changed("pretty") {
		cfg.Pretty = codexPretty
	}
	cfg.Suppress = append(cfg.Suppress, codexSuppress...)

	code, err := codex.Run(cmd.Context(), cfg)
	exitCode = code
	return err
}
