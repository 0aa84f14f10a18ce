package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askbudi/juno-code/config"
	"github.com/askbudi/juno-code/gemini"
)

var (
	geminiPrompt     string
	geminiPromptFile string
	geminiPath       string
	geminiModel      string
	geminiFormat     string
	geminiDirs       []string
	geminiApproval   string
	geminiDebug      bool
	geminiPretty     bool
	geminiSuppress   []string
)

var geminiCmd = &cobra.Command{
	Use:   "gemini",
	Short: "Run the Gemini CLI with normalized output",
	Long: `Run the Gemini CLI with normalized output.

Model shorthands: :pro and :pro-2.5 expand to gemini-2.5-pro, :flash and
:flash-2.5 to gemini-2.5-flash, :pro-3 to gemini-3.0-pro, :flash-3 to
gemini-3.0-flash. Requires GEMINI_API_KEY.`,
	RunE: runGemini,
}

func init() {
	f := geminiCmd.Flags()
	f.StringVarP(&geminiPrompt, "prompt", "p", "",
		"instruction text (falls back to --prompt-file, then $JUNO_INSTRUCTION)")
	f.StringVarP(&geminiPromptFile, "prompt-file", "f", "", "file containing the instruction")
	f.StringVar(&geminiPath, "cd", ".", "project directory the CLI runs in")
	f.StringVarP(&geminiModel, "model", "m", gemini.DefaultModel,
		"model name or :shorthand")
	f.StringVar(&geminiFormat, "output-format", gemini.DefaultOutputFormat,
		"CLI output format (stream-json, json, text)")
	f.StringSliceVar(&geminiDirs, "include-directories", nil,
		"extra directories exposed to the CLI")
	f.StringVar(&geminiApproval, "approval-mode", "",
		"approval mode (default: headless --yolo)")
	f.BoolVar(&geminiDebug, "debug", false, "pass --debug to the CLI")
	f.BoolVar(&geminiPretty, "pretty", true,
		"normalize the event stream (false copies child stdout through raw)")
	f.StringSliceVar(&geminiSuppress, "suppress", nil, "extra event kinds to suppress")
}

// geminiProjectPath resolves the project directory: an explicit --cd wins,
// then GEMINI_PROJECT_PATH, then the flag's default.
func geminiProjectPath(changed bool, flag string) string {
	if changed {
		return flag
	}
	if v := strings.TrimSpace(os.Getenv(gemini.ProjectPathEnv)); v != "" {
		return v
	}
	return flag
}

func runGemini(cmd *cobra.Command, args []string) error {
	cfg := gemini.DefaultConfig()

	fl := cmd.Flags()
	projectPath := geminiProjectPath(fl.Changed("cd"), geminiPath)

	file, err := config.Load(projectPath)
	if err != nil {
		exitCode = 1
		return err
	}
	if file.Gemini.Model != "" {
		cfg.Model = file.Gemini.Model
	}
	if file.Gemini.OutputFormat != "" {
		cfg.OutputFormat = file.Gemini.OutputFormat
	}
	if len(file.Gemini.IncludeDirectories) > 0 {
		cfg.IncludeDirectories = file.Gemini.IncludeDirectories
	}
	applyStream(file.Stream, &cfg.Pretty, &cfg.JSONRepair, &cfg.TokenUsageFlush, &cfg.Suppress)

	cfg.ApplyEnv()

	cfg.Prompt = geminiPrompt
	cfg.PromptFile = geminiPromptFile
	cfg.Path = projectPath
	cfg.Verbose = verbose
	cfg.ApprovalMode = geminiApproval
	cfg.Debug = geminiDebug
	if fl.Changed("model") {
		cfg.Model = geminiModel
	}
	if fl.Changed("output-format") {
		cfg.OutputFormat = geminiFormat
	}
	if fl.Changed("include-directories") {
		cfg.IncludeDirectories = geminiDirs
	}
	if fl.Changed("pretty") {
		cfg.Pretty = geminiPretty
	}
	cfg.Suppress = append(cfg.Suppress, geminiSuppress...)

	code, err := gemini.Run(cmd.Context(), cfg)
	exitCode = code
	return err
}
