// Package gemini wraps the Gemini CLI in headless streaming mode and
// normalizes its output through the stream driver.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/askbudi/juno-code/event"
	"github.com/askbudi/juno-code/internal/cliutil"
	"github.com/askbudi/juno-code/render"
	"github.com/askbudi/juno-code/stream"
)

const (
	// Binary is the executable looked up on PATH.
	Binary = "gemini"
	// InstallHint is shown when the binary is missing.
	InstallHint = "npm install -g @google/gemini-cli"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-pro"
	// DefaultOutputFormat is the streaming format the driver understands.
	DefaultOutputFormat = "stream-json"

	// APIKeyEnv must be set before the CLI will authenticate.
	APIKeyEnv = "GEMINI_API_KEY"
	// PrettyEnv toggles normalized output for this wrapper.
	PrettyEnv = "GEMINI_PRETTY"

	// ModelEnv, OutputFormatEnv and ProjectPathEnv supply flag defaults.
	ModelEnv        = "GEMINI_MODEL"
	OutputFormatEnv = "GEMINI_OUTPUT_FORMAT"
	ProjectPathEnv  = "GEMINI_PROJECT_PATH"
)

// ErrAPIKeyMissing means GEMINI_API_KEY is unset or blank.
var ErrAPIKeyMissing = errors.New(APIKeyEnv + " is not set")

// OutputFormats are the values the CLI accepts for --output-format.
var OutputFormats = []string{"stream-json", "json", "text"}

// modelShorthand expands the colon-prefixed aliases the wrapper accepts
// in place of full model names.
var modelShorthand = map[string]string{
	":pro":       "gemini-2.5-pro",
	":pro-2.5":   "gemini-2.5-pro",
	":flash":     "gemini-2.5-flash",
	":flash-2.5": "gemini-2.5-flash",
	":pro-3":     "gemini-3.0-pro",
	":flash-3":   "gemini-3.0-flash",
}

// ResolveModel expands a model shorthand. Only colon-prefixed names are
// aliases; anything else, including unknown aliases, passes through
// unchanged.
func ResolveModel(name string) string {
	if !strings.HasPrefix(name, ":") {
		return name
	}
	if full, ok := modelShorthand[name]; ok {
		return full
	}
	return name
}

// Config holds one gemini invocation's settings.
type Config struct {
	Prompt     string
	PromptFile string
	Path       string

	Model              string
	OutputFormat       string
	IncludeDirectories []string
	// ApprovalMode passes through to the CLI; when empty the wrapper runs
	// headless with --yolo.
	ApprovalMode string
	Debug        bool

	Pretty          bool
	Verbose         bool
	JSONRepair      bool
	TokenUsageFlush bool
	Suppress        []string
}

// DefaultConfig returns the built-in defaults, before file, environment,
// and flag overlays.
func DefaultConfig() Config {
	return Config{
		Model:        DefaultModel,
		OutputFormat: DefaultOutputFormat,
		Pretty:       true,
	}
}

// ApplyEnv overlays the environment variables this wrapper recognizes.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(ModelEnv)); v != "" {
		c.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(OutputFormatEnv)); v != "" {
		c.OutputFormat = v
	}
	if v := strings.TrimSpace(os.Getenv(ProjectPathEnv)); v != "" {
		c.Path = v
	}
	c.Pretty = cliutil.EnvBool(PrettyEnv, c.Pretty)
	c.JSONRepair = cliutil.EnvBool(cliutil.JSONRepairEnv, c.JSONRepair)
	c.TokenUsageFlush = cliutil.EnvBool(cliutil.TokenUsageFlushEnv, c.TokenUsageFlush)
}

// outputFormat falls back to the default on unknown values rather than
// failing the run.
func (c *Config) outputFormat() string {
	if c.OutputFormat == "" {
		return DefaultOutputFormat
	}
	for _, f := range OutputFormats {
		if c.OutputFormat == f {
			return f
		}
	}
	slog.Warn("unknown output format, using default",
		"format", c.OutputFormat, "default", DefaultOutputFormat)
	return DefaultOutputFormat
}

// BuildArgs assembles the gemini argv. The prompt is optional here: with
// no prompt the CLI opens its own interactive session.
func (c *Config) BuildArgs(prompt string) []string {
	var args []string
	if prompt != "" {
		args = append(args, "--prompt", prompt)
	}
	args = append(args, "--output-format", c.outputFormat(), "--model", ResolveModel(c.Model))
	if len(c.IncludeDirectories) > 0 {
		args = append(args, "--include-directories", strings.Join(c.IncludeDirectories, ","))
	}
	if c.ApprovalMode != "" {
		args = append(args, "--approval-mode", c.ApprovalMode)
	} else {
		args = append(args, "--yolo")
	}
	if c.Debug {
		args = append(args, "--debug")
	}
	return args
}

func (c *Config) driverOptions() []stream.Option {
	extra := append(event.SuppressedFromEnv(), c.Suppress...)
	return []stream.Option{
		stream.WithPretty(c.Pretty),
		stream.WithJSONRepair(c.JSONRepair),
		stream.WithTokenUsageFlush(c.TokenUsageFlush),
		stream.WithFilter(event.NewFilter(extra...)),
		stream.WithRenderer(render.New()),
	}
}

// Run resolves the prompt and project path, checks the API key and the
// CLI binary, and drives one invocation to completion. The returned
// status is the child's exit code.
func Run(ctx context.Context, cfg Config) (int, error) {
	prompt, err := cliutil.ResolvePrompt(cfg.Prompt, cfg.PromptFile)
	if err != nil && !errors.Is(err, cliutil.ErrNoPrompt) {
		return 1, err
	}
	dir, err := cliutil.ResolveDir(cfg.Path)
	if err != nil {
		return 1, err
	}
	if strings.TrimSpace(os.Getenv(APIKeyEnv)) == "" {
		return 1, ErrAPIKeyMissing
	}
	if _, err := exec.LookPath(Binary); err != nil {
		return 1, &stream.CLINotFoundError{Name: Binary, Hint: InstallHint, Cause: err}
	}

	args := cfg.BuildArgs(prompt)
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Running: %s %s\n", Binary, strings.Join(args, " "))
	}

	d := stream.New(cfg.driverOptions()...)
	return d.Run(ctx, Binary, args, dir)
}
