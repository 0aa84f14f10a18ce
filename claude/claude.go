// Package claude wraps the Claude Code CLI: it builds the headless
// streaming argv, launches the process, and normalizes its stream-json
// output through the stream driver.
package claude

import (
	"context"
	"fmt"
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
	Binary = "claude"
	// InstallHint is shown when the binary is missing.
	InstallHint = "npm install -g @anthropic-ai/claude-code"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5-20250929"

	// DefaultAutoInstruction precedes every prompt unless overridden.
	DefaultAutoInstruction = "You are Claude Code, an AI coding assistant. Follow the instructions provided and generate high-quality code."

	// PrettyEnv toggles normalized output for this wrapper.
	PrettyEnv = "CLAUDE_PRETTY"
	// TruncateEnv caps rendered user-message lines; -1 disables.
	TruncateEnv = "CLAUDE_USER_MESSAGE_PRETTY_TRUNCATE"
)

// DefaultAllowedTools is the tool allow-list passed when none is
// configured.
var DefaultAllowedTools = []string{
	"Read", "Write", "Edit", "MultiEdit", "Bash",
	"Glob", "Grep", "WebFetch", "WebSearch", "TodoWrite",
}

// PermissionModes are the values the CLI accepts for --permission-mode.
var PermissionModes = []string{"acceptEdits", "bypassPermissions", "default", "plan"}

// Config holds one claude invocation's settings.
type Config struct {
	Prompt     string
	PromptFile string
	Path       string

	Model           string
	PermissionMode  string
	AllowedTools    []string
	AutoInstruction string
	Continue        bool
	// AdditionalArgs is a space-split string appended verbatim after the
	// built argv, an escape hatch for flags the wrapper does not model.
	AdditionalArgs string

	Pretty          bool
	UserTruncate    int
	Verbose         bool
	JSONRepair      bool
	TokenUsageFlush bool
	Suppress        []string
}

// DefaultConfig returns the built-in defaults, before file, environment,
// and flag overlays.
func DefaultConfig() Config {
	return Config{
		Model:           DefaultModel,
		PermissionMode:  "bypassPermissions",
		AllowedTools:    append([]string(nil), DefaultAllowedTools...),
		AutoInstruction: DefaultAutoInstruction,
		Pretty:          true,
		UserTruncate:    render.DefaultUserTruncateLines,
	}
}

// ApplyEnv overlays the environment variables this wrapper recognizes.
func (c *Config) ApplyEnv() {
	c.Pretty = cliutil.EnvBool(PrettyEnv, c.Pretty)
	c.UserTruncate = cliutil.EnvInt(TruncateEnv, c.UserTruncate)
	c.JSONRepair = cliutil.EnvBool(cliutil.JSONRepairEnv, c.JSONRepair)
	c.TokenUsageFlush = cliutil.EnvBool(cliutil.TokenUsageFlushEnv, c.TokenUsageFlush)
}

func (c *Config) validate() error {
	for _, mode := range PermissionModes {
		if c.PermissionMode == mode {
			return nil
		}
	}
	return fmt.Errorf("invalid permission mode %q (choose one of %s)",
		c.PermissionMode, strings.Join(PermissionModes, ", "))
}

func (c *Config) fullPrompt(prompt string) string {
	if c.AutoInstruction == "" {
		return prompt
	}
	return c.AutoInstruction + "\n\n" + prompt
}

// BuildArgs assembles the claude argv. The prompt must precede
// --allowed-tools: the CLI consumes every following argument as a tool
// name, so a prompt placed after the flag would be eaten by it.
func (c *Config) BuildArgs(prompt string) []string {
	args := []string{
		"--print",
		"--model", c.Model,
		"--permission-mode", c.PermissionMode,
		c.fullPrompt(prompt),
		"--allowed-tools",
	}
	args = append(args, c.AllowedTools...)
	if c.Continue {
		args = append(args, "--continue")
	}
	args = append(args, "--output-format", "stream-json", "--verbose")
	args = append(args, strings.Fields(c.AdditionalArgs)...)
	return args
}

func (c *Config) driverOptions() []stream.Option {
	extra := append(event.SuppressedFromEnv(), c.Suppress...)
	return []stream.Option{
		stream.WithPretty(c.Pretty),
		stream.WithJSONRepair(c.JSONRepair),
		stream.WithTokenUsageFlush(c.TokenUsageFlush),
		stream.WithFilter(event.NewFilter(extra...)),
		stream.WithRenderer(render.New(render.WithUserTruncate(c.UserTruncate))),
	}
}

// Run resolves the prompt and project path, checks the CLI is installed,
// and drives one invocation to completion. The returned status is the
// child's exit code.
func Run(ctx context.Context, cfg Config) (int, error) {
	prompt, err := cliutil.ResolvePrompt(cfg.Prompt, cfg.PromptFile)
	if err != nil {
		return 1, err
	}
	dir, err := cliutil.ResolveDir(cfg.Path)
	if err != nil {
		return 1, err
	}
	if err := cfg.validate(); err != nil {
		return 1, err
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
