// Package codex wraps the Codex CLI's exec subcommand and normalizes its
// JSON event stream through the stream driver.
package codex

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
	Binary = "codex"
	// InstallHint is shown when the binary is missing.
	InstallHint = "npm install -g @openai/codex"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4"

	// DefaultAutoInstruction precedes every prompt unless overridden.
	DefaultAutoInstruction = "You are an AI coding assistant. Follow the instructions provided and generate high-quality code."

	// PrettyEnv toggles normalized output for this wrapper.
	PrettyEnv = "CODEX_PRETTY"
)

// defaultConfigs are the -c overrides codex needs for headless streaming.
// A user-supplied value for the same key replaces the default.
var defaultConfigs = []string{
	"include_apply_patch_tool=true",
	"use_experimental_streamable_shell_tool=true",
	"sandbox_mode=danger-full-access",
}

// Config holds one codex invocation's settings.
type Config struct {
	Prompt     string
	PromptFile string
	Path       string

	Model           string
	Configs         []string // -c key=value entries, kept in given order
	AutoInstruction string

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
		Model:           DefaultModel,
		AutoInstruction: DefaultAutoInstruction,
		Pretty:          true,
	}
}

// ApplyEnv overlays the environment variables this wrapper recognizes.
func (c *Config) ApplyEnv() {
	c.Pretty = cliutil.EnvBool(PrettyEnv, c.Pretty)
	c.JSONRepair = cliutil.EnvBool(cliutil.JSONRepairEnv, c.JSONRepair)
	c.TokenUsageFlush = cliutil.EnvBool(cliutil.TokenUsageFlushEnv, c.TokenUsageFlush)
}

func (c *Config) fullPrompt(prompt string) string {
	if c.AutoInstruction == "" {
		return prompt
	}
	return c.AutoInstruction + "\n\n" + prompt
}

// mergedConfigs emits each default -c entry whose key the user did not
// override, then every user entry in given order.
func (c *Config) mergedConfigs() []string {
	overridden := make(map[string]bool, len(c.Configs))
	for _, kv := range c.Configs {
		key, _, _ := strings.Cut(kv, "=")
		overridden[strings.TrimSpace(key)] = true
	}

	var merged []string
	for _, kv := range defaultConfigs {
		key, _, _ := strings.Cut(kv, "=")
		if !overridden[key] {
			merged = append(merged, kv)
		}
	}
	return append(merged, c.Configs...)
}

// BuildArgs assembles the codex argv: global flags first, then the exec
// subcommand carrying the prompt, then --json for the event stream.
func (c *Config) BuildArgs(prompt, dir string) []string {
	args := []string{"--cd", dir, "-m", c.Model}
	for _, kv := range c.mergedConfigs() {
		args = append(args, "-c", kv)
	}
	return append(args, "exec", c.fullPrompt(prompt), "--json")
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
	if _, err := exec.LookPath(Binary); err != nil {
		return 1, &stream.CLINotFoundError{Name: Binary, Hint: InstallHint, Cause: err}
	}

	args := cfg.BuildArgs(prompt, dir)
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Running: %s %s\n", Binary, strings.Join(args, " "))
	}

	d := stream.New(cfg.driverOptions()...)
	return d.Run(ctx, Binary, args, dir)
}
