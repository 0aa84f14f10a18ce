package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":pro", "gemini-2.5-pro"},
		{":pro-2.5", "gemini-2.5-pro"},
		{":flash", "gemini-2.5-flash"},
		{":flash-2.5", "gemini-2.5-flash"},
		{":pro-3", "gemini-3.0-pro"},
		{":flash-3", "gemini-3.0-flash"},
		{"gemini-2.5-pro", "gemini-2.5-pro"},
		{"custom-model", "custom-model"},
		{":unknown", ":unknown"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveModel(tt.in); got != tt.want {
			t.Errorf("ResolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildArgsDefault(t *testing.T) {
	cfg := DefaultConfig()

	args := cfg.BuildArgs("summarize the repo")

	want := []string{
		"--prompt", "summarize the repo",
		"--output-format", "stream-json",
		"--model", "gemini-2.5-pro",
		"--yolo",
	}
	assert.Equal(t, want, args)
}

func TestBuildArgsNoPromptOmitsFlag(t *testing.T) {
	cfg := DefaultConfig()

	args := cfg.BuildArgs("")

	assert.NotContains(t, args, "--prompt")
	assert.Equal(t, "--output-format", args[0])
}

func TestBuildArgsApprovalModeReplacesYolo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApprovalMode = "auto_edit"

	args := cfg.BuildArgs("p")

	assert.Contains(t, args, "--approval-mode")
	assert.Contains(t, args, "auto_edit")
	assert.NotContains(t, args, "--yolo")
}

func TestBuildArgsIncludeDirectoriesAndDebug(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeDirectories = []string{"pkg", "docs"}
	cfg.Debug = true
	cfg.Model = ":flash"

	args := cfg.BuildArgs("p")

	assert.Contains(t, args, "--include-directories")
	assert.Contains(t, args, "pkg,docs")
	assert.Contains(t, args, "gemini-2.5-flash")
	assert.Equal(t, "--debug", args[len(args)-1])
}

func TestOutputFormatFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputFormat = "yaml"

	assert.Equal(t, "stream-json", cfg.outputFormat())

	cfg.OutputFormat = "text"
	assert.Equal(t, "text", cfg.outputFormat())
}

func TestRunRequiresAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "  ")

	cfg := DefaultConfig()
	cfg.Prompt = "p"
	cfg.Path = t.TempDir()

	code, err := Run(context.Background(), cfg)

	require.ErrorIs(t, err, ErrAPIKeyMissing)
	assert.Equal(t, 1, code)
}
