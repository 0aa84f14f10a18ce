package claude

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgsDefault(t *testing.T) {
	cfg := DefaultConfig()

	args := cfg.BuildArgs("fix the tests")

	want := []string{
		"--print",
		"--model", "claude-sonnet-4-5-20250929",
		"--permission-mode", "bypassPermissions",
		DefaultAutoInstruction + "\n\nfix the tests",
		"--allowed-tools",
		"Read", "Write", "Edit", "MultiEdit", "Bash",
		"Glob", "Grep", "WebFetch", "WebSearch", "TodoWrite",
		"--output-format", "stream-json",
		"--verbose",
	}
	assert.Equal(t, want, args)
}

// --allowed-tools consumes the arguments that follow it, so the prompt
// has to come first or it would be parsed as a tool name.
func TestBuildArgsPromptPrecedesAllowedTools(t *testing.T) {
	cfg := DefaultConfig()
	args := cfg.BuildArgs("the prompt")

	promptAt := slices.IndexFunc(args, func(s string) bool {
		return s == DefaultAutoInstruction+"\n\nthe prompt"
	})
	toolsAt := slices.Index(args, "--allowed-tools")
	require.GreaterOrEqual(t, promptAt, 0)
	require.GreaterOrEqual(t, toolsAt, 0)
	assert.Less(t, promptAt, toolsAt)
}

func TestBuildArgsContinueAndAdditional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Continue = true
	cfg.AdditionalArgs = "--max-turns 3"

	args := cfg.BuildArgs("p")

	assert.Contains(t, args, "--continue")
	n := len(args)
	assert.Equal(t, []string{"--max-turns", "3"}, args[n-2:])

	continueAt := slices.Index(args, "--continue")
	formatAt := slices.Index(args, "--output-format")
	assert.Less(t, continueAt, formatAt)
}

func TestBuildArgsCustomToolsAndInstruction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedTools = []string{"Read", "Grep"}
	cfg.AutoInstruction = ""

	args := cfg.BuildArgs("just the prompt")

	assert.Contains(t, args, "just the prompt", "no auto instruction prefix when cleared")
	toolsAt := slices.Index(args, "--allowed-tools")
	assert.Equal(t, []string{"Read", "Grep"}, args[toolsAt+1:toolsAt+3])
	assert.Equal(t, "--output-format", args[toolsAt+3])
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(PrettyEnv, "false")
	t.Setenv(TruncateEnv, "-1")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.False(t, cfg.Pretty)
	assert.Equal(t, -1, cfg.UserTruncate)
}

func TestApplyEnvLeavesDefaultsWhenBlank(t *testing.T) {
	t.Setenv(PrettyEnv, "")
	t.Setenv(TruncateEnv, "")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.True(t, cfg.Pretty)
	assert.Equal(t, 4, cfg.UserTruncate)
}

func TestValidatePermissionMode(t *testing.T) {
	cfg := DefaultConfig()

	for _, mode := range PermissionModes {
		cfg.PermissionMode = mode
		assert.NoError(t, cfg.validate(), mode)
	}

	cfg.PermissionMode = "yolo"
	assert.ErrorContains(t, cfg.validate(), "invalid permission mode")
}
