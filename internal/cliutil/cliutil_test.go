package cliutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePromptPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(file, []byte("  from file  \n"), 0o644))
	t.Setenv(InstructionEnv, "from env")

	t.Run("explicit text wins", func(t *testing.T) {
		got, err := ResolvePrompt("from flag", file)
		require.NoError(t, err)
		assert.Equal(t, "from flag", got)
	})

	t.Run("file beats env and is trimmed", func(t *testing.T) {
		got, err := ResolvePrompt("", file)
		require.NoError(t, err)
		assert.Equal(t, "from file", got)
	})

	t.Run("env is the last resort", func(t *testing.T) {
		got, err := ResolvePrompt("", "")
		require.NoError(t, err)
		assert.Equal(t, "from env", got)
	})
}

func TestResolvePromptErrors(t *testing.T) {
	t.Setenv(InstructionEnv, "")

	t.Run("nothing set", func(t *testing.T) {
		_, err := ResolvePrompt("", "")
		assert.ErrorIs(t, err, ErrNoPrompt)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ResolvePrompt("", filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "empty.txt")
		require.NoError(t, os.WriteFile(file, []byte("  \n"), 0o644))
		_, err := ResolvePrompt("", file)
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("blank text falls through to env error", func(t *testing.T) {
		_, err := ResolvePrompt("   ", "")
		assert.ErrorIs(t, err, ErrNoPrompt)
	})
}

func TestResolveDir(t *testing.T) {
	t.Run("blank means cwd", func(t *testing.T) {
		got, err := ResolveDir("")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("absolutizes", func(t *testing.T) {
		dir := t.TempDir()
		got, err := ResolveDir(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := ResolveDir(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("file is not a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f.txt")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		_, err := ResolveDir(file)
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestEnvBool(t *testing.T) {
	assert.True(t, EnvBool("CLIUTIL_TEST_UNSET_BOOL", true))
	assert.False(t, EnvBool("CLIUTIL_TEST_UNSET_BOOL", false))

	t.Setenv("CLIUTIL_TEST_BOOL", "false")
	assert.False(t, EnvBool("CLIUTIL_TEST_BOOL", true))

	t.Setenv("CLIUTIL_TEST_BOOL", " true ")
	assert.True(t, EnvBool("CLIUTIL_TEST_BOOL", false))

	t.Setenv("CLIUTIL_TEST_BOOL", "banana")
	assert.True(t, EnvBool("CLIUTIL_TEST_BOOL", true))
}

func TestEnvInt(t *testing.T) {
	assert.Equal(t, 4, EnvInt("CLIUTIL_TEST_UNSET_INT", 4))

	t.Setenv("CLIUTIL_TEST_INT", "-1")
	assert.Equal(t, -1, EnvInt("CLIUTIL_TEST_INT", 4))

	t.Setenv("CLIUTIL_TEST_INT", "not a number")
	assert.Equal(t, 4, EnvInt("CLIUTIL_TEST_INT", 4))
}
