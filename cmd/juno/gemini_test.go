package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askbudi/juno-code/gemini"
)

func TestGeminiProjectPathPrecedence(t *testing.T) {
	t.Setenv(gemini.ProjectPathEnv, "/from/env")

	assert.Equal(t, "/from/flag", geminiProjectPath(true, "/from/flag"),
		"an explicit --cd beats the environment")
	assert.Equal(t, "/from/env", geminiProjectPath(false, "."),
		"the environment beats the flag default")

	t.Setenv(gemini.ProjectPathEnv, "  ")
	assert.Equal(t, ".", geminiProjectPath(false, "."),
		"a blank variable falls back to the flag default")
}
