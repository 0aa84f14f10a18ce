// Package cliutil carries the small pieces every service wrapper shares:
// prompt resolution, project-path checks, and environment parsing.
package cliutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InstructionEnv supplies the prompt when neither --prompt nor
// --prompt-file is given.
const InstructionEnv = "JUNO_INSTRUCTION"

// JSONRepairEnv opts in to repairing malformed event spans before the
// raw-text fallback.
const JSONRepairEnv = "JUNO_JSON_REPAIR"

// TokenUsageFlushEnv opts in to emitting the retained token-usage event
// at stream end.
const TokenUsageFlushEnv = "JUNO_TOKEN_USAGE_FLUSH"

// ErrNoPrompt means no prompt source produced any text.
var ErrNoPrompt = errors.New("no prompt given: use --prompt, --prompt-file, or set " + InstructionEnv)

// ResolvePrompt returns the instruction text: explicit text wins, then
// the prompt file's contents (trimmed), then the JUNO_INSTRUCTION
// environment variable.
func ResolvePrompt(text, file string) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading prompt file: %w", err)
		}
		s := strings.TrimSpace(string(b))
		if s == "" {
			return "", fmt.Errorf("prompt file %s is empty", file)
		}
		return s, nil
	}
	if s := strings.TrimSpace(os.Getenv(InstructionEnv)); s != "" {
		return s, nil
	}
	return "", ErrNoPrompt
}

// ResolveDir absolutizes path and verifies it is an existing directory.
// Blank means the current directory.
func ResolveDir(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("project path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path %s is not a directory", abs)
	}
	return abs, nil
}

// EnvBool reads a boolean variable; unset or unparseable values return
// def.
func EnvBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// EnvInt reads an integer variable; unset or unparseable values return
// def.
func EnvInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}
