// Package config loads the optional per-project .juno.yaml file. The file
// sits between built-in defaults and environment/flag overrides: a missing
// file is fine, a malformed one is an error naming its path.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at the project path root.
const FileName = ".juno.yaml"

// File is the on-disk shape of .juno.yaml. Zero values mean "not set";
// pointer fields distinguish an explicit false/zero from absence.
type File struct {
	Claude ClaudeSection `yaml:"claude,omitempty" json:"claude,omitempty"`
	Codex  CodexSection  `yaml:"codex,omitempty" json:"codex,omitempty"`
	Gemini GeminiSection `yaml:"gemini,omitempty" json:"gemini,omitempty"`
	Stream StreamSection `yaml:"stream,omitempty" json:"stream,omitempty"`
}

// ClaudeSection overrides the claude wrapper's defaults.
type ClaudeSection struct {
	Model           string   `yaml:"model,omitempty" json:"model,omitempty"`
	PermissionMode  string   `yaml:"permission_mode,omitempty" json:"permission_mode,omitempty"`
	AllowedTools    []string `yaml:"allowed_tools,omitempty" json:"allowed_tools,omitempty"`
	AutoInstruction string   `yaml:"auto_instruction,omitempty" json:"auto_instruction,omitempty"`
}

// CodexSection overrides the codex wrapper's defaults.
type CodexSection struct {
	Model           string   `yaml:"model,omitempty" json:"model,omitempty"`
	Configs         []string `yaml:"configs,omitempty" json:"configs,omitempty"`
	AutoInstruction string   `yaml:"auto_instruction,omitempty" json:"auto_instruction,omitempty"`
}

// GeminiSection overrides the gemini wrapper's defaults.
type GeminiSection struct {
	Model              string   `yaml:"model,omitempty" json:"model,omitempty"`
	OutputFormat       string   `yaml:"output_format,omitempty" json:"output_format,omitempty"`
	IncludeDirectories []string `yaml:"include_directories,omitempty" json:"include_directories,omitempty"`
}

// StreamSection tunes the normalizing pipeline for every wrapper.
type StreamSection struct {
	// Suppress lists extra event kinds to drop, merged with the defaults
	// and the environment lists.
	Suppress            []string `yaml:"suppress,omitempty" json:"suppress,omitempty"`
	Pretty              *bool    `yaml:"pretty,omitempty" json:"pretty,omitempty"`
	UserMessageTruncate *int     `yaml:"user_message_truncate,omitempty" json:"user_message_truncate,omitempty"`
	JSONRepair          *bool    `yaml:"json_repair,omitempty" json:"json_repair,omitempty"`
	TokenUsageFlush     *bool    `yaml:"token_usage_flush,omitempty" json:"token_usage_flush,omitempty"`
}

// Load reads .juno.yaml under dir. A missing file yields a zero File and
// no error. Unknown fields are rejected so typos don't silently lose
// settings.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}
