// Package config holds the build configuration: the fixed site layout
// defaults, an optional YAML overlay and the environment toggles.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
)

// Defaults for a build run from the site root with no configuration file.
const (
	DefaultRoot    = "."
	DefaultWrapper = "wrapper.html"
	DefaultOutDir  = "dist"
)

// DefaultPatterns selects every markdown file outside dependency and output trees.
var DefaultPatterns = []string{"**/*.md", "!node_modules/**", "!dist/**"}

// Config describes one build.
type Config struct {
	// Root is the directory patterns and source paths are relative to.
	Root string `yaml:"root"`
	// Wrapper is the layout every page is embedded in.
	Wrapper string `yaml:"wrapper"`
	// OutDir receives one .html file per page.
	OutDir   string         `yaml:"out_dir"`
	Patterns []string       `yaml:"patterns"`
	Markdown MarkdownConfig `yaml:"markdown"`
	// AllowGroupOverride lets a group named pages, groups, content or url
	// replace that field in content templates instead of failing the build.
	AllowGroupOverride bool `yaml:"allow_group_override"`

	// DryRun prints every output path before writing it. Set from DRY_RUN.
	DryRun bool `yaml:"-"`
}

// MarkdownConfig mirrors markdown.Options.
type MarkdownConfig struct {
	HTML        bool `yaml:"html"`
	Linkify     bool `yaml:"linkify"`
	Typographer bool `yaml:"typographer"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Root:     DefaultRoot,
		Wrapper:  DefaultWrapper,
		OutDir:   DefaultOutDir,
		Patterns: append([]string(nil), DefaultPatterns...),
		Markdown: MarkdownConfig{HTML: true},
	}
}

// Load returns Default overlaid with the YAML file at configPath. An empty
// path skips the file entirely.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields a build cannot run without.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Root) == "" {
		problems = append(problems, "root must not be empty")
	}
	if strings.TrimSpace(c.Wrapper) == "" {
		problems = append(problems, "wrapper must not be empty")
	}
	if strings.TrimSpace(c.OutDir) == "" {
		problems = append(problems, "out_dir must not be empty")
	}
	if !hasInclude(c.Patterns) {
		problems = append(problems, "patterns must contain at least one include pattern")
	}
	if len(problems) == 0 {
		return nil
	}
	return ferrors.ValidationError(fmt.Sprintf("invalid configuration: %s", strings.Join(problems, "; "))).Build()
}

func hasInclude(patterns []string) bool {
	for _, p := range patterns {
		if p != "" && !strings.HasPrefix(p, "!") {
			return true
		}
	}
	return false
}
