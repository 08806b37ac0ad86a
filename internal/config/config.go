// Package config loads choromap run configuration from YAML.
package config

import (
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"choromap/internal/classify"
	"choromap/internal/dataset"
	cerrors "choromap/internal/errors"
	"choromap/internal/logger"
	"choromap/internal/merge"
)

// Config is the full run configuration.
type Config struct {
	Log      logger.Config  `yaml:"log"`
	Geometry GeometryConfig `yaml:"geometry"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Merge    MergeConfig    `yaml:"merge"`
	Classify ClassifyConfig `yaml:"classify"`
}

type GeometryConfig struct {
	Path string `yaml:"path"`
}

type DatasetConfig struct {
	Path       string `yaml:"path"`
	Delimiter  string `yaml:"delimiter"`
	TrimSpace  bool   `yaml:"trim_space"`
	RawStrings bool   `yaml:"raw_strings"`
}

// MergeConfig mirrors merge.Spec. Join names one key used on both sides;
// JoinMap maps record attributes to dataset columns and wins when set.
type MergeConfig struct {
	Join      string            `yaml:"join"`
	JoinMap   map[string]string `yaml:"join_map"`
	Value     string            `yaml:"value"`
	Index     []string          `yaml:"index"`
	OnMiss    string            `yaml:"on_miss"`
	TrimSpace bool              `yaml:"trim_space"`
	FoldCase  bool              `yaml:"fold_case"`
}

type ClassifyConfig struct {
	Method  string `yaml:"method"`
	Classes int    `yaml:"classes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:      logger.Config{Level: "info", Encoding: "console"},
		Merge:    MergeConfig{OnMiss: "skip"},
		Classify: ClassifyConfig{Method: string(classify.Quantile), Classes: 5},
	}
}

// Load reads path over the defaults, substituting ${VAR} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindFile, "read config").WithDetail("path", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindConfig, "parse config").WithDetail("path", path)
	}
	return cfg, nil
}

// Validate checks values that can be checked without touching files.
func (c *Config) Validate() error {
	if _, ok := merge.ParseMissPolicy(c.Merge.OnMiss); !ok {
		return cerrors.New(cerrors.KindConfig, "on_miss must be skip or abort").WithDetail("on_miss", c.Merge.OnMiss)
	}
	if _, ok := classify.ParseMethod(c.Classify.Method); !ok {
		return cerrors.New(cerrors.KindConfig, "unknown classify method").WithDetail("method", c.Classify.Method)
	}
	if c.Classify.Classes < 1 {
		return cerrors.New(cerrors.KindConfig, "classify.classes must be positive").WithDetail("classes", c.Classify.Classes)
	}
	if utf8.RuneCountInString(c.Dataset.Delimiter) > 1 {
		return cerrors.New(cerrors.KindConfig, "dataset.delimiter must be one character").WithDetail("delimiter", c.Dataset.Delimiter)
	}
	if c.Merge.Join == "" && len(c.Merge.JoinMap) == 0 {
		return cerrors.New(cerrors.KindConfig, "merge.join or merge.join_map is required")
	}
	return nil
}

// Spec builds the merge spec described by c.Merge.
func (c *Config) Spec() *merge.Spec {
	js := merge.On(c.Merge.Join)
	if len(c.Merge.JoinMap) > 0 {
		js = merge.OnFields(c.Merge.JoinMap)
	}
	policy, _ := merge.ParseMissPolicy(c.Merge.OnMiss)
	return merge.NewSpec(js).
		Value(c.Merge.Value).
		Index(c.Merge.Index...).
		OnMiss(policy).
		TrimSpace(c.Merge.TrimSpace).
		FoldCase(c.Merge.FoldCase)
}

// CSVOptions returns the dataset reader options.
func (c *Config) CSVOptions() dataset.CSVOptions {
	opts := dataset.CSVOptions{TrimSpace: c.Dataset.TrimSpace, RawStrings: c.Dataset.RawStrings}
	if c.Dataset.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(c.Dataset.Delimiter)
	}
	return opts
}

// ClassifyMethod returns the parsed classification method.
func (c *Config) ClassifyMethod() classify.Method {
	m, _ := classify.ParseMethod(c.Classify.Method)
	return m
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start
		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
