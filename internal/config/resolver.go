package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceStore   ValueSource = "store"
	SourceDefault ValueSource = "default"
)

const (
	defaultDBPath   = "~/.coopsort/coopsort.db"
	defaultLogLevel = "info"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath    string
	CLIDBPath     string
	CLIVocabulary string
	CLIColumns    string
	CLIMinFields  string
	CLILogLevel   string
}

// ResolvedConfig is the effective configuration with the origin of every
// value. Columns is a comma-separated list; MinFields is empty when nothing
// set it.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath     ResolvedValue `json:"db_path"`
	Vocabulary ResolvedValue `json:"vocabulary"`
	Columns    ResolvedValue `json:"columns"`
	MinFields  ResolvedValue `json:"min_fields"`
	LogLevel   ResolvedValue `json:"log_level"`
}

type fileConfig struct {
	DBPath     string   `yaml:"db_path"`
	Vocabulary string   `yaml:"vocabulary"`
	Columns    []string `yaml:"columns"`
	MinFields  *int     `yaml:"min_fields"`
	LogLevel   string   `yaml:"log_level"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".coopsort", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		DBPath:     ResolvedValue{Value: defaultDBPath, Source: SourceDefault},
		LogLevel:   ResolvedValue{Value: defaultLogLevel, Source: SourceDefault},
		Vocabulary: ResolvedValue{Source: SourceDefault},
		Columns:    ResolvedValue{Source: SourceDefault},
		MinFields:  ResolvedValue{Source: SourceDefault},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Vocabulary, cfg.Vocabulary, SourceConfig, path)
		apply(&out.Columns, joinColumns(cfg.Columns), SourceConfig, path)
		if cfg.MinFields != nil {
			apply(&out.MinFields, strconv.Itoa(*cfg.MinFields), SourceConfig, path)
		}
		apply(&out.LogLevel, cfg.LogLevel, SourceConfig, path)
	}

	applyEnv(&out.DBPath, "COOPSORT_DB")
	applyEnv(&out.Vocabulary, "COOPSORT_VOCABULARY")
	applyEnv(&out.Columns, "COOPSORT_COLUMNS")
	applyEnv(&out.MinFields, "COOPSORT_MIN_FIELDS")
	applyEnv(&out.LogLevel, "COOPSORT_LOG_LEVEL")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Vocabulary, opts.CLIVocabulary, SourceCLI, "--vocabulary")
	apply(&out.Columns, opts.CLIColumns, SourceCLI, "--columns")
	apply(&out.MinFields, opts.CLIMinFields, SourceCLI, "--min-fields")
	apply(&out.LogLevel, opts.CLILogLevel, SourceCLI, "--log-level")

	out.DBPath.Value = expandUserPath(out.DBPath.Value)
	if out.Vocabulary.Value != "" {
		out.Vocabulary.Value = expandUserPath(out.Vocabulary.Value)
	}
	if out.Columns.Value != "" {
		out.Columns.Value = joinColumns(SplitColumns(out.Columns.Value))
	}

	if _, err := out.MinFieldsInt(); err != nil {
		return out, err
	}
	return out, nil
}

// ApplyStoredColumns fills Columns from the saved column configuration when
// no file, env or flag set them.
func (r *ResolvedConfig) ApplyStoredColumns(cols []string, from string) {
	if r.Columns.Value != "" {
		return
	}
	apply(&r.Columns, joinColumns(cols), SourceStore, from)
}

// ColumnList returns the resolved columns, or nil for the built-in default.
func (r ResolvedConfig) ColumnList() []string {
	return SplitColumns(r.Columns.Value)
}

// MinFieldsInt returns the resolved completeness threshold. Zero means the
// assembler default.
func (r ResolvedConfig) MinFieldsInt() (int, error) {
	v := strings.TrimSpace(r.MinFields.Value)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("min_fields from %s: %q is not a non-negative integer", r.MinFields.Source, v)
	}
	return n, nil
}

// SplitColumns parses a comma-separated column list, dropping empty entries.
func SplitColumns(raw string) []string {
	var cols []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func joinColumns(cols []string) string {
	var kept []string
	for _, c := range cols {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, ",")
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
