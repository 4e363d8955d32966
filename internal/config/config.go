// =============================================================================
// Report Export - Configuration Module
// =============================================================================
//
// This module handles loading and validating the YAML configuration file.
// Every setting has a default, so the tool also runs without a config file.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (applyDefaults)
//   2. config.yaml (--config flag, or ./config.yaml when present)
//   3. REPORTEXPORT_* environment variables and command-line flags, read
//      through viper (ApplyOverrides)
//
// EXAMPLE config.yaml:
//
//   output_dir: ./output
//   file_name_format: "{report}_{start}_{end}_{uuid}"
//   date_locale: id
//   collision_policy: suffix
//   labels:
//     fallback_group_label: Lainnya
//   csv_settings:
//     delimiter: ";"
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// DefaultConfigFile is read when --config is not given and the file exists.
const DefaultConfigFile = "config.yaml"

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "REPORTEXPORT"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig represents the main configuration file (config.yaml).
type MainConfig struct {
	// -------------------------------------------------------------------------
	// OUTPUT
	// -------------------------------------------------------------------------

	// OutputDir is where generated reports are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// FileNameFormat is the pattern for generated file names, without the
	// extension. Placeholders: {report}, {start}, {end}, {timestamp}, {uuid}.
	// Default: "{report}_{start}_{end}"
	FileNameFormat string `yaml:"file_name_format"`

	// -------------------------------------------------------------------------
	// LOGGING
	// -------------------------------------------------------------------------

	// LogLevel is one of debug, info, warn, error.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// -------------------------------------------------------------------------
	// HTTP SERVER
	// -------------------------------------------------------------------------

	// ListenAddr is the address the serve command listens on.
	// Default: ":8080"
	ListenAddr string `yaml:"listen_addr"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies.
	// Default: 10 MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// -------------------------------------------------------------------------
	// RENDERING
	// -------------------------------------------------------------------------

	// DateLocale selects month names: "en" or "id".
	// Default: "en"
	DateLocale string `yaml:"date_locale"`

	// CollisionPolicy is "suffix" or "fail".
	// Default: "suffix"
	CollisionPolicy string `yaml:"collision_policy"`

	// GroupBy is "class", "status" or "member".
	// Default: "class"
	GroupBy string `yaml:"group_by"`

	// Labels overrides the rendered text. Empty fields keep the defaults.
	Labels report.Labels `yaml:"labels"`

	// -------------------------------------------------------------------------
	// SOURCES
	// -------------------------------------------------------------------------

	// CSVSettings controls parsing of CSV member exports.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// XLSXColumns controls parsing of XLSX member exports.
	XLSXColumns XLSXColumns `yaml:"xlsx_columns"`

	// SQLitePath is the payments database used by --db and the server.
	// Empty disables the database source.
	SQLitePath string `yaml:"sqlite_path"`

	// MaxRowErrors caps how many invalid rows are reported per input.
	// Default: 50
	MaxRowErrors int `yaml:"max_row_errors"`
}

// =============================================================================
// SOURCE SETTINGS
// =============================================================================

// CSVSettings contains CSV parsing configuration.
type CSVSettings struct {
	// Delimiter is the field separator ("," ";" "|" "tab").
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRow is the 1-indexed row holding the column headers.
	// Default: 1
	HeaderRow int `yaml:"header_row"`

	// DataStartRow is the 1-indexed row where data begins.
	// Default: HeaderRow + 1
	DataStartRow int `yaml:"data_start_row"`

	// Columns maps each row field to its header text. Matching ignores case
	// and surrounding spaces.
	Columns ColumnNames `yaml:"columns"`
}

// ColumnNames names the source column of each row field.
type ColumnNames struct {
	PaymentDate       string `yaml:"payment_date"`
	ClassName         string `yaml:"class_name"`
	MemberName        string `yaml:"member_name"`
	Description       string `yaml:"description"`
	Amount            string `yaml:"amount"`
	PhoneNumber       string `yaml:"phone_number"`
	RemainingSessions string `yaml:"remaining_sessions"`
	Status            string `yaml:"status"`
}

// XLSXColumns contains XLSX parsing configuration.
type XLSXColumns struct {
	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// DataStartRow is the 1-indexed row where data begins.
	// Default: 2
	DataStartRow int `yaml:"data_start_row"`

	// Columns holds the column letter of each row field.
	// Default: A..H in ColumnNames order.
	Columns ColumnNames `yaml:"columns"`
}

// RawRow builds a row by looking up each field's column with get.
func (c ColumnNames) RawRow(get func(column string) string) types.RawRow {
	return types.RawRow{
		PaymentDate:       get(c.PaymentDate),
		ClassName:         get(c.ClassName),
		MemberName:        get(c.MemberName),
		Description:       get(c.Description),
		Amount:            get(c.Amount),
		PhoneNumber:       get(c.PhoneNumber),
		RemainingSessions: get(c.RemainingSessions),
		Status:            get(c.Status),
	}
}

// List returns the column of every field, in RawRow field order.
func (c ColumnNames) List() []string {
	return []string{
		c.PaymentDate, c.ClassName, c.MemberName, c.Description,
		c.Amount, c.PhoneNumber, c.RemainingSessions, c.Status,
	}
}

// DefaultColumnNames returns the header names used by the member export.
func DefaultColumnNames() ColumnNames {
	return ColumnNames{
		PaymentDate:       "payment_date",
		ClassName:         "class_name",
		MemberName:        "member_name",
		Description:       "description",
		Amount:            "amount",
		PhoneNumber:       "phone_number",
		RemainingSessions: "remaining_sessions",
		Status:            "status",
	}
}

// DefaultColumnLetters returns the default XLSX column layout.
func DefaultColumnLetters() ColumnNames {
	return ColumnNames{
		PaymentDate:       "A",
		ClassName:         "B",
		MemberName:        "C",
		Description:       "D",
		Amount:            "E",
		PhoneNumber:       "F",
		RemainingSessions: "G",
		Status:            "H",
	}
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the config.yaml file.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults applied.
//   - An error if the file cannot be read or a setting is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load resolves the effective configuration.
//
// An explicit path must exist. Without one, DefaultConfigFile is used when
// present and built-in defaults otherwise. Overrides from v (environment
// and bound flags) are applied last; v may be nil.
func Load(path string, v *viper.Viper) (*MainConfig, error) {
	var cfg *MainConfig

	switch {
	case path != "":
		loaded, err := LoadMainConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			loaded, err := LoadMainConfig(DefaultConfigFile)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", DefaultConfigFile, err)
		} else {
			cfg = Default()
		}
	}

	if v != nil {
		ApplyOverrides(cfg, v)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	return cfg, nil
}

// NewViper returns a viper instance reading REPORTEXPORT_* variables, e.g.
// REPORTEXPORT_OUTPUT_DIR for output_dir.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides copies every non-empty overridable key from v into cfg.
func ApplyOverrides(cfg *MainConfig, v *viper.Viper) {
	targets := map[string]*string{
		"output_dir":       &cfg.OutputDir,
		"file_name_format": &cfg.FileNameFormat,
		"log_level":        &cfg.LogLevel,
		"listen_addr":      &cfg.ListenAddr,
		"date_locale":      &cfg.DateLocale,
		"collision_policy": &cfg.CollisionPolicy,
		"group_by":         &cfg.GroupBy,
		"sqlite_path":      &cfg.SQLitePath,
	}

	for key, target := range targets {
		if value := strings.TrimSpace(v.GetString(key)); value != "" {
			*target = value
		}
	}
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *MainConfig) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.FileNameFormat == "" {
		cfg.FileNameFormat = "{report}_{start}_{end}"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	if cfg.DateLocale == "" {
		cfg.DateLocale = "en"
	}
	if cfg.CollisionPolicy == "" {
		cfg.CollisionPolicy = string(report.CollisionSuffix)
	}
	if cfg.GroupBy == "" {
		cfg.GroupBy = "class"
	}
	if cfg.MaxRowErrors == 0 {
		cfg.MaxRowErrors = 50
	}

	cfg.Labels = cfg.Labels.Merge(report.DefaultLabels())

	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
	if cfg.CSVSettings.HeaderRow == 0 {
		cfg.CSVSettings.HeaderRow = 1
	}
	if cfg.CSVSettings.DataStartRow == 0 {
		cfg.CSVSettings.DataStartRow = cfg.CSVSettings.HeaderRow + 1
	}
	cfg.CSVSettings.Columns = cfg.CSVSettings.Columns.merge(DefaultColumnNames())

	if cfg.XLSXColumns.DataStartRow == 0 {
		cfg.XLSXColumns.DataStartRow = 2
	}
	cfg.XLSXColumns.Columns = cfg.XLSXColumns.Columns.merge(DefaultColumnLetters())
}

func (c ColumnNames) merge(d ColumnNames) ColumnNames {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return ColumnNames{
		PaymentDate:       pick(c.PaymentDate, d.PaymentDate),
		ClassName:         pick(c.ClassName, d.ClassName),
		MemberName:        pick(c.MemberName, d.MemberName),
		Description:       pick(c.Description, d.Description),
		Amount:            pick(c.Amount, d.Amount),
		PhoneNumber:       pick(c.PhoneNumber, d.PhoneNumber),
		RemainingSessions: pick(c.RemainingSessions, d.RemainingSessions),
		Status:            pick(c.Status, d.Status),
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks that every enumerated setting has a supported value.
func (c *MainConfig) Validate() error {
	if _, err := c.NewRenderer(); err != nil {
		return err
	}

	if strings.TrimSpace(c.FileNameFormat) == "" {
		return &validation.ValidationError{Field: "file_name_format", Value: c.FileNameFormat, Message: "is required"}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return &validation.ValidationError{Field: "log_level", Value: c.LogLevel, Message: "must be one of debug, info, warn, error"}
	}

	if c.CSVSettings.DataStartRow <= c.CSVSettings.HeaderRow {
		return &validation.ValidationError{
			Field:   "csv_settings.data_start_row",
			Value:   fmt.Sprint(c.CSVSettings.DataStartRow),
			Message: "must be after header_row",
		}
	}

	if c.MaxBodyBytes < 0 {
		return &validation.ValidationError{Field: "max_body_bytes", Value: fmt.Sprint(c.MaxBodyBytes), Message: "must not be negative"}
	}

	return nil
}

// RendererOptions converts the rendering settings into report.Options.
func (c *MainConfig) RendererOptions() (report.Options, error) {
	policy, err := report.ParseCollisionPolicy(c.CollisionPolicy)
	if err != nil {
		return report.Options{}, err
	}

	groupBy, err := types.ParseGroupField(c.GroupBy)
	if err != nil {
		return report.Options{}, err
	}

	return report.Options{
		Labels:          c.Labels,
		DateLocale:      c.DateLocale,
		CollisionPolicy: policy,
		GroupBy:         groupBy,
	}, nil
}

// NewRenderer builds the renderer described by the configuration.
func (c *MainConfig) NewRenderer() (*report.Renderer, error) {
	opts, err := c.RendererOptions()
	if err != nil {
		return nil, err
	}
	return report.NewRenderer(opts)
}
