package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renang/report-export/internal/validation"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "{report}_{start}_{end}", cfg.FileNameFormat)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "en", cfg.DateLocale)
	assert.Equal(t, "suffix", cfg.CollisionPolicy)
	assert.Equal(t, ",", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 2, cfg.CSVSettings.DataStartRow)
	assert.Equal(t, "amount", cfg.CSVSettings.Columns.Amount)
	assert.Equal(t, "E", cfg.XLSXColumns.Columns.Amount)
	assert.Equal(t, "Other", cfg.Labels.FallbackGroupLabel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMainConfig(t *testing.T) {
	path := writeConfig(t, `
output_dir: /tmp/reports
date_locale: id
collision_policy: fail
shutdown_timeout: 3s
labels:
  fallback_group_label: Lainnya
  status:
    completed: Tuntas
csv_settings:
  delimiter: ";"
  header_row: 2
  columns:
    member_name: Nama
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/reports", cfg.OutputDir)
	assert.Equal(t, "id", cfg.DateLocale)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "Lainnya", cfg.Labels.FallbackGroupLabel)
	assert.Equal(t, "Laporan", cfg.Labels.DefaultSheetLabel)
	assert.Equal(t, "Tuntas", cfg.Labels.Status.Completed)
	assert.Equal(t, "Berlangsung", cfg.Labels.Status.InProgress)
	assert.Equal(t, 3, cfg.CSVSettings.DataStartRow)
	assert.Equal(t, "Nama", cfg.CSVSettings.Columns.MemberName)
	assert.Equal(t, "amount", cfg.CSVSettings.Columns.Amount)

	r, err := cfg.NewRenderer()
	require.NoError(t, err)
	assert.Equal(t, "id", r.Locale())
}

func TestLoadMainConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"locale":    "date_locale: fr\n",
		"collision": "collision_policy: merge\n",
		"group":     "group_by: coach\n",
		"log level": "log_level: loud\n",
		"csv rows":  "csv_settings:\n  header_row: 3\n  data_start_row: 2\n",
	}
	for name, content := range cases {
		_, err := LoadMainConfig(writeConfig(t, content))
		require.Error(t, err, name)
		assert.Equal(t, validation.KindValidation, validation.KindOf(err), name)
	}

	_, err := LoadMainConfig(writeConfig(t, "output_dir: [unclosed\n"))
	assert.Error(t, err)

	_, err = LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "output_dir: /from/file\nlog_level: info\n")

	t.Setenv("REPORTEXPORT_OUTPUT_DIR", "/from/env")
	t.Setenv("REPORTEXPORT_LOG_LEVEL", "debug")

	cfg, err := Load(path, NewViper())
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	t.Setenv("REPORTEXPORT_DATE_LOCALE", "de")
	_, err := Load(writeConfig(t, ""), NewViper())
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestColumnNamesRawRow(t *testing.T) {
	cols := DefaultColumnNames()
	values := map[string]string{"member_name": "Budi", "amount": "100"}

	raw := cols.RawRow(func(c string) string { return values[c] })
	assert.Equal(t, "Budi", raw.MemberName)
	assert.Equal(t, "100", raw.Amount)
	assert.Empty(t, raw.Status)
	assert.Len(t, cols.List(), 8)
}
