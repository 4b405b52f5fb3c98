package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "sales_data.csv", cfg.Input.Path)
	assert.Equal(t, "Date", cfg.Input.DateColumn)
	assert.Equal(t, "Region", cfg.Analysis.GroupBy)
	assert.Equal(t, "Sales", cfg.Analysis.Metric)
	assert.Equal(t, 5, cfg.Analysis.Head)
	assert.Equal(t, "charts", cfg.Charts.OutputDir)
	assert.Equal(t, 10, cfg.Charts.Bins)
	assert.Empty(t, cfg.Charts.Views)
	assert.False(t, cfg.Charts.Show)
	assert.False(t, cfg.Export.Enabled)
	assert.Equal(t, "0", cfg.Cleaner.TextFill)
	assert.False(t, cfg.Telegram.Enabled())
	assert.Equal(t, "logs", cfg.App.LogsDir)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, filepath.Join(dir, "config.yaml"), `
input:
  path: from_yaml.csv
charts:
  bins: 20
  output_dir: yaml_charts
  views: [bar, scatter]
analysis:
  metric: Profit
`)
	t.Setenv("SALES_BINS", "15")
	t.Setenv("SALES_CHARTS_OUTPUT_DIR", "env_charts")

	cfg, err := Load(newFlags(t, "--output-dir", "flag_charts"))
	require.NoError(t, err)

	assert.Equal(t, "from_yaml.csv", cfg.Input.Path)     // yaml over default
	assert.Equal(t, 15, cfg.Charts.Bins)                 // env over yaml
	assert.Equal(t, "flag_charts", cfg.Charts.OutputDir) // flag over env
	assert.Equal(t, "Profit", cfg.Analysis.Metric)
	assert.Equal(t, []string{"bar", "scatter"}, cfg.Charts.Views)
}

func TestLoad_DotEnvAndEnvList(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, filepath.Join(dir, ".env"), "SALES_GROUP_BY=Category\n")
	t.Cleanup(func() { os.Unsetenv("SALES_GROUP_BY") })
	t.Setenv("SALES_VIEWS", "line, histogram")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "Category", cfg.Analysis.GroupBy)
	assert.Equal(t, []string{"line", "histogram"}, cfg.Charts.Views)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "cleaner:\n  text_fill: Unknown\n")

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "Unknown", cfg.Cleaner.TextFill)

	_, err = Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "zero bins", args: []string{"--bins", "0"}},
		{name: "long delimiter", args: []string{"--delimiter", ";;"}},
		{name: "negative head", args: []string{"--head", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestLoad_StrayTelegramTokenDoesNotFail(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.True(t, cfg.Telegram.Enabled())
	assert.Error(t, cfg.Telegram.Validate())
}

func TestTelegramConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TelegramConfig
		wantErr bool
	}{
		{name: "ok", cfg: TelegramConfig{BotToken: "x", ChatID: "-100", RatePerSecond: 1}},
		{name: "no chat", cfg: TelegramConfig{BotToken: "x", RatePerSecond: 1}, wantErr: true},
		{name: "channel name", cfg: TelegramConfig{BotToken: "x", ChatID: "@sales", RatePerSecond: 1}, wantErr: true},
		{name: "zero rate", cfg: TelegramConfig{BotToken: "x", ChatID: "-100"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_TelegramEnabled(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.True(t, cfg.Telegram.Enabled())
	id, err := cfg.Telegram.ChatIDInt()
	require.NoError(t, err)
	assert.Equal(t, int64(-100200300), id)
	assert.Equal(t, 1.0, cfg.Telegram.RatePerSecond)
	assert.Equal(t, 3, cfg.Telegram.MaxRetries)
}
