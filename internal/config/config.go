package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved settings for one run.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Charts   ChartsConfig   `mapstructure:"charts"`
	Export   ExportConfig   `mapstructure:"export"`
	Cleaner  CleanerConfig  `mapstructure:"cleaner"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	App      AppConfig      `mapstructure:"app"`
}

type InputConfig struct {
	Path       string `mapstructure:"path"`
	DateColumn string `mapstructure:"date_column"`
	Delimiter  string `mapstructure:"delimiter"` // single character, empty = by extension
	Sheet      string `mapstructure:"sheet"`     // xlsx only, empty = first sheet
}

type AnalysisConfig struct {
	GroupBy string `mapstructure:"group_by"`
	Metric  string `mapstructure:"metric"`
	Head    int    `mapstructure:"head"`
}

type ChartsConfig struct {
	OutputDir     string   `mapstructure:"output_dir"`
	Bins          int      `mapstructure:"bins"`
	Views         []string `mapstructure:"views"` // empty = all four
	FontPaths     []string `mapstructure:"font_paths"`
	Show          bool     `mapstructure:"show"`
	ViewerTimeout int      `mapstructure:"viewer_timeout"` // seconds
}

type ExportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type CleanerConfig struct {
	TextFill string `mapstructure:"text_fill"`
}

// TelegramConfig enables the chart publisher when BotToken is set.
type TelegramConfig struct {
	BotToken       string  `mapstructure:"bot_token"`
	ChatID         string  `mapstructure:"chat_id"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	MaxRetries     int     `mapstructure:"max_retries"`
	RequestTimeout int     `mapstructure:"request_timeout"` // seconds
}

// Enabled reports whether charts should be published.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

// Validate checks the publisher settings. Load does not call it: a stray
// TELEGRAM_BOT_TOKEN in the environment must not fail the analysis itself.
func (t TelegramConfig) Validate() error {
	if t.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if _, err := t.ChatIDInt(); err != nil {
		return fmt.Errorf("telegram.chat_id must be numeric: %w", err)
	}
	if t.RatePerSecond <= 0 {
		return fmt.Errorf("telegram.rate_per_second must be positive")
	}
	return nil
}

// ChatIDInt is ChatID as the numeric id the bot API expects.
func (t TelegramConfig) ChatIDInt() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(t.ChatID), 10, 64)
}

type AppConfig struct {
	LogsDir string `mapstructure:"logs_dir"`
	Debug   bool   `mapstructure:"debug"`
	Strict  bool   `mapstructure:"strict"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"input":       "input.path",
	"date-column": "input.date_column",
	"delimiter":   "input.delimiter",
	"sheet":       "input.sheet",
	"group-by":    "analysis.group_by",
	"metric":      "analysis.metric",
	"head":        "analysis.head",
	"output-dir":  "charts.output_dir",
	"bins":        "charts.bins",
	"views":       "charts.views",
	"show":        "charts.show",
	"export":      "export.enabled",
	"export-dir":  "export.dir",
	"text-fill":   "cleaner.text_fill",
	"logs-dir":    "app.logs_dir",
	"debug":       "app.debug",
	"strict":      "app.strict",
}

// RegisterFlags adds the command-line flags that Load understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file (default ./config.yaml)")
	fs.String("input", "sales_data.csv", "Sales data file, .csv/.tsv or .xlsx (env: SALES_INPUT)")
	fs.String("date-column", "Date", "Column parsed as dates (env: SALES_DATE_COLUMN)")
	fs.String("delimiter", "", "Field delimiter for delimited files (env: SALES_DELIMITER)")
	fs.String("sheet", "", "Worksheet to read from an xlsx file (env: SALES_SHEET)")
	fs.String("group-by", "Region", "Column to group the averages by (env: SALES_GROUP_BY)")
	fs.String("metric", "Sales", "Numeric column averaged per group (env: SALES_METRIC)")
	fs.Int("head", 5, "Rows shown in the preview (env: SALES_HEAD)")
	fs.String("output-dir", "charts", "Directory the chart PNGs are written to (env: SALES_OUTPUT_DIR)")
	fs.Int("bins", 10, "Histogram bucket count (env: SALES_BINS)")
	fs.StringSlice("views", nil, "Charts to render: line,bar,histogram,scatter (env: SALES_VIEWS)")
	fs.Bool("show", false, "Open every chart in the system image viewer (env: SALES_SHOW)")
	fs.Bool("export", false, "Write summary.json and summary.xlsx (env: SALES_EXPORT_ENABLED)")
	fs.String("export-dir", "reports", "Directory for exported summaries (env: SALES_EXPORT_DIR)")
	fs.String("text-fill", "0", "Value written into missing text cells (env: SALES_TEXT_FILL)")
	fs.String("logs-dir", "logs", "Directory for app.log (env: SALES_LOGS_DIR)")
	fs.Bool("debug", false, "Debug level in app.log (env: SALES_DEBUG)")
	fs.Bool("strict", false, "Exit non-zero when the analysis fails (env: SALES_STRICT)")
}

// Load resolves the config, lowest precedence first:
// 1. defaults
// 2. config.yaml (or --config)
// 3. .env file
// 4. environment (SALES_* and aliases)
// 5. flags set on the command line
func Load(flags *pflag.FlagSet) (*Config, error) {
	// .env only fills variables that are not already set
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	configFile := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	v.SetEnvPrefix("SALES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				v.BindPFlag(key, f)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// views arrive as a list from YAML and flags, as one string from env
	switch raw := v.Get("charts.views").(type) {
	case string:
		cfg.Charts.Views = splitList(raw)
	case []string:
		cfg.Charts.Views = raw
	case []interface{}:
		views := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				views = append(views, strings.TrimSpace(s))
			}
		}
		cfg.Charts.Views = views
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupEnvAliases(v *viper.Viper) {
	// short names next to the SALES_<SECTION>_<KEY> form
	v.BindEnv("input.path", "SALES_INPUT_PATH", "SALES_INPUT")
	v.BindEnv("input.date_column", "SALES_INPUT_DATE_COLUMN", "SALES_DATE_COLUMN")
	v.BindEnv("input.delimiter", "SALES_INPUT_DELIMITER", "SALES_DELIMITER")
	v.BindEnv("input.sheet", "SALES_INPUT_SHEET", "SALES_SHEET")
	v.BindEnv("analysis.group_by", "SALES_ANALYSIS_GROUP_BY", "SALES_GROUP_BY")
	v.BindEnv("analysis.metric", "SALES_ANALYSIS_METRIC", "SALES_METRIC")
	v.BindEnv("analysis.head", "SALES_ANALYSIS_HEAD", "SALES_HEAD")
	v.BindEnv("charts.output_dir", "SALES_CHARTS_OUTPUT_DIR", "SALES_OUTPUT_DIR")
	v.BindEnv("charts.bins", "SALES_CHARTS_BINS", "SALES_BINS")
	v.BindEnv("charts.views", "SALES_CHARTS_VIEWS", "SALES_VIEWS")
	v.BindEnv("charts.show", "SALES_CHARTS_SHOW", "SALES_SHOW")
	v.BindEnv("export.enabled", "SALES_EXPORT_ENABLED", "SALES_EXPORT")
	v.BindEnv("cleaner.text_fill", "SALES_CLEANER_TEXT_FILL", "SALES_TEXT_FILL")

	// Telegram - same names the monitor bots use
	v.BindEnv("telegram.bot_token", "SALES_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "SALES_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	v.BindEnv("app.logs_dir", "SALES_APP_LOGS_DIR", "SALES_LOGS_DIR")
	v.BindEnv("app.debug", "SALES_APP_DEBUG", "SALES_DEBUG")
	v.BindEnv("app.strict", "SALES_APP_STRICT", "SALES_STRICT")
}

// setDefaults mirrors the flag defaults so a run without flags behaves the same.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "sales_data.csv")
	v.SetDefault("input.date_column", "Date")
	v.SetDefault("input.delimiter", "")
	v.SetDefault("input.sheet", "")

	v.SetDefault("analysis.group_by", "Region")
	v.SetDefault("analysis.metric", "Sales")
	v.SetDefault("analysis.head", 5)

	v.SetDefault("charts.output_dir", "charts")
	v.SetDefault("charts.bins", 10)
	v.SetDefault("charts.views", []string{})
	v.SetDefault("charts.font_paths", []string{})
	v.SetDefault("charts.show", false)
	v.SetDefault("charts.viewer_timeout", 300) // viewers block until closed

	v.SetDefault("export.enabled", false)
	v.SetDefault("export.dir", "reports")

	v.SetDefault("cleaner.text_fill", "0")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.rate_per_second", 1.0)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.request_timeout", 30)

	v.SetDefault("app.logs_dir", "logs")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.strict", false)
}

func validateConfig(cfg *Config) error {
	if cfg.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	if cfg.Charts.Bins < 1 {
		return fmt.Errorf("charts.bins must be at least 1, got %d", cfg.Charts.Bins)
	}
	if len([]rune(cfg.Input.Delimiter)) > 1 {
		return fmt.Errorf("input.delimiter must be a single character, got %q", cfg.Input.Delimiter)
	}
	if cfg.Analysis.Head < 0 {
		return fmt.Errorf("analysis.head must not be negative, got %d", cfg.Analysis.Head)
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
