package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation errors
var (
	ErrMissingSite          = errors.New("site is required")
	ErrNoKeywords           = errors.New("at least one keyword is required")
	ErrEmptyKeyword         = errors.New("keywords must not be blank")
	ErrInvalidPageLimit     = errors.New("page_limit must be non-negative (0 means no limit)")
	ErrMissingOutputDir     = errors.New("output_dir is required")
	ErrInvalidTimeout       = errors.New("timeout_seconds must be at least 1")
	ErrInvalidDate          = errors.New("date_filter dates must be YYYY-MM-DD")
	ErrDateRangeInverted    = errors.New("date_filter.from cannot be after date_filter.to")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidInterval      = errors.New("schedule.interval must be non-negative")
	ErrMissingDatabaseURL   = errors.New("database.url or DATABASE_URL is required when the database is enabled")
	ErrMissingTelegramToken = errors.New("telegram.token or REGDOC_TELEGRAM_TOKEN is required when telegram is enabled")
	ErrMissingTelegramChat  = errors.New("telegram.chat_id is required when telegram is enabled")
	ErrMissingSpreadsheetID = errors.New("sheets.spreadsheet_id is required when sheets export is enabled")
)

const dateLayout = "2006-01-02"

// Config is the scraper configuration
type Config struct {
	Site           string         `yaml:"site"`
	StartURL       string         `yaml:"start_url"`
	Keywords       []string       `yaml:"keywords"`
	PageLimit      int            `yaml:"page_limit"`
	OutputDir      string         `yaml:"output_dir"`
	TimeoutSeconds int            `yaml:"timeout_seconds"`
	DateFilter     DateFilter     `yaml:"date_filter"`
	Browser        BrowserConfig  `yaml:"browser"`
	Download       DownloadConfig `yaml:"download"`
	Logging        LoggingConfig  `yaml:"logging"`
	Database       DatabaseConfig `yaml:"database"`
	Telegram       TelegramConfig `yaml:"telegram"`
	Sheets         SheetsConfig   `yaml:"sheets"`
	Schedule       ScheduleConfig `yaml:"schedule"`
}

// DateFilter restricts results by date, either bound may be empty. When both
// are empty ECHA still searches documents updated from 2012-08-09.
type DateFilter struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// BrowserConfig configures the headless browser
type BrowserConfig struct {
	Headless    bool          `yaml:"headless"`
	Bin         string        `yaml:"bin"`
	UserDataDir string        `yaml:"user_data_dir"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// DownloadConfig configures document and page downloads
type DownloadConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Delay          time.Duration `yaml:"delay"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig enables the Postgres run catalog
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// TelegramConfig enables run notifications
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// SheetsConfig enables the Google Sheets export
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// ScheduleConfig repeats runs. A zero interval runs once.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Site:           "echa",
		PageLimit:      0,
		OutputDir:      "data/raw",
		TimeoutSeconds: 20,
		Browser: BrowserConfig{
			Headless:    true,
			SettleDelay: time.Second,
		},
		Download: DownloadConfig{
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ApplyEnv fills secrets from the environment
func (c *Config) ApplyEnv() {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
		c.Database.Enabled = true
	}
	if token := os.Getenv("REGDOC_TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site) == "" {
		return ErrMissingSite
	}

	if len(c.Keywords) == 0 {
		return ErrNoKeywords
	}
	for i, keyword := range c.Keywords {
		if strings.TrimSpace(keyword) == "" {
			return fmt.Errorf("%w: keywords[%d]", ErrEmptyKeyword, i)
		}
	}

	if c.PageLimit < 0 {
		return ErrInvalidPageLimit
	}
	if c.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if c.TimeoutSeconds < 1 || c.Download.TimeoutSeconds < 1 {
		return ErrInvalidTimeout
	}

	if _, _, err := c.DateRange(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.Schedule.Interval < 0 {
		return ErrInvalidInterval
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			return ErrMissingTelegramToken
		}
		if c.Telegram.ChatID == 0 {
			return ErrMissingTelegramChat
		}
	}
	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return ErrMissingSpreadsheetID
	}

	return nil
}

// DateRange parses the date filter. Empty bounds are zero times.
func (c *Config) DateRange() (from, to time.Time, err error) {
	if from, err = parseDay(c.DateFilter.From); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from: %q", ErrInvalidDate, c.DateFilter.From)
	}
	if to, err = parseDay(c.DateFilter.To); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to: %q", ErrInvalidDate, c.DateFilter.To)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, ErrDateRangeInverted
	}
	return from, to, nil
}

// Timeout is the element wait timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DownloadTimeout is the per-request download timeout
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
