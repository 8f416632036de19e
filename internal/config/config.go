package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string `mapstructure:"env"`       // current application environment (local, dev, production)
	TelegramAPIToken string `mapstructure:"-"`         // Telegram API token loaded from environment
	AudioDir         string `mapstructure:"audio_dir"` // directory with sound cue files
	DB               DB     `mapstructure:"database"`  // database configuration section
	Quiz             Quiz   `mapstructure:"quiz"`      // quiz timing section
	Fairy            Fairy  `mapstructure:"fairy"`     // math fairy section
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Quiz contains feedback timings of quiz sessions.
type Quiz struct {
	CorrectDelay  time.Duration `mapstructure:"correct_delay"`  // how long Correct feedback is shown
	WrongDelay    time.Duration `mapstructure:"wrong_delay"`    // how long Wrong feedback is shown
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`   // live sessions idle longer are abandoned
	SweepSchedule string        `mapstructure:"sweep_schedule"` // cron spec of the idle session sweep
}

// Fairy configures the math fairy assistant.
type Fairy struct {
	APIKey     string `mapstructure:"-"`           // default OpenAI key loaded from environment
	Model      string `mapstructure:"model"`       // chat model name
	MaxHistory int    `mapstructure:"max_history"` // transcript messages kept per user
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	// The fairy key is optional: users may store their own.
	cfg.Fairy.APIKey = v.GetString("openai_api_key")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("audio_dir", "assets/audio")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("quiz.correct_delay", "1s")
	v.SetDefault("quiz.wrong_delay", "1500ms")
	v.SetDefault("quiz.idle_timeout", "30m")
	v.SetDefault("quiz.sweep_schedule", "@every 5m")
	v.SetDefault("fairy.model", "gpt-4o-mini")
	v.SetDefault("fairy.max_history", 10)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.Quiz.CorrectDelay <= 0 || cfg.Quiz.WrongDelay <= 0 {
		return nil, fmt.Errorf("quiz delays must be positive (correct=%s, wrong=%s)",
			cfg.Quiz.CorrectDelay, cfg.Quiz.WrongDelay)
	}

	return &cfg, nil
}
