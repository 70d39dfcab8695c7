package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the server reads
const EnvPrefix = "WORDBATTLE"

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config holds the server's runtime configuration
type Config struct {
	Bind          string
	Port          int
	PublicURL     string
	AdminPassword string

	Storage  string
	RedisURL string

	WordsFile      string
	GracePeriod    time.Duration
	QuestionCount  int
	ImageSearchURL string
	ImageTimeout   time.Duration

	LogFormat string
	LogLevel  string
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.Storage {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid storage %q: must be memory or redis", c.Storage)
	}
	if c.Storage == "redis" && c.RedisURL == "" {
		return errors.New("--redis-url is required with --storage=redis")
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive: %s", c.GracePeriod)
	}
	if c.QuestionCount <= 0 {
		return fmt.Errorf("question count must be positive: %d", c.QuestionCount)
	}
	if c.ImageTimeout <= 0 {
		return fmt.Errorf("image timeout must be positive: %s", c.ImageTimeout)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// NewCommand builds the server root command. Flags fall back to
// WORDBATTLE_* environment variables when not given on the command line.
func NewCommand(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "wordbattle",
		Short: "Multiplayer picture-word quiz server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDBATTLE_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 3001, "port to listen on (env: WORDBATTLE_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", "http://localhost:3001", "base URL used in room invite links (env: WORDBATTLE_PUBLIC_URL)")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "admin password for word library changes, empty disables (env: WORDBATTLE_ADMIN_PASSWORD)")
	fs.StringVar(&cfg.Storage, "storage", "memory", "word library backend: memory or redis (env: WORDBATTLE_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "redis://localhost:6379", "redis connection URL (env: WORDBATTLE_REDIS_URL)")
	fs.StringVar(&cfg.WordsFile, "words-file", "data/words.txt", "seed file for an empty library, .txt or .yaml (env: WORDBATTLE_WORDS_FILE)")
	fs.DurationVar(&cfg.GracePeriod, "grace-period", 30*time.Second, "time a disconnected player keeps their seat (env: WORDBATTLE_GRACE_PERIOD)")
	fs.IntVar(&cfg.QuestionCount, "question-count", 10, "questions per round (env: WORDBATTLE_QUESTION_COUNT)")
	fs.StringVar(&cfg.ImageSearchURL, "image-search-url", "", "image search page, %s is the word, empty disables (env: WORDBATTLE_IMAGE_SEARCH_URL)")
	fs.DurationVar(&cfg.ImageTimeout, "image-timeout", 10*time.Second, "per-word image fetch timeout (env: WORDBATTLE_IMAGE_TIMEOUT)")
	fs.StringVar(&cfg.LogFormat, "log-format", LogFormatJSON, "log output: json or text (env: WORDBATTLE_LOG_FORMAT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn or error (env: WORDBATTLE_LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// NewLogger builds the process logger for the configured format and level
func NewLogger(w io.Writer, cfg *Config) *slog.Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	if cfg.LogFormat == LogFormatText {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
