package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/artpar/fndeploy/internal/shell/build"
)

// =============================================================================
// Settings Types
// =============================================================================

// Settings holds the tool's own configuration. The function manifest passed
// on the command line is separate.
type Settings struct {
	AWS      AWSSettings      `mapstructure:"aws"`
	Build    BuildSettings    `mapstructure:"build"`
	Artifact ArtifactSettings `mapstructure:"artifact"`
	GC       GCSettings       `mapstructure:"gc"`
	Repo     RepoSettings     `mapstructure:"repo"`
	Log      LogSettings      `mapstructure:"log"`
}

// AWSSettings selects the account and region functions are deployed to.
type AWSSettings struct {
	Region          string `mapstructure:"region"`
	Profile         string `mapstructure:"profile"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// BuildSettings configures the --build step.
type BuildSettings struct {
	Command string `mapstructure:"command"`
	Dir     string `mapstructure:"dir"`
}

// ArtifactSettings configures where --keep-artifact writes archives.
type ArtifactSettings struct {
	Dir string `mapstructure:"dir"`
}

// GCSettings configures old version cleanup.
type GCSettings struct {
	// MinAge is how old a version must be before it is deleted. Zero deletes
	// every version except the one just published.
	MinAge time.Duration `mapstructure:"min_age"`
}

// RepoSettings locates the git repository holding the deploy markers.
type RepoSettings struct {
	Path string `mapstructure:"path"`
}

// LogSettings holds logging configuration.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Settings Loading
// =============================================================================

// LoadSettings loads settings from an optional file and the environment.
func LoadSettings(settingsPath string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.access_key_id", "")
	v.SetDefault("aws.secret_access_key", "")
	v.SetDefault("build.command", build.DefaultCommand)
	v.SetDefault("build.dir", "")
	v.SetDefault("artifact.dir", ".")
	v.SetDefault("gc.min_age", "0s")
	v.SetDefault("repo.path", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")

	if settingsPath != "" {
		v.SetConfigFile(settingsPath)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse settings file: %w", err)
			}
			// Missing file falls back to defaults
		}
	}

	v.SetEnvPrefix("FNDEPLOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Settings
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if cfg.GC.MinAge < 0 {
		return nil, fmt.Errorf("gc.min_age must not be negative, got %s", cfg.GC.MinAge)
	}
	return &cfg, nil
}

// loadDotEnv exports the variables in path into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger writing to w with the configured level and
// format: "json", "text" or "pretty".
func SetupLogger(cfg LogSettings, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    !isTerminal(w),
		})
	}

	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
