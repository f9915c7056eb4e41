package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configBaseName = "nodedocs"
	envPrefix      = "NODEDOCS"

	defaultFormat      = "json"
	defaultMaxFileSize = 1_000_000 // 1 MB
	defaultDebounce    = 300 * time.Millisecond

	pathsKey       = "paths"
	ignoreKey      = "ignore"
	formatKey      = "format"
	destKey        = "dest"
	dbKey          = "db"
	baseURLKey     = "base_url"
	workersKey     = "workers"
	scriptKey      = "script"
	projectKey     = "project"
	skipTestsKey   = "skip_tests"
	maxFileSizeKey = "max_file_size"
	debounceKey    = "watch.debounce"

	logFileKey       = "log.file"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"
)

// flagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var flagKeys = map[string]string{
	"ignore":        ignoreKey,
	"format":        formatKey,
	"dest":          destKey,
	"db":            dbKey,
	"base-url":      baseURLKey,
	"workers":       workersKey,
	"script":        scriptKey,
	"project":       projectKey,
	"skip-tests":    skipTestsKey,
	"max-file-size": maxFileSizeKey,
	"debounce":      debounceKey,
	"log-file":      logFileKey,
	"log-level":     logLevelKey,
	"verbose":       logVerboseKey,
}

// Config is the decoded nodedocs configuration: defaults, then
// nodedocs.yaml, then NODEDOCS_* environment variables, then flags.
type Config struct {
	Paths       []string    `mapstructure:"paths" validate:"dive,required"`
	Ignore      []string    `mapstructure:"ignore"`
	Format      string      `mapstructure:"format" validate:"required,oneof=json yaml toon markdown script"`
	Dest        string      `mapstructure:"dest"`
	DB          string      `mapstructure:"db"`
	BaseURL     string      `mapstructure:"base_url" validate:"omitempty,url"`
	Workers     int         `mapstructure:"workers" validate:"gte=0,lte=1024"`
	Script      string      `mapstructure:"script" validate:"required_if=Format script"`
	Project     string      `mapstructure:"project"`
	SkipTests   bool        `mapstructure:"skip_tests"`
	MaxFileSize int64       `mapstructure:"max_file_size" validate:"gte=0"`
	Watch       WatchConfig `mapstructure:"watch"`
	Log         LogConfig   `mapstructure:"log"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// LogConfig configures logging. Without a file, logs go to stderr.
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	Verbose    bool   `mapstructure:"verbose"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(pathsKey, []string{"."})
	v.SetDefault(ignoreKey, []string{})
	v.SetDefault(formatKey, defaultFormat)
	v.SetDefault(destKey, "")
	v.SetDefault(dbKey, "")
	v.SetDefault(baseURLKey, "")
	v.SetDefault(workersKey, 0)
	v.SetDefault(scriptKey, "")
	v.SetDefault(projectKey, "")
	v.SetDefault(skipTestsKey, false)
	v.SetDefault(maxFileSizeKey, defaultMaxFileSize)
	v.SetDefault(debounceKey, defaultDebounce)

	v.SetDefault(logFileKey, "")
	v.SetDefault(logLevelKey, "info")
	v.SetDefault(logVerboseKey, false)
	v.SetDefault(logMaxSizeKey, 10)
	v.SetDefault(logMaxBackupsKey, 3)
	v.SetDefault(logMaxAgeKey, 28)
	v.SetDefault(logCompressKey, true)
	return v
}

// loadConfig binds the flags of the command being run, reads the config
// file and decodes and validates the result. An explicit configPath must
// exist; the default nodedocs.yaml is optional.
func loadConfig(v *viper.Viper, cmd *cobra.Command, configPath string) (Config, error) {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return Config{}, fmt.Errorf("binding flags: %w", bindErr)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// newLogger builds the run's logger. It writes to a rotating file when
// cfg.File is set and to stderr otherwise. The returned closer releases the
// file.
func newLogger(cfg LogConfig, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := parseSlogLevel(cfg.Level, slog.LevelInfo)
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = stderr
		closer io.Closer = nopCloser{}
	)
	if strings.TrimSpace(cfg.File) != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		w, closer = lj, lj
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	})
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fileSize reports the size of path, or -1 when it cannot be read.
func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return fi.Size()
}
