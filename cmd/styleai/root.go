package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feitianbubu/styleai"
	"github.com/feitianbubu/styleai/telemetry"
)

var (
	// Global flags
	configPath  string
	logLevel    string
	logEncoding string
	provider    string

	rootCmd = &cobra.Command{
		Use:   "styleai",
		Short: "Inspect and exercise the storefront's AI providers",
		Long: `styleai resolves the configured try-on, decor and sizing providers,
checks their health and configuration, and runs single requests against them.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config",
		getEnvOr(styleai.ConfigPathEnv, ""),
		"YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level",
		getEnvOr("LOG_LEVEL", "warn"),
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logEncoding, "log-encoding",
		getEnvOr("LOG_ENCODING", "console"),
		"Log encoding (console, json)")

	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newTryOnCmd())
	rootCmd.AddCommand(newDecorCmd())
	rootCmd.AddCommand(newSizeCmd())
}

// getEnvOr returns environment variable value or default if not set
func getEnvOr(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func initLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level: %s", logLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = logEncoding
	cfg.DisableCaller = true
	if strings.EqualFold(logEncoding, "console") {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	}
	return cfg.Build()
}

func syncLogger(logger *zap.Logger) {
	// EINVAL is returned when syncing stderr on some platforms
	if err := logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		fmt.Fprintf(os.Stderr, "syncing logger: %v\n", err)
	}
}

// withManager loads the configuration and hands a manager to fn
func withManager(fn func(m *styleai.Manager) error) error {
	logger, err := initLogger()
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	cfg, err := styleai.LoadConfig(configPath)
	if err != nil {
		return err
	}

	m := styleai.NewManager(cfg,
		styleai.WithLogger(logger),
		styleai.WithMetrics(telemetry.NewMetrics(nil)),
	)
	return fn(m)
}

// addProviderFlag registers --provider on a command that serves category
func addProviderFlag(cmd *cobra.Command, category styleai.Category) {
	ids := make([]string, 0, 3)
	for _, id := range styleai.ProvidersFor(category) {
		ids = append(ids, string(id))
	}
	cmd.Flags().StringVar(&provider, "provider", "",
		fmt.Sprintf("Provider to use (%s)", strings.Join(ids, ", ")))
}

// selectProvider switches category to --provider when it was given
func selectProvider(m *styleai.Manager, category styleai.Category) error {
	if provider == "" {
		return nil
	}
	return m.SwitchProvider(category, styleai.ProviderID(provider))
}
