package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/iwvelando/progressive-tax/internal/config"
	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/iwvelando/progressive-tax/pkg/output"
	"github.com/iwvelando/progressive-tax/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath   string
	outputFormat string
	logLevel     string
	locale       string
}

// app is the state shared by every command once configuration and logging
// are set up.
type app struct {
	conf   *config.Configuration
	logger *zap.Logger
	engine *tax.Engine
	format string
	locale string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "progressive-tax",
		Short: "Progressive income tax calculator",
		Long: "Compute income tax bracket by bracket, compare up to three income scenarios " +
			"and compare the same income across supported tax years.",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&opts.locale, "locale", "", "number formatting locale for pretty output (e.g. en, fr)")

	cmd.AddCommand(
		newRunCmd(opts),
		newCalcCmd(opts),
		newCompareCmd(opts),
		newHistoryCmd(opts),
		newBracketsCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	zapLevel, err := validation.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateLogFormat(loggingConfig.Format); err != nil {
		return nil, err
	}

	var zapConfig zap.Config
	if loggingConfig.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// loadConfiguration reads the configuration file. When required is false a
// missing file yields an empty configuration.
func loadConfiguration(path string, required bool) (*config.Configuration, error) {
	if !required {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return &config.Configuration{}, nil
		}
	}
	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", path, err)
	}
	return conf, nil
}

// setup loads configuration, builds the logger and the engine. A bracket
// table override that fails validation is fatal.
func setup(opts *rootOptions, configRequired bool) (*app, error) {
	conf, err := loadConfiguration(opts.configPath, configRequired)
	if err != nil {
		return nil, err
	}

	logger, err := initializeLogger(conf.Logging, opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	registry, err := conf.Registry()
	if err != nil {
		logger.Fatal("invalid bracket table",
			zap.String("op", "main.setup"),
			zap.Error(err),
		)
	}

	outputFormat := conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		_ = logger.Sync()
		return nil, err
	}

	locale := conf.Output.Locale
	if opts.locale != "" {
		locale = opts.locale
	}
	if locale == "" {
		locale = output.DefaultLocale
	}

	logger.Debug("configuration loaded",
		zap.String("op", "main.setup"),
		zap.String("config", opts.configPath),
		zap.Ints("years", registry.Years()),
		zap.String("outputFormat", outputFormat),
	)

	return &app{
		conf:   conf,
		logger: logger,
		engine: tax.NewEngine(registry, logger),
		format: outputFormat,
		locale: locale,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) printOutcomes(w io.Writer, outcomes []scenario.Outcome) error {
	switch a.format {
	case constants.OutputFormatPretty:
		output.NewPrinter(w, a.locale).Scenarios(outcomes)
	case constants.OutputFormatCSV:
		if err := output.WriteCSV(w, outcomes); err != nil {
			return a.fail("main.printOutcomes", "failed to write results", err)
		}
	}
	return nil
}

func (a *app) printHistory(w io.Writer, history *scenario.History) error {
	switch a.format {
	case constants.OutputFormatPretty:
		output.NewPrinter(w, a.locale).History(history)
	case constants.OutputFormatCSV:
		if err := output.WriteHistoryCSV(w, history); err != nil {
			return a.fail("main.printHistory", "failed to write history", err)
		}
	}
	return nil
}

// writeReport writes a PDF report of outcomes to path.
func (a *app) writeReport(path string, outcomes []scenario.Outcome) error {
	const op = "main.writeReport"

	file, err := os.Create(path)
	if err != nil {
		return a.fail(op, "failed to create report", err)
	}
	if err := output.WritePDF(file, outcomes, time.Now()); err != nil {
		_ = file.Close()
		return a.fail(op, "failed to write report", err)
	}
	if err := file.Close(); err != nil {
		return a.fail(op, "failed to write report", err)
	}

	a.logger.Info("report written",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("pages", len(outcomes)),
	)
	return nil
}

// fail logs err under op and returns it so cobra exits non-zero.
func (a *app) fail(op, msg string, err error) error {
	a.logger.Error(msg,
		zap.String("op", op),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w", msg, err)
}

// items turns a single CLI amount into a configuration item list.
func items(amount string) []config.Item {
	if amount == "" {
		return nil
	}
	return []config.Item{{Amount: amount}}
}
