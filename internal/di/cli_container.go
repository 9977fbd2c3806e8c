package di

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/anomaly-classifier/internal/adapters/cli"
	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/logging"
	"github.com/mikey/anomaly-classifier/internal/whitelist"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	InputFile string
	EML       bool

	// Classification flags
	Workers int
	Exempt  string

	// Output flags
	Format     string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input file (use stdin if not specified)")
	flag.BoolVar(&flags.EML, "eml", false, "Treat input as a single RFC 5322 message instead of a JSON batch")

	// Classification flags
	flag.IntVar(&flags.Workers, "workers", 0, "Parallel classification workers (0 keeps the configured value)")
	flag.StringVar(&flags.Exempt, "exempt", "", "Comma-separated list of exempt sender domains")

	// Output flags
	flag.StringVar(&flags.Format, "format", cli.FormatText, "Output format (text, json, yaml)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register exempt sender domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetSMTP().ExemptDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register output
	if err := container.Provide(func(flags *CLIFlags) (*cli.Printer, error) {
		return cli.NewPrinter(os.Stdout, flags.Format, flags.Verbose)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(cli.NewDetector); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	if flags.Workers > 0 {
		v.Set("classifier.workers", flags.Workers)
	}

	if flags.Exempt != "" {
		domains := strings.Split(flags.Exempt, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("smtp.exempt_domains", domains)
	}

	return config.NewFromViper(v)
}
