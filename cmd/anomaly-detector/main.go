package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mikey/anomaly-classifier/internal/adapters/cli"
	"github.com/mikey/anomaly-classifier/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, detector *cli.Detector) error {
	defer logger.Sync()

	// Read input from file or stdin
	var input io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		logger.Debug("Reading input from file", zap.String("file", flags.InputFile))
	} else {
		input = os.Stdin
		logger.Debug("Reading input from stdin")
	}

	if flags.EML {
		return detector.ClassifyMessage(input)
	}
	return detector.ClassifyBatch(context.Background(), input)
}
