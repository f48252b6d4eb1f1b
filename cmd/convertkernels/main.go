// Command convertkernels turns legacy light-scattering kernel text files into
// NetCDF lookup tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	timeout time.Duration

	convertOpts ConvertOptions
	reportOut   string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "convertkernels",
	Short: "Convert legacy scattering kernels to NetCDF",
	Long: `convertkernels reads per-ratio, per-element kernel text files described by
a run file, merges them into dense tensors, derives efficiencies, cross
sections and the asymmetry parameter, and writes kernel-{name}.nc.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [run-file...]",
	Short: "Convert the kernels described by one or more run files",
	Long: `Each run file (YAML or the legacy JSON) names the kernel directory, file
prefix, aspect ratio ids, block lengths and scattering elements.

Example:
  convertkernels convert --dest out --workers 4 runs/dust.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		_, err := NewApp(logger).ConvertFiles(ctx, args, convertOpts)
		return err
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [kernel-file]",
	Short: "Print the dimensions, variables and provenance of a kernel file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return NewApp(logger).Inspect(cmd.OutOrStdout(), args[0])
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [kernel-file]",
	Short: "Write a PDF quick-look of a kernel file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return NewApp(logger).Report(args[0], reportOut)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort after this long (0 disables)")

	convertCmd.Flags().StringVarP(&convertOpts.Dest, "dest", "d", ".", "Output directory")
	convertCmd.Flags().IntVarP(&convertOpts.Workers, "workers", "j", 0, "Ratios read concurrently (0 keeps the run file value)")
	convertCmd.Flags().BoolVar(&convertOpts.Compress, "compress", false, "Also write an xz compressed copy")
	convertCmd.Flags().BoolVar(&convertOpts.Report, "report", false, "Also write a PDF quick-look next to the kernel")

	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "PDF path (default: kernel file with .pdf)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(reportCmd)
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// commandContext is cancelled on SIGINT, SIGTERM or when --timeout elapses.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
