package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"relaypush/internal/cli"
	"relaypush/pkg/errx"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command with args and returns the process exit status.
func run(args []string) int {
	level := zap.NewAtomicLevelAt(zap.ErrorLevel)
	logger, err := newConsoleLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	rootCmd := newRootCmd(logger, level)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errx.UserString(err))
		return cli.ExitCode(err)
	}
	return 0
}

func newRootCmd(logger *zap.Logger, level zap.AtomicLevel) *cobra.Command {
	var debug, quiet bool

	rootCmd := cli.NewPushCmd(logger)
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging and structured error output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors and command output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Set debug mode globally so logStructuredError can check it
		cli.SetDebugMode(debug)
		if debug {
			level.SetLevel(zap.DebugLevel)
		}
		cli.DefaultPrinter.Quiet = quiet
	}
	return rootCmd
}

// newConsoleLogger returns a human-friendly console logger with timestamps.
// The level starts at Error so that structured error logs show with --debug;
// --debug lowers it to Debug.
func newConsoleLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = level
	cfg.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "",
		CallerKey:      "",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	// stdout belongs to docker and ssh output.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}
