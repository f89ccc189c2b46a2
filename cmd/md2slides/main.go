package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], DefaultEnv()))
}

// run executes the CLI and returns the process exit code.
func run(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	if flags.common.version {
		fmt.Fprintf(env.Stdout, "md2slides %s\n", Version)
		return ExitSuccess
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	slog.SetDefault(logger)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	ctx, stop := notifyContext(context.Background())
	defer stop()

	start := env.Now()
	err = runConvert(ctx, positional, flags, env, logger)
	logger.Debug("finished", "elapsed", elapsed(start, env.Now))
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(env.Stderr, err)
			printUsage(env.Stderr)
		} else {
			fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		}
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// newLogger returns a text logger on w: Debug with verbose, Error with quiet,
// Warn otherwise.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
