package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-overlay/internal/config"
	"github.com/a3tai/pdf-overlay/internal/logging"
	"github.com/a3tai/pdf-overlay/internal/mcp"
	"github.com/a3tai/pdf-overlay/internal/pipeline"
	"github.com/a3tai/pdf-overlay/internal/watch"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	program := filepath.Base(os.Args[0])

	// Check for version flag before parsing other flags
	if hasVersionFlag(args) {
		printVersion(stdout)
		return exitOK
	}

	cfg, err := config.Load(args)
	if errors.Is(err, config.ErrHelp) {
		fmt.Fprint(stdout, config.Usage(program))
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n\n%s", err, config.Usage(program))
		return exitUsage
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	log, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		StderrOnly: cfg.IsStdioMode(),
		Name:       "pdf-overlay",
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	log.Debug("Starting", zap.Stringer("config", cfg))

	runner := pipeline.NewRunner(log)

	switch cfg.Mode {
	case config.ModeOnce:
		return runOnce(ctx, runner, cfg, log)
	case config.ModeStdio:
		return runStdioMode(ctx, runner, cfg, log)
	default:
		return runWatchMode(ctx, runner, cfg, log)
	}
}

// runOnce performs a single pass and reports its outcome as the exit code
func runOnce(ctx context.Context, runner *pipeline.Runner, cfg config.Settings, log *zap.Logger) int {
	if _, err := runner.Run(ctx, cfg); err != nil {
		log.Error("Overlay failed", zap.Error(err))
		return exitFailed
	}
	return exitOK
}

// runWatchMode reruns the pipeline on every change until a signal arrives.
// Failed runs are logged and do not stop the loop.
func runWatchMode(ctx context.Context, runner *pipeline.Runner, cfg config.Settings, log *zap.Logger) int {
	log.Info("Watching for changes",
		zap.Strings("files", cfg.WatchedFiles()),
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output))

	err := watch.Serve(ctx, cfg.WatchedFiles(), func(ctx context.Context) error {
		_, err := runner.Run(ctx, cfg)
		return err
	}, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Watcher stopped", zap.Error(err))
		return exitFailed
	}

	log.Info("Stopped")
	return exitOK
}

// runStdioMode serves MCP until the client closes stdin
func runStdioMode(ctx context.Context, runner *pipeline.Runner, cfg config.Settings, log *zap.Logger) int {
	server, err := mcp.NewServer(cfg, runner, log)
	if err != nil {
		log.Error("Failed to create MCP server", zap.Error(err))
		return exitFailed
	}

	if err := server.Run(ctx); err != nil {
		log.Error("Server error", zap.Error(err))
		return exitFailed
	}
	return exitOK
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "PDF Overlay\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
