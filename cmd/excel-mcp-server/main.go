package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sheetkit/excel-mcp-server/config"
	"github.com/sheetkit/excel-mcp-server/internal/registry"
	"github.com/sheetkit/excel-mcp-server/internal/runtime"
	"github.com/sheetkit/excel-mcp-server/internal/security"
	"github.com/sheetkit/excel-mcp-server/internal/telemetry"
	"github.com/sheetkit/excel-mcp-server/internal/workbooks"
	"github.com/sheetkit/excel-mcp-server/pkg/version"
)

func main() {
	root := &cobra.Command{
		Use:           "excel-mcp-server",
		Short:         "MCP server for manipulating Excel workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "stdio",
			Short: "Serve MCP over standard input/output",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(false)
			},
		},
		&cobra.Command{
			Use:   "sse",
			Short: "Serve MCP over SSE on the configured host and port",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(true)
			},
		},
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func run(sse bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	paths, err := security.NewManager(cfg.FilesDir)
	if err != nil {
		logger.Error().Err(err).Str("files_dir", cfg.FilesDir).Msg("files directory unusable")
		return err
	}

	limits := runtime.NewLimits(0, 0)
	ctrl := runtime.NewController(limits)
	store := workbooks.NewStore(paths, ctrl)

	audit, err := telemetry.NewAuditor(cfg.LogDir)
	if err != nil {
		logger.Warn().Err(err).Msg("audit trail disabled")
		audit, _ = telemetry.NewAuditor("")
	}
	defer func() { _ = audit.Close() }()

	reg := registry.New()
	mw := runtime.NewMiddleware(ctrl, logger)
	filter := registry.NewReadOnlyFilter(cfg)

	srv := server.NewMCPServer(
		"excel-mcp-server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.BuildHooks(logger)),
		server.WithToolHandlerMiddleware(mw.ToolMiddleware),
		server.WithToolFilter(filter.FilterTools),
	)
	registry.RegisterAll(srv, reg, registry.Deps{
		Store:    store,
		Limits:   limits,
		Settings: cfg,
		Audit:    audit,
	})

	tools, err := reg.Tools(context.Background())
	if err != nil {
		return err
	}
	logger.Info().
		Str("version", version.Version()).
		Str("files_dir", paths.BaseDir()).
		Str("log_level", cfg.LogLevel).
		Int("tools", len(tools)).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_workbooks", limits.MaxOpenWorkbooks).
		Int("model_context_size", reg.ModelContextSize("gpt-4o")).
		Bool("read_only", cfg.ReadOnly).
		Msg("server starting")

	if sse {
		logger.Info().Str("addr", cfg.Addr()).Msg("serving SSE")
		return server.NewSSEServer(srv).Start(cfg.Addr())
	}
	return server.ServeStdio(srv)
}

// newLogger writes the service log to a daily file under the log
// directory, falling back to stderr when the file cannot be opened.
// Stdout stays untouched: the stdio transport owns it.
func newLogger(cfg *config.Settings) (zerolog.Logger, func()) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := cfg.ZerologLevel()

	if err := os.MkdirAll(cfg.LogDir, 0o755); err == nil {
		name := fmt.Sprintf("excel-mcp-%s.log", time.Now().Format("20060102"))
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			logger := zerolog.New(f).Level(level).With().Timestamp().Str("service", "excel-mcp-server").Logger()
			return logger, func() { _ = f.Close() }
		}
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "excel-mcp-server").Logger()
	return logger, func() {}
}
