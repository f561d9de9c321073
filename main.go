package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/orian/docpad/models"
	"github.com/orian/docpad/store"
	"github.com/spf13/cobra"
)

var Version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// load reads the configuration and installs the logger.
func (o *rootOptions) load() (*Config, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if _, err := setupLogging(os.Stderr, o.logLevel, cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "docpad",
		Short:         "docpad - record links, notes, code, terminal logs and images per version and export them",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(exportCmd(opts))
	rootCmd.AddCommand(mcpCmd(opts))
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, cfg *Config) error {
	s, err := newStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer s.Close()
	slog.Info("store initialized", "backend", cfg.Store.Backend,
		"persist_images", cfg.Store.PersistImages, "image_dir", cfg.Store.ImageDir)

	executor := NewExportExecutor(s, cfg.ExportConfigs(), cfg.Export.Settings)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: NewServer(s, executor).WithUploadLimit(cfg.Server.MaxUploadBytes).Router(cfg.Server.StaticDir),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var (
		input   string
		format  string
		version string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a recorded session file to PDF, Markdown or HTML",
		Long: `Load a YAML session file into a fresh store and export it.

Examples:
  docpad export --input session.yaml
  docpad export --input session.yaml --format markdown --version 1.0 --output notes.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cfg, input, format, version, output)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "session file to export")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "pdf, markdown or html")
	cmd.Flags().StringVar(&version, "version", "all", "version to export, or all")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default export.settings.file_name plus extension)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runExport(ctx context.Context, cfg *Config, input, formatName, version, output string) error {
	format, err := models.ParseExportFormat(formatName)
	if err != nil {
		return err
	}
	session, err := LoadSessionFile(input)
	if err != nil {
		return err
	}

	s, err := newStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer s.Close()

	if err := session.Apply(s); err != nil {
		slog.Warn("session loaded with errors", "error", err)
	}

	executor := NewExportExecutor(s, cfg.ExportConfigs(), cfg.Export.Settings)
	artifact, err := executor.Execute(ctx, format, models.ParseSelector(version))
	if err != nil {
		return err
	}

	if output == "" {
		output = artifact.FileName
	}
	if err := store.AtomicWriteFile(output, artifact.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	slog.Info("export written", "path", output, "bytes", len(artifact.Data))
	return nil
}

func mcpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the annotation tools over MCP (stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			s, err := newStore(cfg.Store)
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer s.Close()

			executor := NewExportExecutor(s, cfg.ExportConfigs(), cfg.Export.Settings)
			return server.ServeStdio(NewMCPTools(s, executor).NewMCPServer(Version))
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the docpad configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "docpad.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
