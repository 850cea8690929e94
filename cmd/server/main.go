package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/crisisdesk/internal/clock"
	"github.com/rpggio/crisisdesk/internal/config"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/mcp"
	"github.com/rpggio/crisisdesk/internal/metrics"
	"github.com/rpggio/crisisdesk/internal/transport"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crisisdesk",
		Short:         "Durable store of crisis updates served over MCP and JSON-RPC",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running with no subcommand serves, so MCP clients can launch the
		// binary directly.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the MCP and JSON-RPC interfaces",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every stored crisis update in id order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runList(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Print one crisis update",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid id %q: %w", args[0], err)
				}
				return runGet(cmd.Context(), cmd.OutOrStdout(), id)
			},
		},
		newKeysCmd(),
	)
	return root
}

func newKeysCmd() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys in the sqlite store",
	}
	var description string
	add := &cobra.Command{
		Use:   "add <token> <caller>",
		Short: "Register a bearer token for a caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			if st.apiKeys == nil {
				return fmt.Errorf("api keys need the %s backend", config.BackendSQLite)
			}
			if err := st.apiKeys.Add(cmd.Context(), args[0], args[1], description); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added key for %s\n", args[1])
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "free-form note stored with the key")
	keys.AddCommand(add)
	return keys
}

// setup loads config and builds the logger shared by every command.
func setup() (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("config error: %w", err)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Server.Transport == config.TransportStdio {
		logWriter = os.Stderr
	}
	closeLog := func() {}
	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			closeLog = func() { _ = fileWriter.Close() }
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return cfg, logger, closeLog, nil
}

func newService(st *store, logger *slog.Logger) *crisis.Service {
	return crisis.NewService(st.updates, st.ids, clock.NewSystem(), logger)
}

func runServe(ctx context.Context) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		return err
	}
	defer st.Close()

	svc := newService(st, logger)
	resolver := callerResolver(cfg, st)

	mcpServer := mcp.NewServer(mcp.Config{
		Updates:       svc,
		Resolver:      resolver,
		AuthEnabled:   cfg.Auth.Enabled,
		DefaultCaller: cfg.Auth.DefaultCaller,
		TransportMode: cfg.Server.Transport,
		Version:       version,
		Logger:        logger,
	})

	if cfg.Server.Transport == config.TransportStdio {
		return runStdioMode(ctx, logger, mcpServer)
	}

	authMiddleware := transport.StaticCallerMiddleware(cfg.Auth.DefaultCaller)
	if cfg.Auth.Enabled {
		authMiddleware = transport.AuthMiddleware(resolver)
	}
	router := transport.NewServer(
		mcp.NewHandler(svc, logger),
		authMiddleware,
		transport.WithMCP(mcp.NewHTTPHandler(mcpServer, cfg.Server.SessionTimeout)),
		transport.WithMetrics(metrics.Handler()),
		transport.WithLogger(logger),
	)
	return runHTTPMode(ctx, logger, router, cfg.Server.Host, cfg.Server.Port)
}

// callerResolver checks sqlite api keys first, then the static keys from config.
func callerResolver(cfg config.Config, st *store) transport.ChainResolver {
	var chain transport.ChainResolver
	if st.apiKeys != nil {
		chain = append(chain, st.apiKeys)
	}
	if keys := cfg.StaticKeys(); len(keys) > 0 {
		chain = append(chain, transport.StaticResolver(keys))
	}
	return chain
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		return waitForShutdown(gCtx, logger, httpServer)
	})
	return g.Wait()
}

// waitForShutdown drains the server once ctx is done.
func waitForShutdown(ctx context.Context, logger *slog.Logger, server *http.Server) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

func runList(ctx context.Context, out io.Writer) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	updates, err := newService(st, logger).ListAll(ctx)
	var miss *crisis.QueryMiss
	if errors.As(err, &miss) {
		fmt.Fprintln(out, "no crisis updates")
		return nil
	}
	if err != nil {
		return err
	}
	return printJSON(out, updates)
}

func runGet(ctx context.Context, out io.Writer, id uint64) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := newService(st, logger).Get(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(out, rec)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
