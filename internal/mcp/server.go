package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultCaller is used as the author when no identity is supplied.
const DefaultCaller = "local"

// Config contains server configuration.
type Config struct {
	Updates       CrisisService
	Resolver      CallerResolver
	AuthEnabled   bool
	DefaultCaller string
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	defaultCaller := cfg.DefaultCaller
	if defaultCaller == "" {
		defaultCaller = DefaultCaller
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "crisisdesk",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	// Stdio is a local, single-user transport and never authenticates.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled || cfg.Resolver == nil {
		server.AddReceivingMiddleware(defaultCallerMiddleware(defaultCaller))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, NewHandler(cfg.Updates, logger))

	return server
}
