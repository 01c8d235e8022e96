// Package mcp provides an MCP (Model Context Protocol) server for venturesim.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inventure/venturesim/internal/config"
	"github.com/inventure/venturesim/internal/constants"
	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/preset"
	"github.com/inventure/venturesim/internal/ratelimit"
	"github.com/inventure/venturesim/internal/store"
)

// Server wraps the MCP SDK server and provides the portfolio tools.
type Server struct {
	server       *sdk.Server
	store        store.PresetStore
	catalog      *preset.Catalog
	settings     *config.VenturesimConfig
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger

	// newSource returns the stream for a seeded call.
	newSource func(seed uint64) portfolio.Source
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "venturesim")
	Version string // Server version

	// Dir holds presets.db and audit.jsonl. Typically ~/.venturesim.
	Dir string

	// Settings supplies trial defaults, limits and audit switches.
	// Nil means config.Default().
	Settings *config.VenturesimConfig

	// Store overrides the SQLite preset store opened under Dir.
	Store store.PresetStore

	// Logger receives operational logs. It must not write to stdout,
	// which carries the protocol. Nil discards logs.
	Logger *slog.Logger
}

// NewServer creates a new MCP server with the portfolio tools registered.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	presetStore := cfg.Store
	if presetStore == nil {
		sqliteStore, err := store.NewSQLitePresetStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open preset store: %w", err)
		}
		presetStore = sqliteStore
	}

	var auditLogger *AuditLogger
	if settings.MCP.Audit {
		auditLogger = NewAuditLogger(filepath.Join(cfg.Dir, constants.AuditFile))
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        presetStore,
		catalog:      preset.NewCatalog(presetStore),
		settings:     settings,
		toolLimiters: ratelimit.NewToolLimiters(settings.MCP),
		auditLogger:  auditLogger,
		logger:       logger,
		newSource:    portfolio.NewSource,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := s.watchSignals(cancel)
	defer stop()

	s.logger.Info("mcp server listening on stdio", "tools", len(s.toolLimiters))
	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

// watchSignals calls cancel on SIGINT or SIGTERM until the returned stop
// function unregisters the handler.
func (s *Server) watchSignals(cancel context.CancelFunc) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
			s.logger.Info("shutting down mcp server")
			cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// Close closes the preset store and the audit log.
func (s *Server) Close() error {
	auditErr := s.auditLogger.Close()
	if err := s.store.Close(); err != nil {
		return err
	}
	return auditErr
}
