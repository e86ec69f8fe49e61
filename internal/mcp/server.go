// Package mcp exposes the classifier as an MCP server over stdio.
// It requires no external database: results go to a local SQLite file.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	litecfg "github.com/interva-cod-server/internal/config"
	"github.com/interva-cod-server/internal/datacheck"
	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
	"github.com/interva-cod-server/internal/service"
	"github.com/interva-cod-server/internal/store"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "interva-cod-server"
	ServerVersion = "v1.0.0"
)

// Server is a lightweight MCP server around one Classifier.
type Server struct {
	config     *litecfg.LiteConfig
	mcpServer  *mcp.Server
	classifier *service.Classifier
	results    store.Store
	logger     *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server) error

// WithStore sets a custom result store.
func WithStore(results store.Store) ServerOption {
	return func(s *Server) error {
		s.results = results
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithClassifier skips loading the probbase from disk.
func WithClassifier(c *service.Classifier) ServerOption {
	return func(s *Server) error {
		s.classifier = c
		return nil
	}
}

// NewServer builds the classifier, the result store and the tool set.
func NewServer(cfg *litecfg.LiteConfig, opts ...ServerOption) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: logrus.New(),
	}

	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		server.logger.SetLevel(level)
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if server.classifier == nil {
		classifier, err := server.buildClassifier()
		if err != nil {
			return nil, err
		}
		server.classifier = classifier
	}

	if server.results == nil {
		results, err := store.NewSQLiteStore(cfg.StoreDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create result store: %w", err)
		}
		server.results = results
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)
	server.registerTools()

	server.logger.WithFields(logrus.Fields{
		"probbase_version": server.classifier.ProbbaseVersion(),
		"data_dir":         cfg.DataDir,
	}).Info("MCP server initialized")
	return server, nil
}

func (s *Server) buildClassifier() (*service.Classifier, error) {
	table, err := probbase.LoadFile(s.config.ResolvedProbbasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load probbase: %w", err)
	}

	var checker domain.ConsistencyChecker = datacheck.NewPassthrough()
	if s.config.CheckerURL != "" {
		cached, err := datacheck.NewCachedChecker(
			datacheck.NewRemoteChecker(datacheck.RemoteConfig{BaseURL: s.config.CheckerURL}, s.logger),
			s.config.CacheMaxItems, nil, s.config.CacheTTL, s.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create check cache: %w", err)
		}
		checker = cached
	}

	return service.NewClassifier(s.logger, table, checker, service.Settings{
		Malaria: s.config.Malaria,
		HIV:     s.config.HIV,
	})
}

// registerTools registers every tool with the MCP SDK.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_record",
		Description: "Assign up to three causes of death to one verbal autopsy record",
	}, s.handleClassifyRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_batch",
		Description: "Classify a batch of records and store the run",
	}, s.handleClassifyBatch)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "probbase_info",
		Description: "Describe the loaded probbase and the current prevalence settings",
	}, s.handleProbbaseInfo)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_prevalence",
		Description: "Change the malaria and HIV prevalence settings used for new records",
	}, s.handleSetPrevalence)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_runs",
		Description: "List stored classification runs, newest first",
	}, s.handleListRuns)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_csmf",
		Description: "Compute cause-specific mortality fractions for a stored run",
	}, s.handleRunCSMF)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "export_run",
		Description: "Export a stored run to a JSON file in the export directory",
	}, s.handleExportRun)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "import_run",
		Description: "Import a run from a JSON export file",
	}, s.handleImportRun)

	s.logger.WithField("tool_count", 8).Debug("Registered MCP tools")
}

// Start serves MCP over stdio until ctx is cancelled or the client leaves.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.results != nil {
		if err := s.results.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close result store")
			return err
		}
	}
	return nil
}

// Classifier returns the classifier the tools use.
func (s *Server) Classifier() *service.Classifier {
	return s.classifier
}

// Store returns the result store for external access.
func (s *Server) Store() store.Store {
	return s.results
}
