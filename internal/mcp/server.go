package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/querylens/querylens/internal/embedder"
	"github.com/querylens/querylens/internal/retriever"
	"github.com/querylens/querylens/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "querylens"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the run store
	DefaultDBPath = "~/.querylens"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp       *server.MCPServer
	store     storage.Store
	embedder  embedder.Embedder
	retriever *retriever.Retriever
}

// NewServer creates an MCP server backed by the run store at dbPath.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".querylens")
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(filepath.Join(dbPath, "querylens.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		store:     store,
		embedder:  emb,
		retriever: retriever.New(emb),
	}
	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.embedder.Close()
		_ = s.store.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(trainProjectionTool(), s.handleTrainProjection)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
