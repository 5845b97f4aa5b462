package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/internal/watch"
	"github.com/docindex/mcp-server/tools"
)

const (
	version     = "0.3.0"
	serverName  = "docindex-mcp-server"
	description = "MCP server exposing a documentation search index"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Data directory: %s", cfg.DataDir)

	store := tools.NewStore(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing search index: %v", err)
		}
	}()

	server := createMCPServer()

	if err := registerTools(server, store); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}
	registerResources(server, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Watch {
		startWatcher(ctx, cfg, store)
	}

	log.Printf("✓ Server ready and waiting for connections")

	// Run server with stdio transport
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Printf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		&mcp.ServerOptions{Instructions: description},
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server, store *tools.Store) error {
	if err := tools.RegisterDocIndexTools(server, store); err != nil {
		return fmt.Errorf("failed to register search index tools: %w", err)
	}

	log.Printf("✓ All tools registered: 5 tools (records + outline + stats + validation + reload)")
	return nil
}

// registerResources registers all MCP resources
func registerResources(server *mcp.Server, store *tools.Store) {
	tools.RegisterDocIndexResources(server, store)
	log.Printf("✓ Resources registered: 1 (%s)", tools.ArtifactURI)
}

// startWatcher reloads the table whenever the artifact is rewritten.
// The server keeps running without it if the watch cannot be set up.
func startWatcher(ctx context.Context, cfg *config.Config, store *tools.Store) {
	w, err := watch.New(cfg.IndexFile, cfg.WatchDebounce, func() error {
		_, _, err := store.Reload(false)
		return err
	})
	if err != nil {
		log.Printf("Warning: Search index watcher unavailable: %v", err)
		return
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			log.Printf("Warning: Search index watcher stopped: %v", err)
		}
	}()
}
