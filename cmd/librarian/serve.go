package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/apetrei/librarian/internal/api"
	"github.com/apetrei/librarian/internal/config"
	"github.com/apetrei/librarian/internal/conversation"
	"github.com/apetrei/librarian/internal/embedding"
	"github.com/apetrei/librarian/internal/librarian"
	"github.com/apetrei/librarian/internal/library"
	"github.com/apetrei/librarian/internal/llm"
	"github.com/apetrei/librarian/internal/retrieval"
	"github.com/apetrei/librarian/internal/storage"
	"github.com/apetrei/librarian/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the librarian server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "librarian version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	log, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := log.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	handler := api.NewHandler(api.Deps{
		Service:       svc,
		Conversations: conversation.NewStore(svc),
		Log:           log,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server over stdio in a goroutine, alongside HTTP.
	mcpSrv := api.NewMCPServer(api.MCPDeps{Service: svc, Log: log})
	stdioSrv := mcpserver.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "librarian listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildService assembles the corpus, retrievers and model client from config.
// Missing OpenAI credentials are not fatal: the service runs on the lexical
// index with deterministic replies.
func buildService(ctx context.Context, cfg config.Config) (*librarian.Service, error) {
	books, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}
	store := library.NewStore(books)
	slog.Info("corpus loaded", "books", store.Len())

	local := retrieval.NewLexical(store.Books())

	var remote retrieval.Retriever
	var chatter librarian.Chatter
	if cfg.OpenAI.APIKey != "" {
		embedder := embedding.NewClient(cfg.OpenAI.APIKey).WithModel(cfg.OpenAI.EmbedModel)

		var vs vectorstore.Store
		if cfg.Qdrant.URL != "" {
			vs = vectorstore.NewQdrant(vectorstore.QdrantConfig{
				URL:        cfg.Qdrant.URL,
				APIKey:     cfg.Qdrant.APIKey,
				Collection: cfg.Qdrant.Collection,
			})
			slog.Info("using qdrant vector store", "url", cfg.Qdrant.URL, "collection", cfg.Qdrant.Collection)
		} else {
			vs = vectorstore.NewMemory()
			slog.Info("using in-memory vector store")
		}

		r, err := retrieval.NewRemote(ctx, embedder, vs, store.Books())
		if err != nil {
			// Retrieval stays functional on the lexical index alone.
			slog.Warn("building remote retriever failed, continuing with lexical index", "error", err)
		} else {
			remote = r
		}

		chatter = llm.NewClient(cfg.OpenAI.APIKey)
	} else {
		slog.Warn("no OpenAI API key configured, replies will be deterministic")
	}

	return librarian.New(store, local, remote, chatter, cfg.OpenAI.Model), nil
}

func loadCorpus(cfg config.Config) ([]library.Book, error) {
	if cfg.Library.CorpusPath == "" {
		return library.Default(), nil
	}
	books, err := library.LoadFile(cfg.Library.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("loading corpus %s: %w", cfg.Library.CorpusPath, err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("corpus %s contains no books", cfg.Library.CorpusPath)
	}
	return books, nil
}
