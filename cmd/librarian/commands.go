package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apetrei/librarian/internal/config"
	"github.com/apetrei/librarian/internal/library"
	"github.com/apetrei/librarian/internal/retrieval"
	"github.com/apetrei/librarian/internal/storage"
)

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend <query>",
	Short: "Recommend book titles for a query",
	Long: `Recommend book titles for a query.

Runs the lexical index in-process over the configured corpus.

Examples:
  librarian recommend "o carte despre prietenie și magie"
  librarian recommend --limit 5 "distopie"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		books, err := loadCorpus(cfg)
		if err != nil {
			return err
		}
		store := library.NewStore(books)

		titles, err := retrieval.NewLexical(store.Books()).Recommend(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(titles) == 0 {
			printWarning("no matching titles")
			return nil
		}
		for _, title := range titles {
			fmt.Fprintln(os.Stdout, title)
		}
		return nil
	},
}

// --- summaries ---

var summariesCmd = &cobra.Command{
	Use:   "summaries [title]",
	Short: "List book titles, or print the summary for one title",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		books, err := loadCorpus(cfg)
		if err != nil {
			return err
		}
		store := library.NewStore(books)

		if len(args) == 0 {
			for _, title := range store.Titles() {
				fmt.Fprintln(os.Stdout, title)
			}
			return nil
		}

		summary, ok := store.Lookup(args[0])
		if !ok {
			printError("no summary for %q", args[0])
			return fmt.Errorf("unknown title: %s", args[0])
		}
		fmt.Fprintln(os.Stdout, summary)
		return nil
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show librarian configuration and server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	resp, err := client.Get(healthURL)
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if books, err := loadCorpus(cfg); err != nil {
		printStatus("Corpus", "error: %v", err)
	} else {
		printStatus("Corpus", "%d books", len(books))
	}

	// The interaction log is readable even while the server holds it open.
	if log, err := storage.Open(cfg.Storage.DataDir); err == nil {
		if n, err := log.CountInteractions(); err == nil {
			printStatus("Interactions", "%d", n)
		}
		log.Close()
	}

	for _, k := range config.ShowAll(cfg) {
		printStatus(k.Key, "%s", k.Value)
	}
	return nil
}

func init() {
	recommendCmd.Flags().Int("limit", 3, "maximum number of titles")
}
