package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apetrei/librarian/internal/config"
	"github.com/apetrei/librarian/internal/librarian"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the librarian interactively",
	Long: `Chat with the librarian interactively.

Runs the recommendation service in-process, so no server needs to be
running. Type "exit" to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func runChat(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.OpenAI.APIKey == "" {
		printWarning("no OpenAI API key configured, replies will be deterministic")
	}
	printStep("Smart Librarian — scrie o întrebare (sau \"exit\")")

	var history []librarian.Turn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, colorize(colorBold, "tu> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			break
		}

		history = append(history, librarian.Turn{Role: "user", Content: line})
		result := svc.ChatWithHistory(ctx, history)
		history = append(history, librarian.Turn{Role: "assistant", Content: result.Reply})

		fmt.Fprintln(os.Stdout, result.Reply)
		if result.RecommendedTitle != "" {
			printStatus("Recomandare", "%s", result.RecommendedTitle)
		}
		fmt.Fprintln(os.Stdout)
	}
	return scanner.Err()
}
