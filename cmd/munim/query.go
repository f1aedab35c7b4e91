package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyaapari360/munim/internal/agent"
	"github.com/vyaapari360/munim/internal/config"
)

var (
	queryMessage    string
	queryConfigPath string
	queryConvID     string
	queryTimeout    int
	queryShowCalls  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a one-shot question against the assistant",
	Long: `Run a single conversation turn in-process and print the answer.
Uses the same store, tools and model as serve mode, without the HTTP layer.

Examples:
  munim query -m "show me the sales vouchers from last month"
  munim query -m "which ledgers have outstanding balances?" --tool-calls`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryMessage, "message", "m", "", "message to send (required)")
	queryCmd.Flags().StringVar(&queryConfigPath, "config", config.DefaultConfigPath(), "path to config file")
	queryCmd.Flags().StringVar(&queryConvID, "conversation-id", "", "conversation ID for multi-turn context")
	queryCmd.Flags().IntVar(&queryTimeout, "timeout", 120, "timeout in seconds")
	queryCmd.Flags().BoolVar(&queryShowCalls, "tool-calls", false, "print tool call summaries to stderr")

	_ = queryCmd.MarkFlagRequired("message")
}

func runQuery(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(envOr("MUNIM_CONFIG", queryConfigPath))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	sc, err := initShared(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(queryTimeout)*time.Second)
	defer cancel()

	resp, err := sc.Dispatcher.Handle(ctx, &agent.Input{
		Message:        queryMessage,
		ConversationID: queryConvID,
	})
	if err != nil {
		return err
	}

	if queryShowCalls {
		for _, call := range resp.ToolCalls {
			summary, _ := json.Marshal(call)
			fmt.Fprintf(os.Stderr, "tool: %s\n", summary)
		}
	}

	fmt.Println(resp.Answer)
	fmt.Fprintf(os.Stderr, "conversation: %s  tokens: %d\n", resp.ConversationID, resp.TokensUsed)
	return nil
}
