// Package main provides the entry point for the feedback board CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"feedbackboard/cmd/feedback/commands"
	contextutils "feedbackboard/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand(os.Stdout, os.Stdin).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %s\n", contextutils.UserMessage(err))
		stop()
		os.Exit(1)
	}
}
