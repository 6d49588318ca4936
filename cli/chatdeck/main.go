package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	chatdeckcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := chatdeckcmder.NewChatdeckCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
