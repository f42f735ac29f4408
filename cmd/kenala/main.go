package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/kenala/internal/client/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "kenala:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return cli.NewRootCommand().ExecuteContext(ctx)
}
