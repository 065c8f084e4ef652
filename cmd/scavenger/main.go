package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/scavenger/internal/cli"
)

func main() {
	// An interrupt cancels the crawl; collected scraps are still saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
