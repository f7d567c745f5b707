// cmd/harvest/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/record-harvest/harvest/internal/cli"
)

func main() {
	// Cancel the command context on interrupt so in-flight navigations
	// unwind and partial results still get written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.ExecuteContext(ctx)
}
