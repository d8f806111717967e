// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/webpilot-cli/cmd"
)

// main is the entry point for the webpilot CLI.
func main() {
	// Ctrl-C cancels the running flow; the browser is shut down on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
