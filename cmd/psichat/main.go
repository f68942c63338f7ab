package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/psichat/internal/cmd"
	"github.com/felixgeelhaar/psichat/internal/exitcode"
	"github.com/felixgeelhaar/psichat/internal/ux"
)

func main() {
	// Create a context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if stderrors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		_, noColor := os.LookupEnv("NO_COLOR")
		fmt.Fprintln(os.Stderr, ux.RenderError(err, noColor))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}
