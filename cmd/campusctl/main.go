// Command campusctl manages the Campus Navigator dataset: it seeds the
// building catalog, ingests knowledge text, publishes snapshots to R2 and
// answers queries locally.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	domerrors "github.com/campusnav/campus-navigator-go/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", domerrors.GetUserMessage(err))
		if verbose {
			_, _ = fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
		os.Exit(1)
	}
}
