// Command mockllm drives the component-generation loop against the
// provider picked from the environment, the mock when no key is set.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/uigen/go-llm/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runCLI(ctx, newRootCommand(), logger.Get())
	stop()
	os.Exit(code)
}

// runCLI runs cmd and returns the process exit code, logging any failure
func runCLI(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("mockllm failed")
		return 1
	}
	return 0
}
