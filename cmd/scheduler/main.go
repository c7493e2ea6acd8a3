// Command scheduler plays, tests and inspects scripted editing sessions
// against the task tree and day planner.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/scheduler/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
