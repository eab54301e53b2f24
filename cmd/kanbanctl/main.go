package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"kanban-board/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "kanbanctl:", err)
		os.Exit(1)
	}
}
