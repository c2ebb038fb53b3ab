package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fraugster/parquet-catalog/cmd/parquet-catalog/internal/cmds"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmds.Execute(ctx)
	stop()
	os.Exit(code)
}
