// ./cmd/load-into-counting/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ryfi/khmer/internal/loadapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	code := loadapp.RunContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
