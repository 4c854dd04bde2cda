package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	cancel()
	os.Exit(code)
}
