// Package main provides the entry point for the bmsearch CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aman-CERP/bmsearch/cmd/bmsearch/cmd"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, bmerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
