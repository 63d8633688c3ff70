// mpboard - a command-line tool for MicroPython-class boards: run code
// over the raw REPL, manage the device filesystem, flash firmware.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mpboard/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mpboard: %v\n", err)
		os.Exit(1)
	}
}
