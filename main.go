// rfchat - a two-peer text chat over TCP, WebSocket, or SSH tunnels.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rfchat/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rfchat: %v\n", err)
		os.Exit(1)
	}
}
