// Package main provides a CLI that simulates scripted encounters
// against the rules engine.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/runerust/internal/platform/config"
	"github.com/louisbranch/runerust/internal/platform/otel"

	simulatecmd "github.com/louisbranch/runerust/internal/cmd/simulate"
)

func main() {
	cfg, err := simulatecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "runerust-simulate")
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if err := simulatecmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
