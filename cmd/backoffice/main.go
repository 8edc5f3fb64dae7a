// Package main is the backoffice command line client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/go-portfolio/internal/cli"
	"github.com/jrsteele09/go-portfolio/internal/config"
	"github.com/jrsteele09/go-portfolio/internal/logging"
)

func main() {
	c, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())

	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	cfg, err := cli.ParseConfig(fs, os.Args[1:], c, os.LookupEnv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s\n", err, cli.Usage())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
