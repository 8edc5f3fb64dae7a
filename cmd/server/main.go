package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-portfolio/i18n"
	"github.com/jrsteele09/go-portfolio/internal/config"
	"github.com/jrsteele09/go-portfolio/internal/logging"
	"github.com/jrsteele09/go-portfolio/server"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		err := run()
		if err == nil {
			break
		}
		if errors.Is(err, errConfig) {
			log.Fatal().Err(err).Msg("Error starting server")
		}
		log.Error().Err(err).Msg("Error running server, restarting")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("Server stopped")
}

// errConfig marks startup failures a restart cannot fix.
var errConfig = errors.New("invalid configuration")

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(ctx, c.GetLocalesDir())
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	srv, err := server.New(c, catalog)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	return srv.ListenAndServe(ctx)
}

// loadCatalog uses the embedded dictionaries unless a directory is
// configured, in which case edits to it are picked up while running.
func loadCatalog(ctx context.Context, dir string) (*i18n.Catalog, error) {
	if dir == "" {
		return i18n.LoadEmbedded()
	}
	catalog, err := i18n.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if err := catalog.Validate(); err != nil {
		log.Warn().Err(err).Msg("i18n dictionaries are incomplete")
	}
	if err := i18n.Watch(ctx, dir, catalog); err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("watching i18n dictionaries")
	return catalog, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
