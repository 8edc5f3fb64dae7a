package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-portfolio/devapi"
	"github.com/jrsteele09/go-portfolio/internal/config"
	"github.com/jrsteele09/go-portfolio/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running devapi")
	}
	log.Info().Msg("devapi stopped")
}

func run() error {
	c, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname("devapi")

	password := c.GetDevAPIAdminPassword()
	if password == "" {
		if password, err = generatePassword(); err != nil {
			return err
		}
		log.Warn().Str("username", c.GetDevAPIAdminUser()).Str("password", password).Msg("generated admin password")
	}

	issuer, err := devapi.NewIssuer(c.GetDevAPISecret(), c.GetDefaultAccessTokenExpiry(), c.GetDefaultRefreshTokenExpiry())
	if err != nil {
		return err
	}
	api, err := devapi.NewSeeded(issuer, c.GetDevAPIAdminUser(), password, c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: c.GetDevAPIPort(), Handler: api, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).
			Dur("access_ttl", c.GetDefaultAccessTokenExpiry()).
			Msg("devapi listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return <-errCh
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
