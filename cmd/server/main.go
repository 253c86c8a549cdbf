package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/accounts"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/server"
	refreshrepofake "github.com/jrsteele09/go-auth-client/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-client/token/reset"
	fakeuserrepo "github.com/jrsteele09/go-auth-client/users/repofake"
)

const redisConnectAttempts = 5

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	resets, closeResets, err := resetStore(c.GetRedisAddr())
	if err != nil {
		return err
	}
	defer closeResets.Close()

	repos := accounts.Repos{
		Users:   fakeuserrepo.NewFakeUserRepo(),
		Refresh: refreshrepofake.NewFakeRefreshTokenRepo(),
		Resets:  resets,
	}
	handler, err := server.New(c, repos)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	serverErr := make(chan error, 1)
	go func() { serverErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serverErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// resetStore shares reset tokens through redis when an address is configured.
func resetStore(redisAddr string) (reset.Store, io.Closer, error) {
	if redisAddr == "" {
		return reset.NewMemoryStore(), io.NopCloser(nil), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := reset.Connect(ctx, redisAddr, redisConnectAttempts)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", redisAddr).Msg("Reset tokens stored in redis")
	return reset.NewRedisStore(client, ""), client, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
