package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/auth"
	"github.com/hazfactura/console/internal/browser"
	"github.com/hazfactura/console/internal/config"
	"github.com/hazfactura/console/refresh"
	"github.com/hazfactura/console/server"
	"github.com/hazfactura/console/session"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine

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
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, closeStorage, err := newStorage(c)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := session.NewStore(storage, session.WithClearInvalid(c.GetClearInvalidSession()))
	snap := store.Hydrate(ctx)
	log.Info().Bool("authenticated", snap.Authenticated()).Str("store", c.GetSessionStore()).Msg("session restored")

	client := api.New(c.GetAPIURL(), store,
		api.WithTimeout(c.GetAPITimeout()),
		api.WithOnUnauthorized(func(ctx context.Context) {
			if err := store.Reset(context.WithoutCancel(ctx)); err != nil {
				log.Err(err).Msg("session reset after 401 not persisted")
			}
		}),
	)

	service, err := auth.NewService(client, store, auth.WithProfileTTL(c.GetProfileTTL()))
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	handler, err := server.New(c, store, service)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	refresher := refresh.New(store, client,
		refresh.WithInterval(c.GetRefreshInterval()),
		refresh.WithProfileTTL(c.GetProfileTTL()),
	)
	go refresher.Run(ctx)
	go handler.WatchSession(ctx)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	if c.GetOpenBrowser() {
		if err := browser.Open(c.GetBaseURL()); err != nil {
			log.Warn().Err(err).Str("url", c.GetBaseURL()).Msg("could not open browser")
		}
	}

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	cancel()
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newStorage picks the session backend named by SESSION_STORE
func newStorage(c config.SessionConfig) (session.Storage, func(), error) {
	noop := func() {}
	switch c.GetSessionStore() {
	case config.SessionStoreMemory:
		return session.NewInMemoryStorage(), noop, nil
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis.Ping %s: %w", c.GetRedisAddr(), err)
		}
		return session.NewRedisStorage(rdb, c.GetSessionKeyPrefix(), c.GetSessionTTL()), func() { _ = rdb.Close() }, nil
	case config.SessionStoreFile:
		fs := session.NewFileStorage(c.GetSessionFile(), session.NewKeys(c.GetSessionKeyPrefix()), c.GetSessionSecret())
		log.Debug().Str("path", fs.Path()).Msg("session file")
		return fs, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown SESSION_STORE %q", c.GetSessionStore())
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
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
