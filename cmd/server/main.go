package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pickflix/internal/catalog"
	"github.com/iliyamo/pickflix/internal/config"
	"github.com/iliyamo/pickflix/internal/database"
	"github.com/iliyamo/pickflix/internal/handler"
	"github.com/iliyamo/pickflix/internal/logging"
	"github.com/iliyamo/pickflix/internal/middleware"
	"github.com/iliyamo/pickflix/internal/repository"
	"github.com/iliyamo/pickflix/internal/router"
	"github.com/iliyamo/pickflix/internal/service"
	"github.com/iliyamo/pickflix/internal/session"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.WithComponent("server")

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("migrate database")
	}
	cancel()

	// Without Redis sessions live in process memory and rate limiting is off.
	var (
		store session.Store
		rdb   *redis.Client
	)
	rdb, err = config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; using in-memory sessions")
		store = session.NewMemoryStore()
		rdb = nil
	} else {
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionPrefix)
	}

	sessions := &middleware.Sessions{
		Manager: session.NewManager(store, cfg.SessionTTL),
		Secret:  cfg.JWTSecret,
		Secure:  cfg.Env == "prod",
	}
	events := service.Publisher{Enabled: cfg.EventsEnabled, URL: cfg.RabbitMQURL}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog())

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(users, sessions, events), sessions, limiter)
	router.RegisterMovies(e, handler.NewMovieHandler(catalog.NewClient(cfg.TMDB)), sessions)
	router.RegisterWatchlist(e, handler.NewWatchlistHandler(repository.NewWatchlistRepo(db), users, events), sessions)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
