// Package main is the entry point for the brawl leaderboard service.
// It wires configuration, storage, the service locator, the route table,
// and the global middleware chain, then runs the HTTP server with
// graceful shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/auth"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/brawl"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/cache"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/database"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/handlers"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/leaderboard"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/locator"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/middleware"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/ratelimit"
	redisStore "github.com/asterix1221/brawl-leaderboard-sub000/internal/redis"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/router"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/token"
	"github.com/asterix1221/brawl-leaderboard-sub000/pkg/logger"
)

// repositories groups the data access layer behind one struct so the
// Postgres and in-memory wirings stay interchangeable.
type repositories struct {
	users   repository.UserRepository
	players repository.PlayerRepository
	scores  repository.ScoreRepository
	seasons repository.SeasonRepository
}

func main() {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env.local file: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.WithFields(logrus.Fields{
		"port": cfg.Server.Port,
		"host": cfg.Server.Host,
	}).Info("Starting brawl leaderboard service")

	store := initializeStore(cfg, log)
	defer closeStore(store, log)

	dbMgr, repos := initializeRepositories(cfg, log)
	defer closeDatabase(dbMgr, log)

	server := setupServer(cfg, store, dbMgr, repos, log)

	runServer(server, cfg, log)
}

// initializeStore connects to Redis, falling back to the in-memory store
// when Redis is unreachable.
func initializeStore(cfg *config.Config, log *logrus.Logger) redisStore.Store {
	client, err := redisStore.NewClient(&cfg.Redis, log)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory store")
		log.Warn("Note: In-memory store will not persist data between restarts")
		return redisStore.NewMemoryStore(log)
	}

	log.Info("Successfully connected to Redis store")
	return client
}

// initializeRepositories returns the Postgres-backed repositories when
// database credentials are configured, otherwise in-memory ones.
func initializeRepositories(cfg *config.Config, log *logrus.Logger) (*database.Manager, *repositories) {
	if !cfg.IsDatabaseConfigured() {
		log.Warn("PostgreSQL credentials not configured, using in-memory repositories")

		players := repository.NewMemoryPlayerRepository()
		return nil, &repositories{
			users:   repository.NewMemoryUserRepository(),
			players: players,
			scores:  repository.NewMemoryScoreRepository(players),
			seasons: repository.NewMemorySeasonRepository(),
		}
	}

	dbMgr := database.NewManager(cfg, log)
	return dbMgr, &repositories{
		users:   repository.NewPostgresUserRepository(dbMgr.Pool),
		players: repository.NewPostgresPlayerRepository(dbMgr.Pool),
		scores:  repository.NewPostgresScoreRepository(dbMgr.Pool),
		seasons: repository.NewPostgresSeasonRepository(dbMgr.Pool),
	}
}

func closeStore(store redisStore.Store, log *logrus.Logger) {
	if err := store.Close(); err != nil {
		log.WithError(err).Error("Failed to close store connection")
	}
}

func closeDatabase(dbMgr *database.Manager, log *logrus.Logger) {
	if dbMgr != nil {
		dbMgr.Close()
		log.Info("Database connections closed")
	}
}

func setupServer(
	cfg *config.Config,
	store redisStore.Store,
	dbMgr *database.Manager,
	repos *repositories,
	log *logrus.Logger,
) *http.Server {
	tokens, err := token.NewService(&cfg.JWT)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize token service")
	}

	responseCache := cache.New(store, log)
	limiter := ratelimit.New(store, cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow, log)

	services := locator.New()
	services.Register("middleware.auth", func(*locator.Locator) (any, error) {
		return handlers.NewAuthMiddleware(tokens, log), nil
	})
	services.Register("handler.auth", func(*locator.Locator) (any, error) {
		authService := auth.NewService(repos.users, tokens, &cfg.JWT, log)
		return handlers.NewAuthHandler(authService, log), nil
	})
	services.Register("service.ranker", func(*locator.Locator) (any, error) {
		return leaderboard.NewRanker(repos.scores, repos.players, repos.seasons, responseCache, &cfg.Cache, log), nil
	})
	services.Register("handler.leaderboard", func(l *locator.Locator) (any, error) {
		ranker, err := resolveRanker(l)
		if err != nil {
			return nil, err
		}
		return handlers.NewLeaderboardHandler(ranker, log), nil
	})
	services.Register("handler.player", func(*locator.Locator) (any, error) {
		brawlClient := brawl.NewClient(&cfg.Brawl, log)
		return handlers.NewPlayerHandler(repos.players, repos.users, brawlClient, log), nil
	})
	services.Register("handler.score", func(l *locator.Locator) (any, error) {
		ranker, err := resolveRanker(l)
		if err != nil {
			return nil, err
		}
		return handlers.NewScoreHandler(repos.scores, repos.players, repos.seasons, ranker, log), nil
	})
	services.Register("handler.health", func(*locator.Locator) (any, error) {
		return handlers.NewHealthHandler(store, dbMgr, log), nil
	})

	rt := router.New(services, log)

	rt.Register(http.MethodPost, "/auth/register", "handler.auth", "register")
	rt.Register(http.MethodPost, "/auth/login", "handler.auth", "login")
	rt.Register(http.MethodPost, "/auth/refresh", "handler.auth", "refresh")

	rt.Register(http.MethodGet, "/leaderboards/global", "handler.leaderboard", "page")

	rt.Register(http.MethodGet, "/players/search", "handler.player", "search")
	rt.Register(http.MethodGet, "/players/:playerId", "handler.player", "get", "middleware.auth")
	rt.Register(http.MethodPost, "/players/link", "handler.player", "link", "middleware.auth")

	rt.Register(http.MethodPost, "/scores", "handler.score", "upsert", "middleware.auth")
	rt.Register(http.MethodPut, "/scores", "handler.score", "upsert", "middleware.auth")

	rt.Register(http.MethodGet, "/health", "handler.health", "ready")
	rt.Register(http.MethodGet, "/health/live", "handler.health", "live")
	rt.Register(http.MethodGet, "/health/ready", "handler.health", "ready")
	rt.Register(http.MethodGet, "/metrics", "handler.health", "metrics")

	stack := middleware.NewStack(cfg, limiter, tokens, log)
	finalHandler := stack.Chain(
		rt,
		stack.Recovery,
		stack.RequestLogger,
		stack.CORS,
		stack.RateLimit,
	)

	return &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func resolveRanker(l *locator.Locator) (*leaderboard.Ranker, error) {
	service, err := l.Resolve("service.ranker")
	if err != nil {
		return nil, err
	}
	ranker, ok := service.(*leaderboard.Ranker)
	if !ok {
		return nil, fmt.Errorf("service.ranker has unexpected type %T", service)
	}
	return ranker, nil
}

func runServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	go func() {
		log.WithField("addr", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	} else {
		log.Info("Server exited gracefully")
	}
}
