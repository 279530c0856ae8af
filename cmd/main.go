package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/slayergates/esports-arena/cache"
	"github.com/slayergates/esports-arena/config"
	"github.com/slayergates/esports-arena/db"
	"github.com/slayergates/esports-arena/handlers"
	"github.com/slayergates/esports-arena/live"
	"github.com/slayergates/esports-arena/middleware"
	"github.com/slayergates/esports-arena/repositories"
	"github.com/slayergates/esports-arena/routes"
	"github.com/slayergates/esports-arena/services"
	"github.com/slayergates/esports-arena/storage"
)

const (
	leaderboardTTL        = 5 * time.Minute
	leaderboardWarmPeriod = time.Minute
	shutdownTimeout       = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	leaderboardCache, err := cache.New(cfg.RedisURL, leaderboardTTL)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := leaderboardCache.Close(); err != nil {
			logger.Error("failed to close redis connection", slog.Any("error", err))
		}
	}()
	logger.Info("redis connection established")

	uploader, err := storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize file uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("file uploader initialized")

	hub := live.NewHub(logger)

	txm := repositories.NewSQLTxManager(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	schoolRepo := repositories.NewPostgresSchoolRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	requestRepo := repositories.NewPostgresJoinRequestRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	guard := services.NewTeamInvariantGuard(teamRepo, requestRepo)
	notifier := services.NewSlogNotifier(logger)

	authService := services.NewAuthService(userRepo, []byte(cfg.JWTSecretKey))
	userService := services.NewUserService(userRepo, uploader)
	schoolService := services.NewSchoolService(schoolRepo)
	teamService := services.NewTeamService(txm, teamRepo, userRepo, guard, uploader, logger)
	membershipService := services.NewMembershipService(txm, teamRepo, requestRepo, userRepo, guard, notifier, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, registrationRepo)
	registrationService := services.NewRegistrationService(txm, tournamentRepo, teamRepo, registrationRepo, notifier, logger)
	matchService := services.NewMatchService(matchRepo, registrationRepo, leaderboardCache, hub, logger)
	leaderboardService := services.NewLeaderboardService(matchRepo, leaderboardCache, logger)

	auth := middleware.NewAuth([]byte(cfg.JWTSecretKey))

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		auth,
		handlers.NewAuthHandler(authService),
		handlers.NewUserHandler(userService),
		handlers.NewSchoolHandler(schoolService),
		handlers.NewTeamHandler(teamService),
		handlers.NewMembershipHandler(membershipService),
		handlers.NewTournamentHandler(tournamentService, registrationService),
		handlers.NewMatchHandler(matchService),
		handlers.NewLeaderboardHandler(leaderboardService),
		handlers.NewWebSocketHandler(hub, tournamentService, logger),
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		hub.Run(groupCtx)
		return nil
	})

	// Прогрев кеша лидерборда: сразу на старте и дальше по таймеру.
	group.Go(func() error {
		warm := func() {
			warmCtx, cancel := context.WithTimeout(groupCtx, 10*time.Second)
			defer cancel()
			if _, err := leaderboardService.Refresh(warmCtx); err != nil {
				logger.Warn("leaderboard warm-up failed", slog.Any("error", err))
			}
		}
		warm()

		ticker := time.NewTicker(leaderboardWarmPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				warm()
			}
		}
	})

	group.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			return server.Close()
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
