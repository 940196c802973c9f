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

	"github.com/chainplay/fantasy-tournaments/config"
	"github.com/chainplay/fantasy-tournaments/db"
	"github.com/chainplay/fantasy-tournaments/handlers"
	"github.com/chainplay/fantasy-tournaments/live"
	"github.com/chainplay/fantasy-tournaments/repositories"
	api "github.com/chainplay/fantasy-tournaments/routes"
	"github.com/chainplay/fantasy-tournaments/services"
	"github.com/chainplay/fantasy-tournaments/settlement"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const expirySweepInterval = 30 * time.Second // How often the expiry scheduler runs

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

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
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	gateway, err := settlement.NewEVMGateway(settlement.EVMGatewayConfig{
		RPCURL:         cfg.RPCURL,
		PrivateKey:     cfg.ChainPrivateKey,
		FactoryAddress: cfg.FactoryAddress,
	})
	if err != nil {
		logger.Error("failed to initialize settlement gateway", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("settlement gateway initialized", slog.String("rpc_url", cfg.RPCURL))

	hub := live.NewHub()
	go hub.Run()
	logger.Info("WebSocket hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	logger.Info("repositories initialized")

	clock := clockwork.NewRealClock()
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		participantRepo,
		gateway,
		hub,
		clock,
		logger,
	)
	enrollmentService := services.NewEnrollmentService(
		tournamentRepo,
		participantRepo,
		gateway,
		hub,
		clock,
		logger,
	)
	logger.Info("services initialized")

	tournamentHandler := handlers.NewTournamentHandler(tournamentService, enrollmentService)
	webSocketHandler := handlers.NewWebSocketHandler(hub)

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.CORSAllowedOrigins, tournamentHandler, webSocketHandler)
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
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Планировщик закрытия турниров с истёкшим end_time.
	group.Go(func() error {
		ticker := time.NewTicker(expirySweepInterval)
		defer ticker.Stop()
		logger.Info("tournament expiry scheduler started", slog.Duration("interval", expirySweepInterval))

		if err := tournamentService.CloseExpired(groupCtx); err != nil {
			logger.Error("expiry scheduler: initial run failed", slog.Any("error", err))
		}
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if err := tournamentService.CloseExpired(groupCtx); err != nil {
					logger.Error("expiry scheduler: periodic run failed", slog.Any("error", err))
				}
			}
		}
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
