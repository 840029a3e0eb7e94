package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/config"
	"github.com/noah-isme/arena-go-api/internal/database"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/middleware"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/router"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/pkg/analyzer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Event{},
		&models.EventJudge{},
		&models.Round{},
		&models.Criterion{},
		&models.Team{},
		&models.TeamMember{},
		&models.Submission{},
		&models.Evaluation{},
		&models.CriterionScore{},
		&models.LeaderboardSnapshot{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	eventRepo := repository.NewEventRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	submissionAnalyzer := buildAnalyzer(cfg, logger)

	eventService := service.NewEventService(eventRepo, validate, logger)
	submissionService := service.NewSubmissionService(
		submissionRepo, eventRepo, teamRepo, evaluationRepo,
		submissionAnalyzer, cfg.AnalyzerTimeout, natsConn, validate, logger,
	)
	evaluationService := service.NewEvaluationService(evaluationRepo, submissionRepo, eventRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(
		eventRepo, teamRepo, submissionRepo, evaluationRepo, leaderboardRepo,
		redisClient, cfg.LeaderboardCacheTTL, natsConn, logger,
	)

	eventHandler := handler.NewEventHandler(eventService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EventHandler:       eventHandler,
		SubmissionHandler:  submissionHandler,
		EvaluationHandler:  evaluationHandler,
		LeaderboardHandler: leaderboardHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	serviceCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()
	leaderboardService.Start(serviceCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// buildAnalyzer assembles the analyzer chain from configuration: the remote
// service when one is configured, then OpenAI, then the local heuristic so a
// submission always gets some automated score.
func buildAnalyzer(cfg config.Config, logger zerolog.Logger) analyzer.Analyzer {
	var analyzers []analyzer.Analyzer

	if cfg.AnalyzerProvider == "remote" || cfg.AnalyzerServiceURL != "" {
		remote, err := analyzer.NewRemoteAnalyzer(analyzer.RemoteConfig{
			BaseURL: cfg.AnalyzerServiceURL,
			Timeout: cfg.AnalyzerTimeout,
			Logger:  logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("remote analyzer unavailable")
		} else {
			analyzers = append(analyzers, remote)
		}
	}

	if cfg.OpenAIAPIKey != "" {
		ai, err := analyzer.NewOpenAIAnalyzer(analyzer.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai analyzer unavailable")
		} else {
			analyzers = append(analyzers, ai)
		}
	}

	analyzers = append(analyzers, analyzer.NewHeuristicAnalyzer())

	return analyzer.NewChain(logger, analyzers...)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
