package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/dossier-backend/internal/config"
	"github.com/yungbote/dossier-backend/internal/db"
	"github.com/yungbote/dossier-backend/internal/graph"
	"github.com/yungbote/dossier-backend/internal/handlers"
	"github.com/yungbote/dossier-backend/internal/locks"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/middleware"
	"github.com/yungbote/dossier-backend/internal/neo4jdb"
	"github.com/yungbote/dossier-backend/internal/observability"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/server"
	"github.com/yungbote/dossier-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Observability
	ctx := context.Background()
	metrics := observability.Init(log)
	if metrics != nil {
		metrics.StartServer(ctx, log, ":"+cfg.MetricsPort)
	}
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "dossier-backend",
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn("OTel shutdown failed", "error", err)
		}
	}()

	// Database
	databaseService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err = databaseService.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	theDB := databaseService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	dossierRepo := repos.NewDossierRepo(theDB, log)
	claimRepo := repos.NewClaimRepo(theDB, log)
	sourceRepo := repos.NewSourceRepo(theDB, log)
	findingRepo := repos.NewFindingRepo(theDB, log)
	edgeRepo := repos.NewEdgeRepo(theDB, log)
	revisionRepo := repos.NewRevisionRepo(theDB, log)

	// Locks: a Redis lock when REDIS_ADDR is configured, else in-process.
	var keyedLock locks.KeyedLock
	redisLock, err := locks.NewRedisLockFromEnv(log)
	if err != nil {
		log.Fatal("Redis lock init failed", "error", err)
	}
	if redisLock != nil {
		keyedLock = redisLock
		defer redisLock.Close()
	} else {
		keyedLock = locks.NewKeyedMutex()
	}

	// Neo4j mirror (optional)
	neo4jClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed, graph mirror disabled", "error", err)
	}
	if neo4jClient != nil {
		defer neo4jClient.Close(ctx)
	}
	mirror := graph.NewMirror(neo4jClient, log, claimRepo, sourceRepo, findingRepo, edgeRepo)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(log, cfg.JWTSecretKey)
	ledgerService := services.NewLedgerService(theDB, log, revisionRepo)
	dossierService := services.NewDossierService(theDB, log, dossierRepo, claimRepo, sourceRepo, findingRepo, edgeRepo)
	reviewService := services.NewReviewService(
		theDB, log, cfg.Limits, keyedLock,
		claimRepo, sourceRepo, findingRepo, edgeRepo,
		ledgerService, dossierService, mirror,
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	reviewHandler := handlers.NewReviewHandler(log, cfg.Limits, dossierService, reviewService, ledgerService)
	dossierHandler := handlers.NewDossierHandler(log, dossierService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: authMiddleware,
		ReviewHandler:  reviewHandler,
		DossierHandler: dossierHandler,
	})

	log.Info("Starting server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
