package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/adapters"
	"github.com/rpattn/schemaflow/internal/config"
	"github.com/rpattn/schemaflow/internal/conversion"
	"github.com/rpattn/schemaflow/internal/db"
	"github.com/rpattn/schemaflow/internal/diff"
	"github.com/rpattn/schemaflow/internal/export"
	"github.com/rpattn/schemaflow/internal/ingestion"
	"github.com/rpattn/schemaflow/internal/middleware"
	"github.com/rpattn/schemaflow/internal/notify"
	"github.com/rpattn/schemaflow/internal/orchestrator"
	"github.com/rpattn/schemaflow/internal/repository"
	"github.com/rpattn/schemaflow/internal/resolver"
	"github.com/rpattn/schemaflow/internal/schema"
	"github.com/rpattn/schemaflow/internal/workflows"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	eventRepo := repository.NewSchemaChangeEventRepository(conn.Pool)
	schemaRepo := repository.NewSchemaRepository(conn.Pool)
	workflowRepo := repository.NewWorkflowRepository(conn.Pool)
	approvalRepo := repository.NewConversionApprovalRepository(conn.Pool)
	recordSource := repository.NewRecordRepository(conn)
	storefrontStore := repository.NewStorefrontMappingRepository(conn.Pool)
	integrationStore := repository.NewIntegrationMappingRepository(conn.Pool)

	// Field resolution with a TTL cache shared across consumers
	cache := resolver.NewCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	fieldResolver := resolver.New(cache)

	// Notification sink: NATS when configured, log otherwise
	var sink notify.Sink
	if cfg.NATS.URL != "" {
		natsSink, err := notify.NewNATSSink(cfg.NATS.URL, cfg.NATS.NotifySubject, cfg.NATS.DashboardSubject, 10, 2*time.Second, logger)
		if err != nil {
			logger.Fatalf("Failed to connect notification sink: %v", err)
		}
		defer natsSink.Close()
		sink = natsSink
	} else {
		sink = notify.NewLogSink(logger)
	}

	// Knowledge-layer reindex queue follows the same deployment choice
	var reindexQueue adapters.ReindexQueue
	if cfg.NATS.URL != "" {
		natsQueue, err := adapters.NewNATSReindexQueue(cfg.NATS.URL, "schemaflow.reindex", 10, 2*time.Second, logger)
		if err != nil {
			logger.Fatalf("Failed to connect reindex queue: %v", err)
		}
		defer natsQueue.Close()
		reindexQueue = natsQueue
	} else {
		reindexQueue = adapters.NewLogReindexQueue(logger)
	}

	// Consumer adapters
	conversionEngine := conversion.NewEngine(recordSource, approvalRepo, logger)
	workflowValidator := workflows.NewValidator(workflowRepo, schemaRepo, fieldResolver, sink, logger)
	consumerAdapters := []orchestrator.Adapter{
		workflowValidator,
		adapters.NewIntegrationMappingManager(integrationStore, logger),
		adapters.NewStorefrontAdapter(storefrontStore, logger),
		adapters.NewKnowledgeRefresher(reindexQueue, logger),
	}

	orch := orchestrator.New(eventRepo, sink, conversionEngine, consumerAdapters, logger)
	schemaService := schema.NewService(schemaRepo, diff.NewEngine(), orch, fieldResolver, logger)
	exportService := export.NewService(orch)
	importService := ingestion.NewService(schemaRepo, recordSource, fieldResolver, logger)

	// Background sweep over the unprocessed backlog
	go func() {
		ticker := time.NewTicker(cfg.Sweep.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep(ctx, eventRepo, orch, logger)
			}
		}
	}()

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	schemaHandler := schema.NewHTTPHandler(schemaService)
	mux.Handle("/schemas", schemaHandler)
	mux.Handle("/schemas/", schemaHandler)
	mux.Handle("/impact/", export.NewHTTPHandler(exportService))
	mux.Handle("/approvals", conversion.NewHTTPHandler(approvalRepo))
	mux.Handle("/workflows", workflows.NewHTTPHandler(workflowRepo))
	importHandler := ingestion.NewHTTPHandler(importService)
	mux.Handle("/imports", importHandler)
	mux.Handle("/imports/", importHandler)

	server := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		Handler:      corsHandler.Handler(middleware.LoggingMiddleware(logger, mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Starting server on %s", cfg.HTTP.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// sweep drains the unprocessed backlog for every organization that has one.
func sweep(ctx context.Context, events repository.SchemaChangeEventRepository, orch *orchestrator.Orchestrator, logger *logrus.Logger) {
	organizations, err := events.ListUnprocessedOrganizations(ctx)
	if err != nil {
		logger.Errorf("sweep: failed to list organizations: %v", err)
		return
	}

	for _, organizationID := range organizations {
		stats, err := orch.ProcessUnprocessedEvents(ctx, organizationID, nil)
		if err != nil {
			logger.WithField("organization_id", organizationID).Errorf("sweep failed: %v", err)
			continue
		}
		if stats.Processed > 0 || stats.Failed > 0 {
			logger.WithFields(logrus.Fields{
				"organization_id": organizationID,
				"processed":       stats.Processed,
				"failed":          stats.Failed,
			}).Info("sweep completed")
		}
	}
}
