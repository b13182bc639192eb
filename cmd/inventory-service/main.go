package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/events"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/handler"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/config"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/httputil"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
	"github.com/freshtrack/freshtrack-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository()
	uomRepo := repository.NewUOMRepository()
	conversionRepo := repository.NewConversionRepository()
	batchRepo := repository.NewBatchRepository()
	orderRepo := repository.NewOrderRepository()
	stockEntryRepo := repository.NewStockEntryRepository()
	dispatchEntryRepo := repository.NewDispatchEntryRepository()
	rejectionEntryRepo := repository.NewRejectionEntryRepository()
	txnRepo := repository.NewTxnRepository()

	// Initialize services
	resolver := service.NewConversionResolver(conversionRepo)
	catalogService := service.NewCatalogService(db, itemRepo, uomRepo, conversionRepo, log)
	batchService := service.NewBatchService(db, batchRepo, publisher, log)
	receivingService := service.NewReceivingService(db, itemRepo, batchRepo, stockEntryRepo, txnRepo, resolver, publisher, log)
	dispatchService := service.NewDispatchService(db, batchRepo, orderRepo, dispatchEntryRepo, txnRepo, resolver, publisher, log)
	rejectionService := service.NewRejectionService(db, batchRepo, rejectionEntryRepo, txnRepo, publisher, log)
	orderService := service.NewOrderService(db, orderRepo, log)
	ledgerService := service.NewLedgerService(db, txnRepo)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(catalogService, ledgerService, batchService, log)
	uomHandler := handler.NewUOMHandler(catalogService)
	conversionHandler := handler.NewConversionHandler(catalogService)
	batchHandler := handler.NewBatchHandler(batchService, ledgerService, log)
	stockEntryHandler := handler.NewStockEntryHandler(receivingService, log)
	dispatchEntryHandler := handler.NewDispatchEntryHandler(dispatchService, log)
	rejectionEntryHandler := handler.NewRejectionEntryHandler(rejectionService, log)
	orderHandler := handler.NewOrderHandler(orderService, log)
	txnHandler := handler.NewTxnHandler(ledgerService)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httputil.ActingUser)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Acting-User", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/inventory", func(r chi.Router) {
		// Item routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Get("/{id}", itemHandler.Get)
			r.Patch("/{id}", itemHandler.Update)
			r.Delete("/{id}", itemHandler.Delete)
			r.Get("/{id}/batches/in-stock", itemHandler.ListBatchesInStock)
			r.Get("/{id}/txns", itemHandler.ListTxns)
		})

		// Unit-of-measure routes
		r.Route("/uoms", func(r chi.Router) {
			r.Get("/", uomHandler.List)
			r.Post("/", uomHandler.Create)
			r.Delete("/{id}", uomHandler.Delete)
		})

		// Conversion mapping routes
		r.Route("/conversions", func(r chi.Router) {
			r.Get("/", conversionHandler.List)
			r.Post("/", conversionHandler.Create)
			r.Patch("/{id}", conversionHandler.Update)
			r.Delete("/{id}", conversionHandler.Delete)
		})

		// Batch routes
		r.Route("/batches", func(r chi.Router) {
			r.Get("/", batchHandler.List)
			r.Get("/{id}", batchHandler.Get)
			r.Patch("/{id}", batchHandler.Update)
			r.Delete("/{id}", batchHandler.Delete)
			r.Get("/{id}/txns", batchHandler.ListTxns)
			r.Post("/expiry-alerts", batchHandler.PublishExpiryAlerts)
		})

		// Stock entry routes
		r.Route("/stock-entries", func(r chi.Router) {
			r.Get("/", stockEntryHandler.List)
			r.Post("/", stockEntryHandler.Create)
			r.Get("/{id}", stockEntryHandler.Get)
			r.Patch("/{id}", stockEntryHandler.Update)
			r.Delete("/{id}", stockEntryHandler.Delete)
		})

		// Dispatch entry routes
		r.Route("/dispatch-entries", func(r chi.Router) {
			r.Get("/", dispatchEntryHandler.List)
			r.Post("/", dispatchEntryHandler.Create)
			r.Post("/from-order", dispatchEntryHandler.CreateFromOrder)
			r.Get("/{id}", dispatchEntryHandler.Get)
			r.Patch("/{id}", dispatchEntryHandler.Update)
			r.Delete("/{id}", dispatchEntryHandler.Delete)
		})

		// Rejection entry routes
		r.Route("/rejection-entries", func(r chi.Router) {
			r.Get("/", rejectionEntryHandler.List)
			r.Post("/", rejectionEntryHandler.Create)
			r.Get("/{id}", rejectionEntryHandler.Get)
		})

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Post("/", orderHandler.Create)
			r.Get("/marts", orderHandler.ListMarts)
			r.Get("/{id}", orderHandler.Get)
			r.Patch("/{id}", orderHandler.Update)
			r.Delete("/{id}", orderHandler.Delete)
		})

		// Ledger routes (read-only)
		r.Get("/txns", txnHandler.List)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
