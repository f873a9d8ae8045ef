package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"icupa-ordering/internal/catalog"
	"icupa-ordering/internal/config"
	"icupa-ordering/internal/database"
	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/messaging"
	"icupa-ordering/internal/payment"
	"icupa-ordering/internal/services/kitchen"
	"icupa-ordering/internal/services/notification"
	"icupa-ordering/internal/services/order"
	"icupa-ordering/internal/services/tracking"
	"icupa-ordering/migrations"
)

func main() {
	var (
		mode              = flag.String("mode", "", "Service mode (order-service, tracking-service, kitchen-worker, notification-subscriber)")
		port              = flag.Int("port", 3000, "HTTP port")
		configPath        = flag.String("config", "config.yaml", "Path to config file")
		workerName        = flag.String("worker-name", "", "Worker name (required for kitchen-worker mode)")
		vendorID          = flag.String("vendor-id", "", "Restrict a kitchen worker to one vendor")
		heartbeatInterval = flag.Int("heartbeat-interval", 30, "Heartbeat interval in seconds")
		prefetch          = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": *port,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "order-service":
		err = runOrderService(ctx, cfg, log, *port)
	case "tracking-service":
		err = runTrackingService(ctx, cfg, log, *port)
	case "kitchen-worker":
		if *workerName == "" {
			log.Error("validation_failed", "worker-name is required for kitchen-worker mode", requestID, nil, nil)
			os.Exit(1)
		}
		err = runKitchenWorker(ctx, cfg, log, *workerName, *vendorID, *heartbeatInterval, *prefetch)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runOrderService runs the checkout/menu HTTP API.
func runOrderService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	publisher := messaging.NewPublisher(conn, log)
	cat := catalog.NewPostgresCatalog(db)
	repo := order.NewRepository(db)

	// Card payments are optional; without a Stripe key the cash and
	// wallet paths still work.
	var cards payment.CardSessions
	if cfg.Payment.StripeKey != "" {
		stripeCards, err := payment.NewStripeCardSessions(cfg.Payment, log)
		if err != nil {
			return fmt.Errorf("failed to configure card payments: %w", err)
		}
		cards = stripeCards
	} else {
		log.Info("card_payments_disabled", "No Stripe key configured, card checkout disabled", requestID, nil)
	}

	service := order.NewService(repo, publisher, cat, cards, log)
	handler := order.NewHandler(service, cat, log)

	return serveHTTP(ctx, log, port, "Order Service", handler.SetupRoutes())
}

// runTrackingService runs the read-only order tracking HTTP API.
func runTrackingService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	repo := order.NewRepository(db)
	cat := catalog.NewPostgresCatalog(db)

	service := tracking.NewService(repo, cat, log)
	handler := tracking.NewHandler(service, log)

	return serveHTTP(ctx, log, port, "Tracking Service", handler.SetupRoutes())
}

// runKitchenWorker runs the vendor-side kitchen workflow.
func runKitchenWorker(ctx context.Context, cfg *config.Config, log *logger.Logger, workerName, vendorID string, heartbeatInterval, prefetch int) error {
	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	queueName := messaging.KitchenQueue
	if vendorID != "" {
		queueName, err = conn.VendorQueue(vendorID)
		if err != nil {
			return fmt.Errorf("failed to set up vendor queue: %w", err)
		}
	}

	consumer := messaging.NewConsumer(conn, log, queueName, workerName, prefetch)
	publisher := messaging.NewPublisher(conn, log)
	repo := order.NewRepository(db)

	worker := kitchen.NewWorker(workerName, vendorID, time.Duration(heartbeatInterval)*time.Second,
		db, repo, consumer, publisher, log)

	return worker.Start(ctx)
}

// runNotificationSubscriber runs the status-notice consumer.
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.StatusUpdatesQueue, "notification-subscriber", 10)
	subscriber := notification.NewSubscriber(consumer, log)

	if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// serveHTTP starts an HTTP server and shuts it down when ctx is done.
func serveHTTP(ctx context.Context, log *logger.Logger, port int, name string, handler http.Handler) error {
	requestID := logger.GenerateRequestID()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	go func() {
		log.Info("service_started", fmt.Sprintf("%s started on port %d", name, port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
