package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/sparktechagency/Mobile-Repair/internal/config"
	"github.com/sparktechagency/Mobile-Repair/internal/messaging/kafka"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/mongodb"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/redis"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/email"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	mongorepo "github.com/sparktechagency/Mobile-Repair/internal/repository/mongodb"
	redisrepo "github.com/sparktechagency/Mobile-Repair/internal/repository/redis"
	"github.com/sparktechagency/Mobile-Repair/internal/service"
	transport "github.com/sparktechagency/Mobile-Repair/internal/transport/http"
	"github.com/sparktechagency/Mobile-Repair/internal/transport/http/handlers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewServiceLogger(cfg.Observability.ServiceName, cfg.Observability.ServiceVersion, cfg.Observability.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Data stores
	mongoConn, err := mongodb.NewConnection(mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		QueryTimeout:   cfg.Mongo.QueryTimeout,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		MinPoolSize:    cfg.Mongo.MinPoolSize,
		MaxIdleTime:    cfg.Mongo.MaxIdleTime,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer mongoConn.Close()

	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB

	redisConn, err := redis.NewConnection(redisCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisConn.Close()

	// Repositories
	orderRepo := mongorepo.NewOrderRepository(mongoConn, logger)
	userRepo := mongorepo.NewUserRepository(mongoConn, logger)
	notificationRepo := mongorepo.NewNotificationRepository(mongoConn, logger)
	unreadCounter := redisrepo.NewUnreadCounter(redisConn, logger)

	for name, ensure := range map[string]func(context.Context) error{
		"orders":        orderRepo.EnsureIndexes,
		"users":         userRepo.EnsureIndexes,
		"notifications": notificationRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			// Indexes can be created out of band; keep starting
			logger.Warn(ctx, "Failed to ensure indexes", map[string]interface{}{
				"collection": name,
				"error":      err.Error(),
			})
		}
	}

	// Messaging
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, cfg.Kafka.OrderEventsTopic, cfg.Kafka.ProducerRetries, logger)
	if err != nil {
		return fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	defer producer.Close()

	// Services
	tracer := otel.Tracer(cfg.Observability.ServiceName)
	mailer := email.NewSMTPMailer(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger)

	notificationService := service.NewNotificationService(notificationRepo, unreadCounter, producer, logger, tracer)
	orderService := service.NewOrderService(orderRepo, userRepo, notificationService, mailer, producer, logger, tracer)
	userService := service.NewUserService(userRepo, notificationService, mailer, logger, tracer)
	statsService := service.NewStatsService(orderRepo, userRepo, logger, tracer)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger, tracer)

	// Transport
	healthServer := transport.NewHealthServer(mongoConn, redisConn, cfg.Observability.ServiceName, cfg.Observability.ServiceVersion, logger)
	server := transport.NewServer(cfg.Server, cfg.Observability, transport.Handlers{
		Auth:          handlers.NewAuthHandler(authService, userService, logger),
		Orders:        handlers.NewOrderHandler(orderService, logger),
		Users:         handlers.NewUserHandler(userService, logger),
		Stats:         handlers.NewStatsHandler(statsService, logger),
		Notifications: handlers.NewNotificationHandler(notificationService, logger),
		Health:        healthServer,
	}, authService, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	logger.Info(ctx, "Service started", map[string]interface{}{
		"port":    cfg.Server.Port,
		"version": cfg.Observability.ServiceVersion,
	})

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info(nil, "Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	logger.Info(nil, "Service stopped")
	return nil
}
