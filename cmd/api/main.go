package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/vahabvahabov/silentsignals/internal/api/handlers"
	"github.com/vahabvahabov/silentsignals/internal/api/router"
	"github.com/vahabvahabov/silentsignals/internal/config"
	"github.com/vahabvahabov/silentsignals/internal/notify"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/pkg/validator"
	"github.com/vahabvahabov/silentsignals/internal/ratelimit"
	"github.com/vahabvahabov/silentsignals/internal/repository/postgres"
	"github.com/vahabvahabov/silentsignals/internal/services"
	"github.com/vahabvahabov/silentsignals/internal/worker"
	"github.com/vahabvahabov/silentsignals/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, migrations.GetFS()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database ready")

	userRepo := postgres.NewUserRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	alertRepo := postgres.NewAlertRepository(db)

	// Notification channels. The realtime channel is optional; without Redis
	// the engine still dispatches over email and SMS.
	var channels []notify.Channel
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.ErrorWithErr(err, "Redis unreachable, realtime channel disabled")
		} else {
			channels = append(channels, notify.NewRealtimeChannel(rdb, log))
		}
	}
	channels = append(channels,
		notify.NewEmailChannel(cfg.SMTP, log),
		notify.NewSmsChannel(cfg.SMS, log),
	)

	limiter := ratelimit.New(cfg.Alert.RateLimitMaxRequests, cfg.Alert.RateLimitWindow)

	userService := services.NewUserService(userRepo, log)
	contactService := services.NewContactService(contactRepo, log)
	dispatcher := services.NewDispatchService(
		userRepo, contactRepo, alertRepo, limiter, channels, cfg.Alert.ChannelTimeout, log,
	)

	reminder := worker.NewReminderScheduler(
		dispatcher, alertRepo, cfg.Alert.ReminderInterval, cfg.Alert.ReminderGracePeriod, log,
	)
	reminder.Start()
	defer reminder.Stop()

	val := validator.New()
	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db.DB, log),
		Auth:    handlers.NewAuthHandler(userService, cfg, log, val),
		Contact: handlers.NewContactHandler(contactService, log, val),
		Alert:   handlers.NewAlertHandler(dispatcher, log, val),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr":     srv.Addr,
			"channels": len(channels),
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWithErr(err, "Forced shutdown")
	}
	log.Info("Server stopped")
}
