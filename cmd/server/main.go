package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fitsched/internal/api"
	"fitsched/internal/calendar"
	"fitsched/internal/config"
	"fitsched/internal/database"
	"fitsched/internal/events"
	"fitsched/internal/metrics"
	"fitsched/internal/notify"
	"fitsched/internal/reports"
	"fitsched/internal/service"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("FITSCHED_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	bookings := service.NewBookingService(db, bus, &logger, cfg.Booking.AllowedDurations, cfg.Booking.DefaultTimezone)
	subs := service.NewSubscriptionService(db, bus, &logger)
	rep := reports.NewGenerator(db)

	// Notification channels
	senders := []notify.Sender{notify.NewLogSender(&logger)}

	var rdb *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		senders = append(senders, notify.NewRedisPublisher(rdb, cfg.Redis.Channel))
	}

	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram bot error")
		}
		bot.Debug = cfg.Telegram.Debug
		resolver := func(ctx context.Context, recipientID string) (int64, error) {
			settings, err := db.GetTrainerSettings(ctx, recipientID)
			if err != nil {
				return 0, err
			}
			return settings.TelegramChatID, nil
		}
		senders = append(senders, notify.NewTelegramSender(bot, resolver))
	}

	dispatcher := notify.NewDispatcher(notify.Config{
		RatePerSecond: cfg.Notifications.RatePerSecond,
		Burst:         cfg.Notifications.Burst,
		QueueSize:     cfg.Notifications.QueueSize,
	}, &logger, senders...)
	dispatcher.Attach(bus)
	go dispatcher.Run(ctx)

	if cfg.GoogleCalendar.Enabled {
		mirror, err := calendar.NewService(ctx, cfg.GoogleCalendar.CredentialsFile, cfg.GoogleCalendar.CalendarID, db, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("calendar sync disabled")
		} else {
			mirror.Attach(bus)
			go mirror.Run(ctx)
			logger.Info().Str("calendar_id", cfg.GoogleCalendar.CalendarID).Msg("calendar sync enabled")
		}
	}

	backup := database.NewBackupService(cfg.Database.Path, cfg.BackupConfig(), &logger)
	go backup.Start(ctx)

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(bookings, subs, rep, &logger, cfg.Server.APIKey)
	go func() {
		<-ctx.Done()
		_ = server.Shutdown()
	}()

	logger.Info().Msg("scheduling engine started")
	if err := server.Start(cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
