package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbot/bot"
	"tourbot/config"
	"tourbot/cron"
	"tourbot/database"
	bookingRepo "tourbot/database/repository/booking"
	"tourbot/handlers"
	"tourbot/middleware"
	"tourbot/routes"
	"tourbot/services/booking"
	"tourbot/services/notification"
	"tourbot/utils"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tourbot: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.BotToken == "" {
		return errors.New("BOT_TOKEN is not set")
	}
	if len(cfg.AdminChatIDs) == 0 {
		logger.Warn("no operator chats configured; new bookings will only be logged")
	}

	checks := map[string]utils.Pinger{}

	// Booking store.
	var repo bookingRepo.BookingRepository
	switch cfg.StoreBackend {
	case config.StoreMongo:
		client, err := database.ConnectMongo(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		mongoRepo, err := bookingRepo.NewMongoBookingRepo(ctx, client.Database(cfg.DatabaseName), cfg.Now, logger.Named("store"))
		if err != nil {
			return err
		}
		repo = mongoRepo
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	default:
		repo = bookingRepo.NewFileBookingRepo(cfg.BookingsFile, cfg.Now, logger.Named("store"))
		checks["store"] = func(ctx context.Context) error {
			_, err := repo.ListAll(ctx)
			return err
		}
	}

	// Session table.
	var sessions booking.SessionStore
	switch cfg.SessionBackend {
	case config.SessionRedis:
		client, err := utils.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisSessionDB)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		sessions = booking.NewRedisSessionStore(client, cfg.SessionTTL)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	default:
		sessions = booking.NewMemorySessionStore(cfg.SessionTTL, cfg.Now)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	logger.Info("authorized on Telegram", zap.String("bot", api.Self.UserName))

	// Operator notifications.
	operatorNotifier, err := notification.NewOperatorNotifier(bot.NewSender(api), cfg.AdminChatIDs, logger.Named("notify"))
	if err != nil {
		return err
	}
	var notifier notification.Notifier = operatorNotifier
	var worker *cron.NotifyWorker
	if cfg.NotifyMode == config.NotifyQueue {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}
		queue := asynq.NewClient(redisOpts)
		defer func() { _ = queue.Close() }()
		notifier = notification.NewQueueNotifier(queue, cfg.AdminChatIDs, logger.Named("notify"))
		worker = cron.NewNotifyWorker(redisOpts, operatorNotifier, logger.Named("worker"))
	}

	engine := booking.NewConversationEngine(cfg.Schedule, repo, notifier, sessions, cfg.Now, logger.Named("engine"))
	tgBot := bot.New(api, engine, repo, bot.Options{
		IsOperator: cfg.IsOperator,
		Location:   cfg.TimeLocation,
		Limiter:    middleware.NewKeyedLimiter(cfg.MaxUpdatesPerMin, 10),
	}, logger.Named("bot"))

	// Operator HTTP API.
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	health := utils.NewHealthMonitor(time.Minute, checks)
	router := gin.New()
	router.Use(utils.ErrorHandler(logger.Named("http")))
	routes.RegisterRoutes(router,
		handlers.NewHandlerBundle(repo, health, logger.Named("http")),
		middleware.RateLimitMiddleware(middleware.NewKeyedLimiter(600, 50), logger),
		cfg.IsOperator)
	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return tgBot.Run(ctx)
	})

	g.Go(func() error {
		return health.Run(ctx)
	})

	if worker != nil {
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}

	g.Go(func() error {
		logger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("shut down")
	return err
}
