package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/handlers"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/scheduler"
	"fintrack/internal/service"
	"fintrack/internal/service/mock"
	"fintrack/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// Select backend
	svc, creds, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend")
	}
	defer closeBackend()

	collector := metrics.NewCollector("fintrack")
	root := store.New(svc,
		store.WithLogger(log.Logger),
		store.WithTimeout(cfg.OperationTimeout),
		store.WithObserver(collector),
	)

	if err := signIn(ctx, root, creds, cfg.Currency); err != nil {
		log.Fatal().Err(err).Str("email", creds.Email).Msg("failed to log in")
	}
	preload(ctx, root)

	// Create Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Telegram bot")
	}
	bot.Debug = false
	log.Info().Str("bot", bot.Self.UserName).Msg("bot started")

	events := handlers.NewEventHandler(handlers.Deps{
		Bot:     bot,
		Store:   root,
		Config:  cfg,
		Log:     log.Logger,
		Metrics: collector,
	})
	events.WatchErrors(ctx)

	sched := scheduler.New(scheduler.WithLogger(log.Logger), scheduler.WithRecorder(collector))
	jobs := []struct {
		name, spec string
		job        scheduler.Job
	}{
		{"monthly report", "0 9 1 * *", events.Commands().MonthlyReport},
		{"session refresh", "@every 10m", root.Auth.Refresh},
		{"quote refresh", "@every 15m", func(ctx context.Context) error {
			_, err := root.Investments.RefreshPrices(ctx)
			return err
		}},
	}
	for _, j := range jobs {
		if err := sched.Add(j.name, j.spec, j.job); err != nil {
			log.Fatal().Err(err).Msg("failed to add cron job")
		}
	}
	sched.Start()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	// Start listening for updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	log.Info().Msg("bot is running")
	events.Run(ctx, updates)

	log.Info().Msg("shutting down bot")
	bot.StopReceivingUpdates()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	if err := root.Auth.Logout(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("logout failed")
	}
}

// openBackend returns the configured services, the credentials to log in with
// and a function releasing the backend.
func openBackend(ctx context.Context, cfg *config.Config) (service.Services, models.Credentials, func(), error) {
	creds := models.Credentials{Email: cfg.Email, Password: cfg.Password}

	switch cfg.Backend {
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		db, err := database.New(connectCtx, cfg.MongoURI, cfg.MongoDB,
			database.WithIssuer(auth.NewIssuer(cfg.JWTSecret)),
			database.WithLogger(log.Logger),
		)
		if err != nil {
			return service.Services{}, creds, nil, err
		}
		release := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Close(closeCtx); err != nil {
				log.Warn().Err(err).Msg("failed to close MongoDB")
			}
		}
		return db.Services(), creds, release, nil

	default:
		opts := []mock.Option{mock.WithLatency(cfg.MockLatency)}
		if cfg.JWTSecret != "" {
			opts = append(opts, mock.WithIssuer(auth.NewIssuer(cfg.JWTSecret)))
		}
		backend := mock.New(opts...)
		if cfg.Seed {
			if err := backend.Seed(); err != nil {
				return service.Services{}, creds, nil, err
			}
			if creds.Email == "" {
				creds = models.Credentials{Email: mock.DemoEmail, Password: mock.DemoPassword}
			}
		}
		log.Info().Bool("seeded", cfg.Seed).Msg("using in-memory backend")
		return backend.Services(), creds, func() {}, nil
	}
}

// signIn logs in, registering the account on first use.
func signIn(ctx context.Context, root *store.Root, creds models.Credentials, currency string) error {
	_, err := root.Auth.Login(ctx, creds)
	if !errors.Is(err, service.ErrInvalidCredentials) {
		return err
	}
	log.Info().Str("email", creds.Email).Msg("account not found, registering")
	_, err = root.Auth.Register(ctx, models.Registration{
		Email:           creds.Email,
		Password:        creds.Password,
		ConfirmPassword: creds.Password,
		FirstName:       "Fintrack",
		LastName:        "User",
		Currency:        currency,
	})
	if errors.Is(err, service.ErrConflict) {
		// the account exists, so the password was wrong
		return service.ErrInvalidCredentials
	}
	return err
}

// preload fills every store once so the first commands answer from state.
func preload(ctx context.Context, root *store.Root) {
	loads := map[string]func(context.Context) error{
		"transactions": root.Transactions.Fetch,
		"budgets":      root.Budgets.Fetch,
		"goals":        root.Budgets.FetchGoals,
		"investments":  root.Investments.Fetch,
		"profile": func(ctx context.Context) error {
			_, err := root.Auth.LoadProfile(ctx)
			return err
		},
	}
	for name, load := range loads {
		if err := load(ctx); err != nil {
			log.Warn().Err(err).Str("store", name).Msg("initial load failed")
		}
	}
}
