package main

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"savings-tracker/internal/amqp"
	"savings-tracker/internal/config"
	"savings-tracker/internal/handlers"
	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/services"
	"savings-tracker/internal/storage"
	"savings-tracker/internal/worker"
	"savings-tracker/web"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentApp, Output: os.Stdout})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accounts := services.NewAccountService(db, logger)
	if cfg.HasSeedUser() {
		created, err := accounts.EnsureSeedUser(ctx, models.RegisterInput{
			Name:        cmp.Or(cfg.AdminName, "Admin"),
			Email:       cfg.AdminEmail,
			AccountType: models.AccountIndependent,
			Password:    cfg.AdminPassword,
		})
		if err != nil {
			logger.Error("Failed to create seed user", log.FieldError, err)
			os.Exit(1)
		}
		if created {
			logger.Info("Seed user created", "email", cfg.AdminEmail)
		}
	}

	var publisher services.LedgerPublisher
	if cfg.MessagingEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Ledger events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
	}

	reports := services.NewReportAggregator(db, cfg.ReportMinYear, logger)
	h := handlers.NewHandlers(handlers.Config{
		DB: db,
		Services: handlers.Services{
			Accounts:      accounts,
			Ledger:        services.NewLedgerService(db, publisher, logger),
			Goals:         services.NewGoalEngine(db, logger),
			Notifications: services.NewNotificationEngine(db, logger),
			Reports:       reports,
		},
		Templates:       web.Templates(),
		SecureCookie:    cfg.SecureCookie,
		SessionDuration: cfg.SessionDuration,
		Logger:          logger,
	})

	// The report worker purges sessions when messaging is on.
	if !cfg.MessagingEnabled() {
		refresher := worker.NewReportRefresher(db, reports, logger)
		go func() {
			if err := refresher.RunSessionPurge(ctx, cfg.SessionPurgeInterval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Session purge stopped", log.FieldError, err)
			}
		}()
	}

	mux := setupRouter(h, web.Static())
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        log.Middleware(logger)(handlers.SecurityHeaders(mux)),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting savings tracker", "port", cfg.Port, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func setupRouter(h *handlers.Handlers, static fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /healthz", h.Healthz)

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /logout", h.Logout)

	protected := func(f http.HandlerFunc) http.Handler { return h.AuthMiddleware(f) }
	mux.Handle("GET /{$}", protected(h.Home))
	mux.Handle("GET /income", protected(h.IncomeList))
	mux.Handle("POST /income", protected(h.CreateIncome))
	mux.Handle("GET /expenses", protected(h.ExpenseList))
	mux.Handle("POST /expenses", protected(h.CreateExpense))
	mux.Handle("GET /goals", protected(h.Goals))
	mux.Handle("POST /goals", protected(h.CreateGoal))
	mux.Handle("POST /goals/{id}/contribute", protected(h.Contribute))
	mux.Handle("POST /goals/{id}/delete", protected(h.DeleteGoal))
	mux.Handle("GET /notifications", protected(h.Notifications))
	mux.Handle("GET /reports", protected(h.Reports))
	mux.Handle("POST /reports", protected(h.GenerateReport))
	mux.Handle("GET /account", protected(h.Account))
	mux.Handle("POST /account/password", protected(h.ChangePassword))

	return mux
}
