package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/tanmaysahni/splitbook/docs"
	"github.com/tanmaysahni/splitbook/internal/activity"
	"github.com/tanmaysahni/splitbook/internal/balance"
	"github.com/tanmaysahni/splitbook/internal/book"
	"github.com/tanmaysahni/splitbook/internal/config"
	"github.com/tanmaysahni/splitbook/internal/database"
	"github.com/tanmaysahni/splitbook/internal/expense"
	"github.com/tanmaysahni/splitbook/internal/expense/split"
	"github.com/tanmaysahni/splitbook/internal/export"
	"github.com/tanmaysahni/splitbook/internal/group"
	"github.com/tanmaysahni/splitbook/internal/notification"
	"github.com/tanmaysahni/splitbook/internal/settlement"
	"github.com/tanmaysahni/splitbook/internal/user"
	"github.com/tanmaysahni/splitbook/pkg/logging"
	"github.com/tanmaysahni/splitbook/pkg/metrics"
	mw "github.com/tanmaysahni/splitbook/pkg/middleware"
	"github.com/tanmaysahni/splitbook/pkg/tokencache"
)

// @title           Splitbook API
// @version         1.0
// @description     Expense splitting and balance netting service.
// @BasePath        /api/v1
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	metrics.Init()

	splitFactory := split.NewFactory()
	exportStore := tokencache.New(cfg.ExportTTL)

	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	activityRepo := activity.NewRepository(db)
	groupRepo := group.NewRepository(db, activityRepo)
	activityService := activity.NewService(activityRepo, groupRepo)
	activityHandler := activity.NewHandler(activityService)

	groupService := group.NewService(groupRepo, userRepo, activityService, notificationService, cfg.DefaultCurrency)
	groupHandler := group.NewHandler(groupService)

	expenseRepo := expense.NewRepository(db, activityRepo)
	expenseService := expense.NewService(expenseRepo, splitFactory, userRepo, groupService,
		activityService, notificationService, cfg.DefaultCurrency)
	expenseHandler := expense.NewHandler(expenseService)

	expenseExists := func(ctx context.Context, id int64) (bool, error) {
		e, err := expenseRepo.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		return e != nil, nil
	}

	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, userRepo, expenseExists,
		activityService, notificationService, cfg.DefaultCurrency)
	settlementHandler := settlement.NewHandler(settlementService)

	balanceRepo := balance.NewRepository(db)
	balanceService := balance.NewService(balanceRepo, cfg.DefaultCurrency)
	balanceHandler := balance.NewHandler(balanceService)

	bookRepo := book.NewRepository(db)
	bookService := book.NewService(bookRepo, cfg.DefaultCurrency)
	bookHandler := book.NewHandler(bookService)

	exportService := export.NewService(groupService, expenseService, balanceService, exportStore)
	exportHandler := export.NewHandler(exportService)

	// Expired report sweeper. The cache reaps lazily on access; this keeps
	// abandoned reports from piling up between downloads.
	go func() {
		ticker := time.NewTicker(cfg.ExportTTL / 2)
		defer ticker.Stop()
		for range ticker.C {
			if removed := exportStore.Sweep(); removed > 0 {
				slog.Debug("swept expired export reports", "removed", removed)
			}
		}
	}()

	auth := mw.TestUser
	if cfg.JWTSecret != "" {
		auth = mw.Auth(cfg.JWTSecret)
	} else {
		slog.Warn("JWT_SECRET not set, running with the test-user middleware")
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)

		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
		r.Mount("/balances", balanceHandler.Routes())
		r.Mount("/activities", activityHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
		r.Mount("/books", bookHandler.Routes())
		r.Mount("/export", exportHandler.Routes())
	})

	slog.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
