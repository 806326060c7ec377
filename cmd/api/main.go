package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jkemboi/maziwa-backend/api/routes"
	"github.com/jkemboi/maziwa-backend/internal/accounts"
	"github.com/jkemboi/maziwa-backend/internal/advances"
	"github.com/jkemboi/maziwa-backend/internal/farmers"
	"github.com/jkemboi/maziwa-backend/internal/importer"
	"github.com/jkemboi/maziwa-backend/internal/milk"
	"github.com/jkemboi/maziwa-backend/internal/reports"
	"github.com/jkemboi/maziwa-backend/internal/sequence"
	"github.com/jkemboi/maziwa-backend/internal/subscriptions"
	"github.com/jkemboi/maziwa-backend/internal/tenant"
	"github.com/jkemboi/maziwa-backend/pkg/config"
	"github.com/jkemboi/maziwa-backend/pkg/db"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
	"github.com/jkemboi/maziwa-backend/pkg/migrate"
	"github.com/jkemboi/maziwa-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (routes.Services, error) {
	gdb := dbClient.DB()

	accountsRepo := accounts.NewRepository(gdb)
	subscriptionsRepo := subscriptions.NewRepository(gdb)
	farmersRepo := farmers.NewRepository(gdb)
	milkRepo := milk.NewRepository(gdb)
	advancesRepo := advances.NewRepository(gdb)
	sequenceRepo := sequence.NewRepository(gdb)

	subscriptionsSvc, err := subscriptions.NewService(subscriptionsRepo, logg, subscriptions.Policy{
		TrialDays:         cfg.Billing.TrialDays,
		ExpiryWarningDays: cfg.Billing.ExpiryWarningDays,
	})
	if err != nil {
		return routes.Services{}, err
	}
	accountsSvc, err := accounts.NewService(accountsRepo, subscriptionsSvc)
	if err != nil {
		return routes.Services{}, err
	}
	tenantSvc, err := tenant.NewService(accountsRepo)
	if err != nil {
		return routes.Services{}, err
	}
	farmersSvc, err := farmers.NewService(farmersRepo, sequenceRepo, accountsSvc, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	milkSvc, err := milk.NewService(milkRepo, farmersRepo, sequenceRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	advancesSvc, err := advances.NewService(advancesRepo, farmersRepo, sequenceRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	reportsSvc, err := reports.NewService(milkRepo, advancesRepo, farmersRepo)
	if err != nil {
		return routes.Services{}, err
	}
	importerSvc, err := importer.NewService(farmersSvc, milkSvc)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Accounts:      accountsSvc,
		Subscriptions: subscriptionsSvc,
		Tenant:        tenantSvc,
		Farmers:       farmersSvc,
		Milk:          milkSvc,
		Advances:      advancesSvc,
		Reports:       reportsSvc,
		Importer:      importerSvc,
	}, nil
}
