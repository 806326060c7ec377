package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkemboi/maziwa-backend/api/controllers"
	webhookcontrollers "github.com/jkemboi/maziwa-backend/api/controllers/webhooks"
	"github.com/jkemboi/maziwa-backend/api/middleware"
	"github.com/jkemboi/maziwa-backend/internal/accounts"
	"github.com/jkemboi/maziwa-backend/internal/advances"
	"github.com/jkemboi/maziwa-backend/internal/farmers"
	"github.com/jkemboi/maziwa-backend/internal/importer"
	"github.com/jkemboi/maziwa-backend/internal/milk"
	"github.com/jkemboi/maziwa-backend/internal/reports"
	"github.com/jkemboi/maziwa-backend/internal/subscriptions"
	"github.com/jkemboi/maziwa-backend/internal/tenant"
	"github.com/jkemboi/maziwa-backend/pkg/config"
	"github.com/jkemboi/maziwa-backend/pkg/db"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
	"github.com/jkemboi/maziwa-backend/pkg/metrics"
	"github.com/jkemboi/maziwa-backend/pkg/redis"
)

// Services bundles the wired domain services the router exposes.
type Services struct {
	Accounts      *accounts.Service
	Subscriptions *subscriptions.Service
	Tenant        *tenant.Service
	Farmers       *farmers.Service
	Milk          *milk.Service
	Advances      *advances.Service
	Reports       *reports.Service
	Importer      *importer.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(),
		middleware.CORS(),
	)

	admin := string(enums.RoleAdmin)
	staff := string(enums.RoleStaff)
	farmer := string(enums.RoleFarmer)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbClient, redisClient, logg))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/register", controllers.AuthRegister(svcs.Accounts, dbClient, cfg.JWT, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Accounts, cfg.JWT, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/mpesa", webhookcontrollers.MpesaCallback(svcs.Subscriptions, redisClient, cfg.Billing, logg))
		if !cfg.App.IsProd() {
			r.Post("/mpesa/mock", webhookcontrollers.MpesaMockPay(svcs.Subscriptions, logg))
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		// Billing endpoints stay reachable after expiry so the admin can renew.
		r.Route("/subscription", func(r chi.Router) {
			r.Use(middleware.RequireRole(admin, logg))
			r.Get("/status", controllers.SubscriptionsStatus(svcs.Subscriptions, logg))
			r.Post("/", controllers.SubscriptionsSubscribe(svcs.Subscriptions, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.SubscriptionGate(svcs.Tenant, svcs.Subscriptions, logg))

			r.Route("/farmers", func(r chi.Router) {
				r.With(middleware.RequireRole(admin, logg)).Post("/", controllers.FarmersCreate(svcs.Farmers, logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Get("/", controllers.FarmersList(svcs.Farmers, logg))
				r.With(middleware.RequireRole(admin, logg)).Post("/import", controllers.FarmersImport(svcs.Importer, logg))
				r.With(middleware.RequireRole(admin, logg)).Post("/bulk", controllers.FarmersBulk(svcs.Importer, logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Get("/template", controllers.FarmersTemplate(logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Get("/export", controllers.FarmersExport(svcs.Farmers, logg))
				r.With(middleware.RequireRoles(logg, admin, staff, farmer)).Get("/{id}", controllers.FarmersGet(svcs.Farmers, logg))
				r.With(middleware.RequireRole(admin, logg)).Put("/{id}", controllers.FarmersUpdate(svcs.Farmers, logg))
				r.With(middleware.RequireRole(admin, logg)).Patch("/{id}", controllers.FarmersUpdate(svcs.Farmers, logg))
				r.With(middleware.RequireRole(admin, logg)).Delete("/{id}", controllers.FarmersDelete(svcs.Farmers, logg))
			})

			r.Route("/milk", func(r chi.Router) {
				r.With(middleware.RequireRoles(logg, admin, staff)).Post("/", controllers.MilkCreate(svcs.Milk, logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Get("/", controllers.MilkList(svcs.Milk, logg))
				r.With(middleware.RequireRole(farmer, logg)).Get("/my", controllers.MilkMine(svcs.Milk, logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Post("/import", controllers.MilkImport(svcs.Importer, logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Post("/bulk", controllers.MilkBulk(svcs.Importer, logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Get("/template", controllers.MilkTemplate(logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Get("/export", controllers.MilkExport(svcs.Milk, logg))
				r.With(middleware.RequireRole(admin, logg)).Delete("/{id}", controllers.MilkDelete(svcs.Milk, logg))
			})

			r.Route("/advances", func(r chi.Router) {
				r.With(middleware.RequireRole(admin, logg)).Post("/", controllers.AdvancesCreate(svcs.Advances, logg))
				r.With(middleware.RequireRoles(logg, admin, staff)).Get("/", controllers.AdvancesList(svcs.Advances, logg))
				r.With(middleware.RequireRole(farmer, logg)).Get("/my", controllers.AdvancesMine(svcs.Advances, logg))
				r.With(middleware.RequireRoles(logg, admin, staff, farmer)).Get("/{farmerId}", controllers.AdvancesForFarmer(svcs.Advances, logg))
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, admin, staff))
				r.Get("/daily-collections", controllers.ReportsDaily(svcs.Reports, logg))
				r.Get("/monthly-collections", controllers.ReportsMonthly(svcs.Reports, logg))
				r.Get("/farmer-wise", controllers.ReportsFarmerWise(svcs.Reports, logg))
				r.Get("/farmer-wise/{farmerId}", controllers.ReportsFarmerStatement(svcs.Reports, logg))
			})

			r.Route("/summary", func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, admin, staff))
				r.Get("/monthly", controllers.ReportsSummary(svcs.Reports, logg))
				r.Get("/monthly/region", controllers.ReportsRegionSummary(svcs.Reports, logg))
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Use(middleware.RequireRole(admin, logg))
				r.Get("/", controllers.AccountsList(svcs.Accounts, logg))
				r.Post("/", controllers.AccountsCreate(svcs.Accounts, dbClient, logg))
				r.Delete("/{id}", controllers.AccountsDelete(svcs.Accounts, logg))
			})
		})
	})

	return r
}
