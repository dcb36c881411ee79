package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/auth"
	"github.com/ahburgess22/expense-tracker/internal/config"
	"github.com/ahburgess22/expense-tracker/internal/http/handlers"
	"github.com/ahburgess22/expense-tracker/internal/http/middlewares"
	"github.com/ahburgess22/expense-tracker/internal/observability"
	"github.com/ahburgess22/expense-tracker/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterDeps carries everything the router wires together; nothing here is a
// process-wide singleton.
type RouterDeps struct {
	Log          *slog.Logger
	Pool         *pgxpool.Pool
	Cfg          config.Config
	JWT          *auth.Manager
	LimiterStore middlewares.CounterStore
	MetricsReg   *prometheus.Registry
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("expense-tracker"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	// repos skip metrics when no registry is given (tests)
	var prom *observability.Prom

	if deps.MetricsReg != nil {
		prom = observability.NewProm(deps.MetricsReg)
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsReg, promhttp.HandlerOpts{})))
	}

	// health
	ping := func() error {
		if deps.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/", health.Home)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(deps.Pool, prom)
	expensesRepo := postgres.NewExpensesRepo(deps.Pool, prom)
	budgetsRepo := postgres.NewBudgetsRepo(deps.Pool, prom)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, deps.JWT)
	expensesHandler := handlers.NewExpensesHandler(expensesRepo)
	budgetHandler := handlers.NewBudgetHandler(budgetsRepo, expensesRepo)
	usersHandler := handlers.NewUsersHandler(usersRepo)

	// login/register get throttled per client IP
	limiter := middlewares.NewRateLimiter(deps.Cfg.AuthRateLimit, deps.Cfg.AuthRateWindow, deps.LimiterStore)

	authRoutes := r.Group("/auth")
	authRoutes.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)

	// every ledger and budget route sits behind the bearer gate
	gate := middlewares.NewAuthMiddleware(deps.JWT)

	protected := r.Group("/")
	protected.Use(gate.RequireAuth())
	protected.POST("/expenses", expensesHandler.AddExpense)
	protected.GET("/expenses", expensesHandler.ListExpenses)
	protected.GET("/expenses/:id", expensesHandler.GetExpense)
	protected.PUT("/expenses/:id", expensesHandler.UpdateExpense)
	protected.DELETE("/expenses/:id", expensesHandler.DeleteExpense)
	protected.POST("/budget", budgetHandler.UpsertBudget)
	protected.GET("/budget", budgetHandler.GetBudget)

	// operator tooling routes
	r.GET("/users", usersHandler.ListUsers)
	r.DELETE("/users/:email", usersHandler.DeleteUser)

	return r
}
