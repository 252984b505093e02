package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/agency-dashboard/api"
	"github.com/frahmantamala/agency-dashboard/internal"
	"github.com/frahmantamala/agency-dashboard/internal/access"
	accessPostgres "github.com/frahmantamala/agency-dashboard/internal/access/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/audit"
	auditPostgres "github.com/frahmantamala/agency-dashboard/internal/audit/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/auth"
	authPostgres "github.com/frahmantamala/agency-dashboard/internal/auth/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/client"
	clientPostgres "github.com/frahmantamala/agency-dashboard/internal/client/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/cron"
	"github.com/frahmantamala/agency-dashboard/internal/cryptobox"
	"github.com/frahmantamala/agency-dashboard/internal/csrf"
	"github.com/frahmantamala/agency-dashboard/internal/integration"
	integrationPostgres "github.com/frahmantamala/agency-dashboard/internal/integration/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/metrics"
	"github.com/frahmantamala/agency-dashboard/internal/session"
	sessionPostgres "github.com/frahmantamala/agency-dashboard/internal/session/postgres"
	"github.com/frahmantamala/agency-dashboard/internal/transport"
	"github.com/frahmantamala/agency-dashboard/internal/transport/rest"
	"github.com/frahmantamala/agency-dashboard/internal/user"
	userPostgres "github.com/frahmantamala/agency-dashboard/internal/user/postgres"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	Box      *cryptobox.Box
	Sessions *session.Manager
	Audit    *audit.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "session_store", deps.Config.Session.Store)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)

	csrfGuard := csrf.NewGuard(deps.Sessions, deps.Audit, lg)
	accessController := access.NewController(accessPostgres.NewAccessRepository(deps.DB), deps.Audit, lg)
	cronGuard := cron.NewGuard(deps.Config.Security.CronKey, deps.Audit, lg)

	authService := auth.NewService(authPostgres.NewRepository(deps.GormDB), deps.Config.Security.BCryptCost, lg)
	userService := user.NewService(userPostgres.NewUserRepository(deps.GormDB), lg)
	clientService := client.NewService(clientPostgres.NewClientRepository(deps.GormDB), lg)
	integrationService := integration.NewService(integrationPostgres.NewIntegrationRepository(deps.GormDB), deps.Box, lg)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, rest.Handlers{
		Auth:        auth.NewHandler(base, authService, deps.Sessions, csrfGuard, deps.Audit),
		User:        user.NewHandler(base, userService),
		Client:      client.NewHandler(base, clientService, deps.Audit),
		Integration: integration.NewHandler(base, integrationService, deps.Audit),
		Cron:        cron.NewHandler(base, deps.Sessions),
	}, rest.Guards{
		Sessions: deps.Sessions,
		CSRF:     csrfGuard,
		Access:   accessController,
		Cron:     cronGuard,
	}, rest.Options{
		TrustProxy:     deps.Config.Session.TrustProxy,
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		MetricsEnabled: deps.Config.Observability.Metrics.Enabled,
		MetricsPath:    deps.Config.Observability.Metrics.Path,
	}, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(config)
	lg := logger.LoggerWrapper()

	if _, err := api.Load(context.Background()); err != nil {
		return nil, err
	}

	// An unusable master key must stop the process before it serves traffic.
	box, err := cryptobox.New(config.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGormDB(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	var store session.Store
	switch config.Session.Store {
	case "memory":
		lg.Warn("using in-memory session store; sessions do not survive restarts")
		store = session.NewMemoryStore()
	default:
		store = sessionPostgres.NewSessionStore(db)
	}

	auditSvc := audit.NewService(auditPostgres.NewAuditRepository(gormDB), lg)

	sessions := session.NewManager(store, session.Config{
		CookieName:   config.Session.CookieName,
		CookieDomain: config.Session.CookieDomain,
		TTL:          config.Session.TTL,
		TrustProxy:   config.Session.TrustProxy,
	}, auditSvc, lg)

	if config.Observability.Metrics.Enabled {
		metrics.Init()
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		GormDB:   gormDB,
		Router:   chi.NewRouter(),
		Box:      box,
		Sessions: sessions,
		Audit:    auditSvc,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGormDB shares the sqlx pool with gorm so both see one set of
// connections.
func initGormDB(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
