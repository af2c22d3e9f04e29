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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SHANICERUGURU/finalcapstone/internal/config"
	"github.com/SHANICERUGURU/finalcapstone/internal/domain/account"
	"github.com/SHANICERUGURU/finalcapstone/internal/domain/identity"
	"github.com/SHANICERUGURU/finalcapstone/internal/domain/scheduling"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/auth"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/db"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/middleware"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/outbox"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/telemetry"
)

const serviceName = "clinic-server"

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Clinic appointment API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			dir := migrationsDir(cmd, cfg)
			fmt.Printf("Running migrations from %s on schema: %s\n", dir, cfg.DBSchema)
			count, err := db.NewMigrator(pool, dir, cfg.DBSchema).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationsDir(cmd, cfg), cfg.DBSchema).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", cfg.DBSchema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func migrationsDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return cfg.MigrationsDir
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createAdmin := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger(cfg.Env)
			revoker := auth.NewTokenRevocationStore()
			defer revoker.Close()

			accounts := account.NewService(
				account.NewUserRepoPG(pool),
				auth.NewTokenIssuer(cfg.AuthIssuer, []byte(cfg.AuthSigningKey), cfg.AuthTokenTTL),
				revoker,
				db.NewTransactor(pool),
				eventRecorder(cfg, pool, logger),
			)
			u, err := accounts.CreateAdmin(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %q (id %d).\n", u.Username, u.ID)
			return nil
		},
	}
	createAdmin.Flags().String("username", "", "Admin username")
	createAdmin.Flags().String("email", "", "Admin email")
	createAdmin.Flags().String("password", "", "Admin password")

	cmd.AddCommand(createAdmin)
	return cmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBSchema)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// newRedis returns nil when REDIS_URL is unset or unreachable; callers fall
// back to in-process stores.
func newRedis(ctx context.Context, url string, logger zerolog.Logger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL, running without redis")
		return nil
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, running without redis")
		client.Close()
		return nil
	}
	logger.Info().Msg("connected to redis")
	return client
}

// eventRecorder writes domain events to the outbox when Kafka is configured
// and to the log otherwise.
func eventRecorder(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) outbox.Recorder {
	if cfg.KafkaEnabled() {
		return outbox.NewRepository(pool)
	}
	return outbox.LogRecorder{Logger: logger}
}

// services are the collaborators newServer mounts.
type services struct {
	accounts   *account.Service
	identity   *identity.Service
	scheduling *scheduling.Service
	revoker    auth.Revoker
	limiter    middleware.Limiter
	pool       *pgxpool.Pool
}

func newServer(cfg *config.Config, logger zerolog.Logger, svc services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	// /api/patients/ and /api/patients are the same route.
	e.Pre(echomw.RemoveTrailingSlash())

	rl := middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))

	// Auth middleware
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		SigningKey: []byte(cfg.AuthSigningKey),
		Revoker:    svc.revoker,
		Skipper:    auth.AuthSkipper,
	}))
	e.Use(access.Middleware(svc.identity))
	e.Use(middleware.RateLimit(svc.limiter, rl, logger))

	// Audit middleware
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(svc.pool))

	api := e.Group("/api")
	site := e.Group("")

	account.NewHandler(svc.accounts).RegisterRoutes(api)
	identity.NewHandler(svc.identity).RegisterRoutes(api, site)
	scheduling.NewHandler(svc.scheduling).RegisterRoutes(api)

	return e
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logger
	logger := newLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRatio:    cfg.OTelSamplingRatio,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBSchema)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Revocation and rate limiting are shared through redis when available.
	rl := middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	var (
		revoker auth.Revoker
		limiter middleware.Limiter
	)
	if rdb := newRedis(ctx, cfg.RedisURL, logger); rdb != nil {
		defer rdb.Close()
		revoker = auth.NewRedisRevocationStore(rdb, "clinic:revoked")
		limiter = middleware.NewRedisLimiter(rdb, rl, "clinic:ratelimit")
	} else {
		store := auth.NewTokenRevocationStore()
		defer store.Close()
		revoker = store
		limiter = middleware.NewMemoryLimiter(rl)
	}

	// Domain events
	events := eventRecorder(cfg, pool, logger)
	if cfg.KafkaEnabled() {
		publisher := outbox.NewPublisher(pool, outbox.NewRepository(pool), logger, outbox.PublisherConfig{
			Brokers:     cfg.KafkaBrokers,
			TopicPrefix: cfg.KafkaTopicPrefix,
		})
		go publisher.Run(ctx)
	}

	tx := db.NewTransactor(pool)
	tokens := auth.NewTokenIssuer(cfg.AuthIssuer, []byte(cfg.AuthSigningKey), cfg.AuthTokenTTL)

	accountSvc := account.NewService(account.NewUserRepoPG(pool), tokens, revoker, tx, events)
	identitySvc := identity.NewService(
		identity.NewPatientRepoPG(pool),
		identity.NewDoctorRepoPG(pool),
		identity.NewActorRepoPG(pool),
		accountSvc,
	)
	schedulingSvc := scheduling.NewService(
		scheduling.NewAppointmentRepoPG(pool),
		identitySvc,
		scheduling.NewStatusSet(cfg.AppointmentStatuses),
		cfg.DefaultAppointmentStatus,
		tx,
		events,
	)

	e := newServer(cfg, logger, services{
		accounts:   accountSvc,
		identity:   identitySvc,
		scheduling: schedulingSvc,
		revoker:    revoker,
		limiter:    limiter,
		pool:       pool,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           telemetry.WrapHandler(e, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
