package main

import (
	"context"
	"fmt"
	"io"
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

	"github.com/odonto/clinic/internal/config"
	"github.com/odonto/clinic/internal/domain/appointment"
	"github.com/odonto/clinic/internal/domain/attendance"
	"github.com/odonto/clinic/internal/domain/cid"
	"github.com/odonto/clinic/internal/domain/dentist"
	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/domain/payment"
	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/domain/record"
	"github.com/odonto/clinic/internal/domain/specialty"
	"github.com/odonto/clinic/internal/domain/treatmentplan"
	"github.com/odonto/clinic/internal/domain/user"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/middleware"
	"github.com/odonto/clinic/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Dental clinic API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

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

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
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
			})
		},
	})

	return cmd
}

func withMigrator(fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolOptions(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, migrations.FS, "."))
}

func poolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ApplicationName: "clinic-server",
	}
}

func newLogger(env string, w io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := newLogger("", os.Stdout)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, _ := cfg.Location()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolOptions(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, CID categories will be read from the database")
		} else {
			logger.Info().Msg("connected to redis")
		}
	}

	e := newServer(cfg, pool, rdb, loc, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the echo instance with middleware and every domain route.
// rdb may be nil, in which case CID categories are always read from Postgres.
func newServer(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, loc *time.Location, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("2M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.AuthSigningKey),
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
		}))
	}
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	if cfg.RequestTimeout > 0 {
		apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	apiV1.Use(middleware.Audit(logger))

	tx := db.NewTransactor(pool)

	// Catalogs
	specialtyRepo := specialty.NewRepo(pool)
	specialtySvc := specialty.NewService(specialtyRepo, logger)
	specialty.NewHandler(specialtySvc).RegisterRoutes(apiV1)

	procedureRepo := procedure.NewRepo(pool)
	procedureSvc := procedure.NewService(procedureRepo, specialtyRepo, logger)
	procedure.NewHandler(procedureSvc).RegisterRoutes(apiV1)

	var cidCatalog cid.Catalog = cid.NewRepo(pool)
	if rdb != nil {
		cidCatalog = cid.NewCachedCatalog(cidCatalog, cid.NewRedisCache(rdb), cfg.CIDCacheTTL, logger)
	}
	cid.NewHandler(cid.NewService(cidCatalog, logger)).RegisterRoutes(apiV1)

	// People
	userRepo := user.NewRepo(pool)
	user.NewHandler(user.NewService(userRepo, logger)).RegisterRoutes(apiV1)

	patientRepo := patient.NewRepo(pool)
	patient.NewHandler(patient.NewService(patientRepo, logger)).RegisterRoutes(apiV1)

	dentistRepo := dentist.NewRepo(pool)
	dentistSvc := dentist.NewService(dentistRepo, userRepo, procedureRepo, specialtyRepo, tx, logger)
	dentist.NewHandler(dentistSvc).RegisterRoutes(apiV1)

	// Scheduling and clinical workflow
	appointmentRepo := appointment.NewRepo(pool)
	appointmentSvc := appointment.NewService(appointmentRepo, patientRepo, dentistRepo, loc, logger)
	appointment.NewHandler(appointmentSvc, loc).RegisterRoutes(apiV1)

	recordRepo := record.NewRepo(pool)
	record.NewHandler(record.NewService(recordRepo, logger)).RegisterRoutes(apiV1)

	attendanceSvc := attendance.NewService(attendance.NewRepos(pool), attendance.Deps{
		Patients:         patientRepo,
		Dentists:         dentistRepo,
		ProcedureCatalog: procedureRepo,
		Appointments:     appointmentRepo,
		Records:          recordRepo,
		Categories:       cidCatalog,
	}, tx, loc, logger)
	attendance.NewHandler(attendanceSvc).RegisterRoutes(apiV1)

	// Finance
	planRepo := treatmentplan.NewRepo(pool)
	planSvc := treatmentplan.NewService(planRepo, patientRepo, dentistRepo, procedureRepo, tx, logger)
	treatmentplan.NewHandler(planSvc).RegisterRoutes(apiV1)

	paymentSvc := payment.NewService(payment.NewRepo(pool), patientRepo, planRepo, tx, logger)
	payment.NewHandler(paymentSvc).RegisterRoutes(apiV1)

	return e
}
