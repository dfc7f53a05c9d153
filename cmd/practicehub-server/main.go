package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/practicehub/practicehub/internal/config"
	"github.com/practicehub/practicehub/internal/domain/assist"
	"github.com/practicehub/practicehub/internal/domain/atrisk"
	"github.com/practicehub/practicehub/internal/domain/client"
	"github.com/practicehub/practicehub/internal/domain/org"
	"github.com/practicehub/practicehub/internal/domain/plan"
	"github.com/practicehub/practicehub/internal/domain/scheduling"
	"github.com/practicehub/practicehub/internal/domain/session"
	"github.com/practicehub/practicehub/internal/domain/treatment"
	"github.com/practicehub/practicehub/internal/platform/ai"
	"github.com/practicehub/practicehub/internal/platform/auth"
	"github.com/practicehub/practicehub/internal/platform/db"
	"github.com/practicehub/practicehub/internal/platform/middleware"
	"github.com/practicehub/practicehub/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "practicehub-server",
		Short: "Practice management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
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
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Use Atlas CLI for migration rollback: atlas schema apply --dir migrations/")
			return nil
		},
	})

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, ""); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully. Run migrations with: scripts/migrate.sh", name)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.Sanitize())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// Tenant middleware
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// The org service resolves subscription plans, so it is built before the
	// per-user limiter that keys its tiers off those plans.
	orgRepo := org.NewRepoPG(pool)
	orgSvc := org.NewService(orgRepo)

	// Per-user limits follow the subscription tiers. Admins can pin a caller
	// to a tier; everyone else gets the budget of their practice's plan.
	userLimiter := middleware.NewClientRateLimiter(orgSvc)
	apiV1.Use(middleware.ClientRateLimitMiddleware(userLimiter))
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go userLimiter.StartCleanup(limiterCtx, time.Hour)

	adminV1 := apiV1.Group("/admin", auth.RequirePermission(auth.PermOrgManage))
	middleware.NewRateLimitHandler(userLimiter).RegisterRoutes(adminV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// -- Register Domain Handlers --

	// Clients
	clientRepo := client.NewRepoPG(pool)
	clientSvc := client.NewService(clientRepo)
	client.NewHandler(clientSvc).RegisterRoutes(apiV1)

	// Sessions
	sessionRepo := session.NewRepoPG(pool)
	sessionSvc := session.NewService(sessionRepo)
	session.NewHandler(sessionSvc).RegisterRoutes(apiV1)

	// Appointments
	schedRepo := scheduling.NewRepoPG(pool)
	schedSvc := scheduling.NewService(schedRepo)
	scheduling.NewHandler(schedSvc).RegisterRoutes(apiV1)

	// Treatment plans
	planRepo := treatment.NewPlanRepoPG(pool)
	goalRepo := treatment.NewGoalRepoPG(pool)
	treatmentSvc := treatment.NewService(planRepo, goalRepo)
	treatment.NewHandler(treatmentSvc).RegisterRoutes(apiV1)

	// Organizations and membership
	org.NewHandler(orgSvc).RegisterRoutes(apiV1)

	// At-risk caseload dashboard, gated by subscription plan
	atriskSvc := atrisk.NewService(clientRepo, sessionRepo, orgSvc)
	atrisk.NewHandler(atriskSvc).RegisterRoutes(apiV1,
		plan.RequireFeature(orgSvc, plan.FeatureAtRiskDash))

	// Appointment reminders. Senders only log until a delivery provider
	// is configured.
	notifier := notification.NewManager(
		&notification.LogEmailSender{},
		&notification.LogSMSSender{},
		notification.NewTemplateEngine(),
	)
	reminders := scheduling.NewReminderService(schedRepo, clientRepo, notifier)
	reminderCtx, stopReminders := context.WithCancel(context.Background())
	defer stopReminders()
	go runReminderLoop(reminderCtx, reminders)

	// AI assist, only when a key is configured
	if cfg.AIEnabled() {
		llm, err := ai.NewClient(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize AI client")
		}
		assistSvc := assist.NewService(llm, clientRepo, sessionRepo)
		assist.NewHandler(assistSvc, orgSvc, plan.NewUsageMeter()).RegisterRoutes(apiV1)
		logger.Info().Msg("AI assist features enabled")
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set; AI assist features are disabled")
	}

	// Graceful shutdown
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

// runReminderLoop sends due appointment reminders on a fixed interval
// until the context is cancelled.
func runReminderLoop(ctx context.Context, reminders *scheduling.ReminderService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := reminders.SendDue(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("reminder sweep failed")
				continue
			}
			if sent > 0 {
				log.Info().Int("sent", sent).Msg("appointment reminders sent")
			}
		}
	}
}
