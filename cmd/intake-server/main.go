package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/intake/intake/internal/config"
	"github.com/intake/intake/internal/domain/appointment"
	"github.com/intake/intake/internal/domain/patient"
	"github.com/intake/intake/internal/domain/user"
	"github.com/intake/intake/internal/platform/blobstore"
	"github.com/intake/intake/internal/platform/db"
	"github.com/intake/intake/internal/platform/gate"
	"github.com/intake/intake/internal/platform/middleware"
	"github.com/intake/intake/internal/platform/notification"
	"github.com/intake/intake/internal/platform/store"
)

// PatientContactAdapter resolves patient contact details for the
// appointment notifier, keeping the appointment package decoupled from the
// patient package.
type PatientContactAdapter struct {
	patients *patient.Service
}

func NewPatientContactAdapter(patients *patient.Service) *PatientContactAdapter {
	return &PatientContactAdapter{patients: patients}
}

func (a *PatientContactAdapter) Contact(ctx context.Context, patientID uuid.UUID) (string, string, error) {
	p, err := a.patients.Get(ctx, patientID)
	if err != nil {
		return "", "", err
	}
	return p.Name, p.Phone, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "intake-server",
		Short: "Patient intake and appointment API server",
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
		Short: "Start the intake API server",
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
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			statuses, err := migrator.Status(ctx)
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
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

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
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID", gate.AdminTokenHeader},
	}))

	// API groups
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Document store shared by all domains
	docStore := store.NewPGStore(pool)

	// Admin gate
	adminGate := gate.New(cfg.AdminPasskey, cfg.SessionSigningKey(), time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	gateHandler := gate.NewHandler(adminGate, logger)
	gateHandler.RegisterRoutes(apiV1)

	adminGroup := apiV1.Group("/admin", gate.RequireAdmin(adminGate))

	// Blob storage for identification documents
	blobs := blobstore.NewInMemoryBlobStore()
	blobHandler := blobstore.NewBlobHandler(blobs)
	blobHandler.RegisterRoutes(adminGroup)

	// SMS notifications
	smsSender := notification.NewLogSender(logger)
	notifyManager := notification.NewManager(smsSender, notification.NewTemplateEngine())

	// User domain
	userRepo := user.NewStoreRepository(docStore, cfg.UsersCollection)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)
	userHandler.RegisterRoutes(apiV1)
	userHandler.RegisterAdminRoutes(adminGroup)

	// Patient domain
	patientRepo := patient.NewStoreRepository(docStore, cfg.PatientsCollection)
	patientSvc := patient.NewService(patientRepo, blobs, logger)
	patientHandler := patient.NewHandler(patientSvc)
	patientHandler.RegisterRoutes(apiV1)
	patientHandler.RegisterAdminRoutes(adminGroup)

	// Appointment domain
	apptRepo := appointment.NewStoreRepository(docStore, cfg.AppointmentsCollection)
	notifier := appointment.NewSMSNotifier(notifyManager, NewPatientContactAdapter(patientSvc), logger)
	views := appointment.NewLogInvalidator(logger)
	apptSvc := appointment.NewService(apptRepo, views, notifier, logger)
	apptHandler := appointment.NewHandler(apptSvc)
	apptHandler.RegisterRoutes(apiV1)
	apptHandler.RegisterAdminRoutes(adminGroup)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
