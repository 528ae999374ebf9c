package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"instrument-images/core/config"
	"instrument-images/core/database"
	"instrument-images/core/logger"
	"instrument-images/core/middleware/rayid"
	"instrument-images/core/storage"
	"instrument-images/feature/catalog"
	"instrument-images/feature/crawl"
	"instrument-images/feature/lock"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the crawl daemon",
	Long: `Starts the crawl worker pool in polling mode together with a small HTTP
server exposing liveness and pool counters.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (required, the pool polls the catalog)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		// 4. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 5. Initialize the crawl pool with a per-replica lock owner
		locker := lock.NewLocker(db, uuid.NewString())
		if err := locker.Migrate(); err != nil {
			logg.Fatal("Failed to migrate lock table", zap.Error(err))
		}
		logg = logg.With(zap.String("owner_id", locker.OwnerID()))

		source := crawl.NewHTTPImageSource(cfg.Crawl.FetchTimeout(), cfg.Crawl.UserAgent)
		pool := crawl.NewPool(store, catalog.NewClient(db), locker, source,
			cfg.Storage.Bucket, cfg.Pipeline.SourcePrefix, cfg.Crawl, logg)

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/healthz", crawl.HealthHandler())
		app.Get("/status", pool.StatusHandler())

		// 7. Start the crawl loop
		ctx, cancel := context.WithCancel(context.Background())
		loopDone := make(chan struct{})
		go func() {
			defer close(loopDone)
			pool.RunLoop(ctx)
		}()

		// 8. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")
		cancel()
		<-loopDone
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
