package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/spf13/cobra"

	database "galangdana_backend/internals/databases"
	"galangdana_backend/internals/logger"
	"galangdana_backend/internals/middlewares"
	requestLogger "galangdana_backend/internals/middlewares/logger"
	routes "galangdana_backend/internals/route"
	"galangdana_backend/internals/scheduler"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Jalankan HTTP API + scheduler",
		RunE:  runServe,
	}
	cmd.Flags().Bool("no-scheduler", false, "jangan jalankan job periodik di instance ini")
	cmd.Flags().Bool("migrate", false, "AutoMigrate sebelum server jalan")
	return cmd
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             90 * time.Second,
	})
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(middlewares.RequestID())
	app.Use(requestLogger.LoggerMiddleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	return app
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer c.close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := database.AutoMigrate(c.db); err != nil {
			return err
		}
	}
	database.WarmUpQueries(c.db)

	app := newApp()
	app.Use(middlewares.CorsMiddleware(c.cfg.Server.CORSOrigins))
	app.Use(middlewares.GlobalRateLimiter())
	routes.SetupRoutes(app, c.db, c.cfg.Server.JWTSecret, c.deps())

	var jobs *scheduler.Manager
	if off, _ := cmd.Flags().GetBool("no-scheduler"); !off {
		jobs, err = scheduler.NewManager(c.cfg.Reconcile, c.reconciliation, c.projects)
		if err != nil {
			return err
		}
		if err := jobs.Start(); err != nil {
			return err
		}
		defer jobs.Stop()
	}

	port := c.cfg.Server.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("✅ Listening on :%s", port)
		errCh <- app.Listen("0.0.0.0:" + port)
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(ctx)
}
