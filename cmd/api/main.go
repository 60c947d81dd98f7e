// @title RoadWatch API
// @version 1.0
// @description Pothole reporting with moderation and UPI rewards
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer <token>"
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/urfave/cli/v2"

	docs "github.com/xyz-asif/roadwatch/docs"
	"github.com/xyz-asif/roadwatch/internal/config"
	"github.com/xyz-asif/roadwatch/internal/database"
	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/features/reports"
	"github.com/xyz-asif/roadwatch/internal/features/rewards"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
	"github.com/xyz-asif/roadwatch/internal/routes"
)

func main() {
	app := cli.App{
		Name:  "roadwatch",
		Usage: "pothole reporting api",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the http api",
				Action: runServe,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "auto-migrate",
						Usage: "apply relational migrations before serving (postgres driver only)",
						Value: true,
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "apply relational migrations and exit",
				Action: runMigrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("%v", err)
	}
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		auth.Migration(),
		reports.Migration(),
		rewards.Migration(),
	}
}

func runMigrate(cctx *cli.Context) error {
	cfg := config.Load()
	logger.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	pg, err := database.ConnectPostgres(cfg.PostgresDSN, !cfg.IsProduction())
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := database.RunMigrations(pg.DB, migrations()...); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runServe(cctx *cli.Context) error {
	cfg := config.Load()
	logger.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return err
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	docs.SwaggerInfo.BasePath = "/api/v1"

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := cctx.Context
	deps, closeAll, err := buildDependencies(ctx, cfg, cctx.Bool("auto-migrate"))
	if err != nil {
		return err
	}
	defer closeAll()

	stop := make(chan struct{})
	defer close(stop)

	router := routes.NewRouter(cfg, deps, stop)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s (store=%s, storage=%s)", cfg.Port, cfg.StoreDriver, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server exited")
	return nil
}
