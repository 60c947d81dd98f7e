package main

import (
	"context"
	"fmt"

	"github.com/xyz-asif/roadwatch/internal/config"
	"github.com/xyz-asif/roadwatch/internal/database"
	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/features/classifier"
	"github.com/xyz-asif/roadwatch/internal/features/geo"
	"github.com/xyz-asif/roadwatch/internal/features/reports"
	"github.com/xyz-asif/roadwatch/internal/features/rewards"
	"github.com/xyz-asif/roadwatch/internal/pkg/cloudinary"
	"github.com/xyz-asif/roadwatch/internal/pkg/gcs"
	"github.com/xyz-asif/roadwatch/internal/pkg/httpclient"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
	"github.com/xyz-asif/roadwatch/internal/routes"
)

// buildDependencies connects the configured store, object storage, identity
// provider and model server. The returned func releases them.
func buildDependencies(ctx context.Context, cfg *config.Config, autoMigrate bool) (routes.Dependencies, func(), error) {
	var (
		deps    routes.Dependencies
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (routes.Dependencies, func(), error) {
		closeAll()
		return routes.Dependencies{}, func() {}, err
	}

	switch cfg.StoreDriver {
	case "postgres":
		pg, err := database.ConnectPostgres(cfg.PostgresDSN, !cfg.IsProduction())
		if err != nil {
			return fail(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		closers = append(closers, func() { _ = pg.Close() })
		if autoMigrate {
			if err := database.RunMigrations(pg.DB, migrations()...); err != nil {
				return fail(err)
			}
		}
		deps.Profiles = auth.NewGormRepository(pg.DB)
		deps.Reports = reports.NewGormRepository(pg.DB)
		deps.Rewards = rewards.NewGormRepository(pg.DB)
		deps.Health = pg.Ping
	default:
		db, err := database.Connect(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to mongodb: %w", err))
		}
		closers = append(closers, func() { _ = db.Disconnect(context.Background()) })
		deps.Profiles = auth.NewRepository(db.Database)
		deps.Reports = reports.NewRepository(db.Database)
		deps.Rewards = rewards.NewRepository(db.Database)
		deps.Health = db.Ping
	}

	switch cfg.StorageDriver {
	case "cloudinary":
		cld, err := cloudinary.NewService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return fail(fmt.Errorf("failed to init cloudinary: %w", err))
		}
		deps.Storage = cld
	default:
		bucket, err := gcs.NewClient(ctx, cfg.GCSBucket, cfg.GCSCredentialsPath, cfg.GCSPublicObjects)
		if err != nil {
			return fail(fmt.Errorf("failed to init gcs: %w", err))
		}
		closers = append(closers, func() { _ = bucket.Close() })
		deps.Storage = bucket
	}

	fbClient, err := auth.InitFirebase(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("failed to init firebase: %w", err))
	}
	identityHTTP := httpclient.New(httpclient.WithLogger(logger.Default().Named("identity")))
	deps.Identity = auth.NewFirebaseIdentity(fbClient, identityHTTP, cfg.FirebaseAPIKey, cfg.IdentityToolkitURL)

	var model classifier.Model
	if cfg.ModelServerURL != "" {
		model = &classifier.TFServingModel{
			BaseURL: cfg.ModelServerURL,
			Name:    cfg.ModelName,
			Client:  httpclient.New(httpclient.WithMaxRetries(1), httpclient.WithLogger(logger.Default().Named("model"))),
		}
	} else {
		logger.Warn("MODEL_SERVER_URL is not set, every image will be accepted with an unverified verdict")
	}
	deps.Gate = classifier.NewGate(model, cfg.ClassifierThreshold, cfg.ClassifierTimeout)

	if cfg.GeoProviderURL != "" {
		deps.Provider = &geo.HTTPLocator{
			Endpoint: cfg.GeoProviderURL,
			Client:   httpclient.New(httpclient.WithMaxRetries(1), httpclient.WithLogger(logger.Default().Named("geo"))),
		}
	}

	return deps, closeAll, nil
}
