//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gallery-server/services/gallery-api/internal/config"
	"gallery-server/services/gallery-api/internal/domain/gallery"
	"gallery-server/services/gallery-api/internal/domain/picker"
	"gallery-server/services/gallery-api/internal/infrastructure/auth"
	"gallery-server/services/gallery-api/internal/infrastructure/database"
	"gallery-server/services/gallery-api/internal/infrastructure/logger"
	repo "gallery-server/services/gallery-api/internal/infrastructure/repository/gallery"
	"gallery-server/services/gallery-api/internal/interfaces/httpserver"
	"gallery-server/services/gallery-api/internal/interfaces/httpserver/handlers"
)

var gallerySet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(gallery.Repository), new(*repo.Repository)),
	provideStorage,
	picker.NewClient,
	wire.Bind(new(gallery.Provider), new(*picker.Client)),
	wire.Bind(new(handlers.SessionBroker), new(*picker.Client)),
	gallery.NewService,
)

// BuildApplication assembles the gallery API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		gallerySet,
		handlers.NewProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.GetDatabaseWriteDSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}
