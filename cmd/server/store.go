package main

import (
	"context"

	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/repository/memory"
	"github.com/Anchal0410/peer-connect/internal/repository/mongostore"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// openStore picks the persistence backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (*repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore().Repositories(), nil

	case config.DriverMongo:
		db, err := mongostore.OpenConnection(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, errors.Wrap(err, "ensure indexes")
		}
		log.Info("mongo store ready", zap.String("database", cfg.MongoDatabase))
		return mongostore.NewStore(db), nil

	default:
		db, err := repository.InitDB(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "open "+cfg.Driver)
		}
		log.Info("relational store ready", zap.String("driver", cfg.Driver))
		return repository.NewGormStore(db), nil
	}
}
