package main

import (
	"context"

	"github.com/angelmondragon/aether-storefront/api/controllers"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/db"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/angelmondragon/aether-storefront/pkg/migrate"
	"github.com/angelmondragon/aether-storefront/pkg/redis"
)

// storage is the KV backend selected by AETHER_STORAGE_DRIVER.
type storage struct {
	store  kv.Store
	name   string
	pinger controllers.Pinger
	closer func() error
}

func (s storage) pingers() map[string]controllers.Pinger {
	out := map[string]controllers.Pinger{}
	if s.pinger != nil {
		out[s.name] = s.pinger
	}
	return out
}

func (s storage) close(ctx context.Context, logg *logger.Logger) {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		logg.Error(ctx, "error closing "+s.name, err)
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return storage{}, err
		}
		return storage{store: client, name: "redis", pinger: client, closer: client.Close}, nil

	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		client, err := db.New(ctx, cfg.Storage.Driver, cfg.DB, logg)
		if err != nil {
			return storage{}, err
		}
		if err := migrate.MaybeAutoRun(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return storage{}, err
		}
		store, err := db.NewKVStore(client)
		if err != nil {
			_ = client.Close()
			return storage{}, err
		}
		return storage{store: store, name: "database", pinger: client, closer: client.Close}, nil

	default:
		logg.Warn(ctx, "using in-memory storage; profile state is lost on restart")
		return storage{store: kv.NewMemory(), name: "memory"}, nil
	}
}
