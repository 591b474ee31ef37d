// Package database constructs engine adapters from connection configurations.
package database

import (
	"github.com/Algodons/algo-dbcore/internal/database/mongodb"
	"github.com/Algodons/algo-dbcore/internal/database/mysql"
	"github.com/Algodons/algo-dbcore/internal/database/pinecone"
	"github.com/Algodons/algo-dbcore/internal/database/postgres"
	"github.com/Algodons/algo-dbcore/internal/database/redis"
	"github.com/Algodons/algo-dbcore/internal/database/sqlite"
	"github.com/Algodons/algo-dbcore/internal/database/weaviate"
	"github.com/Algodons/algo-dbcore/pkg/adapter"
	"github.com/Algodons/algo-dbcore/pkg/config"
	"github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
)

// New constructs a disconnected adapter for the given engine. Pool settings
// left at zero in the connection config are filled from cfg (or the package
// defaults when cfg is nil). The caller connects it and owns its lifecycle.
func New(dbType dbcapabilities.DatabaseID, connCfg adapter.ConnectionConfig, cfg *config.Config) (adapter.DatabaseAdapter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	connCfg = withPoolDefaults(connCfg, cfg.Pool)

	switch dbType {
	case dbcapabilities.PostgreSQL:
		return postgres.NewAdapter(connCfg), nil
	case dbcapabilities.MySQL:
		return mysql.NewAdapter(connCfg), nil
	case dbcapabilities.SQLite:
		return sqlite.NewAdapter(connCfg), nil
	case dbcapabilities.MongoDB:
		return mongodb.NewAdapter(connCfg), nil
	case dbcapabilities.Redis:
		return redis.NewAdapter(connCfg), nil
	case dbcapabilities.Pinecone:
		return pinecone.NewAdapter(connCfg), nil
	case dbcapabilities.Weaviate:
		return weaviate.NewAdapter(connCfg), nil
	default:
		return nil, adapter.NewNotFoundError("engine type", string(dbType))
	}
}

// NewFromName is New with alias resolution, so "postgresql" and "pgsql" build
// a PostgreSQL adapter.
func NewFromName(name string, connCfg adapter.ConnectionConfig, cfg *config.Config) (adapter.DatabaseAdapter, error) {
	dbType, ok := dbcapabilities.ParseID(name)
	if !ok {
		return nil, adapter.NewNotFoundError("engine type", name)
	}
	return New(dbType, connCfg, cfg)
}

func withPoolDefaults(connCfg adapter.ConnectionConfig, pool config.PoolConfig) adapter.ConnectionConfig {
	if connCfg.MaxPoolSize == 0 {
		connCfg.MaxPoolSize = pool.MaxConns
	}
	if connCfg.ConnectTimeout == 0 {
		connCfg.ConnectTimeout = pool.ConnectTimeout
	}
	if connCfg.IdleTimeout == 0 {
		connCfg.IdleTimeout = pool.IdleTimeout
	}
	return connCfg
}
