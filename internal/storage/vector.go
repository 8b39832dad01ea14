package storage

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/store"
	neo4jstore "github.com/opsgraph/backend/pkg/store/neo4j"
	"github.com/opsgraph/backend/pkg/store/pgvector"
)

// NewVectorIndex builds the vector index selected by VECTOR_PROVIDER.
// "neo4j" (the default) stores vectors on the passage nodes themselves;
// "pgvector" keeps them in PostgreSQL. The returned cleanup closes any
// connection the provider opened.
func NewVectorIndex(ctx context.Context, graphStore *neo4jstore.GraphDBStorage) (store.VectorIndex, func(), error) {
	provider := util.GetEnvString("VECTOR_PROVIDER", "neo4j")

	switch provider {
	case "neo4j":
		return neo4jstore.NewVectorIndexStorage(graphStore), func() {}, nil

	case "pgvector":
		databaseURL := util.GetEnv("DATABASE_URL")
		if databaseURL == "" {
			return nil, nil, common.ConfigurationErrorf("pgvector provider requires DATABASE_URL")
		}

		cfg, err := pgxpool.ParseConfig(databaseURL)
		if err != nil {
			return nil, nil, common.ConfigurationErrorf("parse DATABASE_URL: %v", err)
		}
		cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, common.ServiceUnavailableErrorf("connect to postgres: %v", err)
		}

		migrationsDir := util.GetEnvString("PGVECTOR_MIGRATIONS_DIR", "pkg/store/pgvector/migrations")
		if err := pgvector.RunMigrations(migrationsDir, databaseURL); err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("Vector index backed by pgvector")
		return pgvector.NewVectorIndexStorage(pool), pool.Close, nil

	default:
		return nil, nil, common.ConfigurationErrorf("unknown vector provider %q", provider)
	}
}
