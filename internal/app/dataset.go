package app

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdash/salesdash/internal/dataset"
)

// DatasetSource picks the raw dataset source named by DATASET_SOURCE and
// returns it with the name used in cache keys. pool is only read for the
// postgres source.
func DatasetSource(cfg *Config, pool *pgxpool.Pool) (dataset.Source, string, error) {
	switch cfg.DatasetSource {
	case DatasetFile:
		return dataset.FileSource{Path: cfg.DatasetPath}, "file:" + cfg.DatasetPath, nil
	case DatasetPostgres:
		if pool == nil {
			return nil, "", errors.New("postgres dataset source needs a connection pool")
		}
		return dataset.NewRepository(pool), DatasetPostgres, nil
	default:
		return dataset.EmbeddedSource{}, DatasetEmbedded, nil
	}
}

// NeedsPostgres reports whether the configured dataset source reads the database.
func (c *Config) NeedsPostgres() bool {
	return c != nil && c.DatasetSource == DatasetPostgres
}
