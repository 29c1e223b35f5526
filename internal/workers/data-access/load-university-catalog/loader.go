// internal/workers/data-access/load-university-catalog/loader.go
package loaduniversitycatalog

import (
	"context"
	"database/sql"
	"time"

	"gradmatch-workers/internal/common/database"
	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/models"
	"gradmatch-workers/internal/workers/data-access/load-university-catalog/queries"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:gradmatch:catalog-snapshot"))

// Loader reads catalog snapshots from Redis and falls back to Postgres.
type Loader struct {
	db     *sql.DB
	cache  *database.JSONCache
	logger logger.Logger
}

func NewLoader(db *sql.DB, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Loader {
	l := &Loader{db: db, logger: log}
	if rdb != nil {
		l.cache = database.NewJSONCache(rdb, "catalog:snapshot", ttl)
	}
	return l
}

// SnapshotID identifies the cached snapshot for f.
func SnapshotID(f queries.Filter) string {
	return uuid.NewSHA1(snapshotNamespace, []byte(f.Canonical())).String()
}

// Load returns the catalog for f and whether it came from the cache. Empty
// catalogs are returned but never cached.
func (l *Loader) Load(ctx context.Context, f queries.Filter) ([]models.CatalogEntry, bool, error) {
	id := SnapshotID(f)

	var cached []models.CatalogEntry
	hit, err := l.cache.Get(ctx, id, &cached)
	if err != nil {
		l.logger.Warn("catalog cache read failed", map[string]interface{}{"snapshot": id, "error": err.Error()})
	}
	if hit {
		return cached, true, nil
	}

	entries, err := queries.FetchCatalog(ctx, l.db, f)
	if err != nil {
		return nil, false, apperrors.NewCatalogLoadFailedError(err)
	}
	if entries == nil {
		entries = []models.CatalogEntry{}
	}

	if len(entries) > 0 {
		if err := l.cache.Set(ctx, id, entries); err != nil {
			l.logger.Warn("catalog cache write failed", map[string]interface{}{"snapshot": id, "error": err.Error()})
		}
	}
	return entries, false, nil
}
