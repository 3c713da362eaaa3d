// Metrics repository mirrors the latest metrics snapshot to redis for other services to read.

package metrics

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/pkg/db"
	"Studio/pkg/log"
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

var metricsDbKey = "metrics"

// Optimistic lock retries before a snapshot write is given up.
const maxRetries = 3

type Repository interface {
	// Store the latest metrics snapshot
	SaveMetrics(ctx context.Context, logger log.Logger, metrics entity.Metrics) error
}

type repository struct {
	db *db.RedisDB
}

// Returns a new instance of metrics repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func (r repository) SaveMetrics(ctx context.Context, logger log.Logger, metrics entity.Metrics) error {
	snapshot, err := json.Marshal(metrics)
	if err != nil {
		logger.WithCtx(ctx).Error().Err(err).Msg("Couldn't encode metrics snapshot")
		return errors.InternalServerError("")
	}
	txf := func(tx *redis.Tx) error {
		// Operation is commited only if the watched keys remain unchanged
		_, dberr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, metricsDbKey,
				"snapshot", snapshot,
				"live_viewers", metrics.LiveViewers,
				"bitrate", metrics.Bitrate,
				"fps", metrics.FPS,
			)
			return nil
		})
		return dberr
	}
	for i := 0; i < maxRetries; i++ {
		dberr := r.db.Client().Watch(ctx, txf, metricsDbKey)
		if dberr == nil {
			return nil
		} else if dberr == redis.TxFailedErr {
			// Optimistic lock lost. Retry.
			continue
		}
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured in SaveMetrics transaction")
		return errors.InternalServerError("")
	}
	logger.WithCtx(ctx).Warn().Msg("SaveMetrics reached maximum number of retries")
	return errors.InternalServerError("")
}
