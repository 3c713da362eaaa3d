// chronicle repository mirrors appended entries into redis for other services to read.

package chronicle

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/pkg/db"
	"Studio/pkg/log"
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// Redis list holding the mirrored entries, newest first.
const mirrorKey = "chronicle"

type Repository interface {
	// Push stores entry at the head of the mirror and trims it to Capacity.
	Push(ctx context.Context, logger log.Logger, entry entity.ChronicleEntry) error
}

type repository struct {
	db *db.RedisDB
}

// Returns a new instance of chronicle repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func (r repository) Push(ctx context.Context, logger log.Logger, entry entity.ChronicleEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		logger.WithCtx(ctx).Error().Err(err).Msg("Couldn't marshal chronicle entry in chronicle.Push")
		return errors.InternalServerError("")
	}
	_, dberr := r.db.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, mirrorKey, raw)
		pipe.LTrim(ctx, mirrorKey, 0, Capacity-1)
		return nil
	})
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of LPUSH/LTRIM in chronicle.Push")
		return errors.InternalServerError("")
	}
	return nil
}
