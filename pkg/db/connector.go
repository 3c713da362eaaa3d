// Initialization of the Redis client used for presence and chronicle mirroring.

package db

import (
	"Studio/pkg/log"
	"context"
	"errors"
	"net"

	"github.com/go-redis/redis/v8"
)

// Options carries what the connector needs, usually filled from config.
type Options struct {
	Addr     string
	Port     string
	Password string
	DB       int
}

// RedisDB represents a redis client connection to be used internally.
type RedisDB struct {
	client *redis.Client
}

// Client returns the redis client wrapped by RedisDB.
func (db *RedisDB) Client() *redis.Client {
	return db.client
}

// Returns a new Redis DB connection wrapped up by RedisDB struct.
func NewDbConnection(ctx context.Context, logger log.Logger, opts Options) (*RedisDB, error) {
	if opts.Addr == "" || opts.Port == "" {
		logger.WithCtx(ctx).Error().Msg("Redis address or port missing from configuration")
		return nil, errors.New("improper redis configuration")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(opts.Addr, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisDB{client: client}, nil
}

// Helper to check connection status of redis client to redis-server.
// Equivalent to a PING request on redis-server, returns PONG on success.
func (db *RedisDB) CheckDbConnection(ctx context.Context, logger log.Logger) error {
	logger.WithCtx(ctx).Info().Msg("Checking DB Connection . . .")
	if cnterr := db.Client().Ping(ctx).Err(); cnterr != nil {
		// Most likely, DB connection failure
		logger.WithCtx(ctx).Error().Err(cnterr).Msg("Redis client couldn't PING the redis-server.")
		return cnterr
	}
	logger.WithCtx(ctx).Info().Msg("Connection to DB Successful")
	return nil
}

// Helper to clean up test db after finishing tests.
func (db *RedisDB) CleanTestDbData(ctx context.Context, logger log.Logger) {
	if db.Client().Options().DB == 1 {
		if dberr := db.Client().FlushDB(ctx).Err(); dberr != nil {
			logger.Error().Err(dberr).Msg("Error occured during the execution of FlushDB() in db.CleanTestDbData")
		}
	}
}

// Helper to close the RedisDB client, should be called before closing the server.
func (db *RedisDB) CloseDbConnection(ctx context.Context) error {
	return db.Client().Close()
}
