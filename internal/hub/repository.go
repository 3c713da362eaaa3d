// hub repository mirrors who is connected to each channel into redis.
// Helpful for other services, or a restarted instance, to see the current audience.

package hub

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/pkg/db"
	"Studio/pkg/log"
	"context"
	"encoding/json"
	"time"
)

type Repository interface {
	// AddClient records the connection and its principal under the channel.
	AddClient(ctx context.Context, logger log.Logger, channel, connID string, principal entity.Principal) error
	// RemoveClient forgets the connection.
	RemoveClient(ctx context.Context, logger log.Logger, channel, connID string) error
}

type repository struct {
	db *db.RedisDB
}

// Returns a new instance of hub repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func presenceKey(channel string) string {
	return "presence:" + channel
}

func (r repository) AddClient(ctx context.Context, logger log.Logger, channel, connID string, principal entity.Principal) error {
	raw, err := json.Marshal(principal)
	if err != nil {
		return errors.InternalServerError("")
	}
	if dberr := r.db.Client().HSet(ctx, presenceKey(channel), connID, raw).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of HSet in hub.AddClient")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) RemoveClient(ctx context.Context, logger log.Logger, channel, connID string) error {
	if dberr := r.db.Client().HDel(ctx, presenceKey(channel), connID).Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of HDel in hub.RemoveClient")
		return errors.InternalServerError("")
	}
	return nil
}

// Operations buffered before presence updates are dropped.
const presenceBuffer = 512

// Per operation deadline against redis.
const presenceTimeout = 2 * time.Second

type presenceOp struct {
	channel   string
	connID    string
	principal entity.Principal
	join      bool
}

// presence serializes repository writes off the hub's lock, keeping join/leave order per connection.
type presence struct {
	repo   Repository
	logger log.Logger
	ops    chan presenceOp
}

func newPresence(repo Repository, logger log.Logger) *presence {
	if repo == nil {
		return nil
	}
	return &presence{repo: repo, logger: logger, ops: make(chan presenceOp, presenceBuffer)}
}

func (p *presence) joined(channel, connID string, principal entity.Principal) {
	p.enqueue(presenceOp{channel: channel, connID: connID, principal: principal, join: true})
}

func (p *presence) left(channel, connID string) {
	p.enqueue(presenceOp{channel: channel, connID: connID})
}

func (p *presence) enqueue(op presenceOp) {
	if p == nil {
		return
	}
	select {
	case p.ops <- op:
	default:
		p.logger.Warn().Str("channel", op.channel).Str("conn", op.connID).Msg("Presence buffer full, dropping update")
	}
}

func (p *presence) listen(ctx context.Context) {
	if p == nil {
		return
	}
	for {
		select {
		case op := <-p.ops:
			opctx, cancel := context.WithTimeout(ctx, presenceTimeout)
			if op.join {
				_ = p.repo.AddClient(opctx, p.logger, op.channel, op.connID, op.principal)
			} else {
				_ = p.repo.RemoveClient(opctx, p.logger, op.channel, op.connID)
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}
