// Archiver drains appended entries into the Repository off the writer's path.

package chronicle

import (
	"Studio/internal/entity"
	"Studio/pkg/log"
	"context"
)

// Entries buffered before the archiver starts dropping.
const archiveBuffer = 256

type Archiver struct {
	repo    Repository
	logger  log.Logger
	entries chan entity.ChronicleEntry
}

func NewArchiver(repo Repository, logger log.Logger) *Archiver {
	return &Archiver{repo: repo, logger: logger, entries: make(chan entity.ChronicleEntry, archiveBuffer)}
}

// Enqueue never blocks; when redis falls behind the entry is dropped from the mirror only.
func (a *Archiver) Enqueue(entry entity.ChronicleEntry) {
	select {
	case a.entries <- entry:
	default:
		a.logger.Warn().Str("entry", entry.ID).Msg("Chronicle archive buffer full, dropping mirror write")
	}
}

// Listen pushes entries in append order until ctx is done, preferably run in a goroutine.
func (a *Archiver) Listen(ctx context.Context) {
	a.logger.Info().Msg("Launching chronicle archiver")
	for {
		select {
		case entry := <-a.entries:
			// errors are logged by the repository
			_ = a.repo.Push(ctx, a.logger, entry)
		case <-ctx.Done():
			a.logger.Info().Msg("Successfully stopped chronicle archiver")
			return
		}
	}
}
