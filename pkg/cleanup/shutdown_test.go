// Graceful shutdown tests.

package cleanup

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"Studio/pkg/log"

	"github.com/stretchr/testify/assert"
)

func TestGracefulShutdownRunsEveryOperation(t *testing.T) {
	trigger := make(chan os.Signal, 1)
	var ran atomic.Int32

	wait := shutdownOn(context.Background(), log.Nop(), trigger, 5*time.Second, map[string]Operation{
		"Hub": func(ctx context.Context) error {
			ran.Add(1)
			return nil
		},
		"Ticker": func(ctx context.Context) error {
			ran.Add(1)
			return nil
		},
		"Redis-server": func(ctx context.Context) error {
			ran.Add(1)
			return errors.New("already closed")
		},
	})
	trigger <- syscall.SIGTERM

	select {
	case <-wait:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Equal(t, int32(3), ran.Load())
}

func TestGracefulShutdownOperationsSeeDeadline(t *testing.T) {
	trigger := make(chan os.Signal, 1)
	var hasDeadline atomic.Bool

	wait := shutdownOn(context.Background(), log.Nop(), trigger, 5*time.Second, map[string]Operation{
		"Gin": func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			hasDeadline.Store(ok)
			return nil
		},
	})
	trigger <- syscall.SIGINT
	<-wait

	assert.True(t, hasDeadline.Load())
}
