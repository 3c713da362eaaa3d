package metrics

import (
	"Studio/internal/entity"
	"context"
	"math/rand"
	"sync"
	"time"
)

// Delta mutates the live metrics in place. It runs while the writer lock is held, so it must
// not block; sources do their I/O in Sample and close over the result.
type Delta func(*entity.Metrics)

// Source produces one Delta per tick.
type Source interface {
	Name() string
	Sample(ctx context.Context) (Delta, error)
}

// Synthetic random-walks the encoder, audience and server figures around their current values.
type Synthetic struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{rnd: rand.New(rand.NewSource(seed))}
}

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) Sample(ctx context.Context) (Delta, error) {
	s.mu.Lock()
	steps := make([]float64, 11)
	for i := range steps {
		steps[i] = s.rnd.Float64()*2 - 1
	}
	dropped := s.rnd.Intn(3)
	s.mu.Unlock()

	return func(m *entity.Metrics) {
		m.Bitrate = clamp(m.Bitrate+steps[0]*250, 2500, 8000)
		m.FPS = clamp(m.FPS+steps[1]*1.5, 24, 60)
		m.DroppedFrames += dropped
		m.LatencyMs = clamp(m.LatencyMs+steps[2]*80, 400, 4000)
		m.EngagementVelocity.MsgsPerMin = clamp(m.EngagementVelocity.MsgsPerMin+steps[3]*12, 0, 600)
		m.EngagementVelocity.ReactionsPerMin = clamp(m.EngagementVelocity.ReactionsPerMin+steps[4]*20, 0, 1200)
		m.SentimentTide = clamp(m.SentimentTide+steps[5]*0.05, 0, 1)
		m.ServerLoad.CPU = clamp(m.ServerLoad.CPU+steps[6]*0.04, 0, 1)
		m.ServerLoad.GPU = clamp(m.ServerLoad.GPU+steps[7]*0.04, 0, 1)
		m.ServerLoad.RAM = clamp(m.ServerLoad.RAM+steps[8]*0.02, 0, 1)
		m.APILatencyMs = clamp(m.APILatencyMs+steps[9]*10, 5, 1000)
		if steps[10] > 0.95 {
			m.APIErrors++
		}
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
