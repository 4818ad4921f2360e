// Package health runs the periodic provider probe loop.
package health

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hearthd/hearth/internal/provider"
)

// Prober probes all providers on an interval. Results update
// advisory status only; request dispatch never consults them.
type Prober struct {
	manager  *provider.Manager
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewProber creates a prober. A zero interval defaults to 60s.
func NewProber(manager *provider.Manager, interval time.Duration) *Prober {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Prober{
		manager:  manager,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the probe loop. An immediate probe runs first, then
// one per interval until Stop.
func (p *Prober) Start(ctx context.Context) {
	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.probe(ctx)
		for {
			select {
			case <-ticker.C:
				p.probe(ctx)
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *Prober) probe(ctx context.Context) {
	statuses := p.manager.TestAll(ctx)
	online := 0
	for _, st := range statuses {
		if st.Online {
			online++
		}
	}
	log.Debug().Int("online", online).Int("total", len(statuses)).Msg("Provider probe")
}

// Stop halts the loop and waits for it to exit.
func (p *Prober) Stop() {
	close(p.stop)
	<-p.done
}
