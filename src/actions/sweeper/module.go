package sweeper

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/stake-plus/govproposals/src/actions/core"
	"github.com/stake-plus/govproposals/src/notify"
	"github.com/stake-plus/govproposals/src/proposals"
)

var _ core.Module = (*Module)(nil)

const defaultInterval = 10 * time.Second

// Resolver is the part of the engine the sweeper drives.
type Resolver interface {
	ResolveExpired(ctx context.Context, now time.Time) ([]proposals.Proposal, error)
}

type Module struct {
	renderer proposals.Renderer
	engine   Resolver
	notifier notify.Notifier
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewModule(engine Resolver, notifier notify.Notifier, renderer proposals.Renderer, interval time.Duration) *Module {
	if interval <= 0 {
		interval = defaultInterval
	}
	if notifier == nil {
		notifier = notify.Log{}
	}
	return &Module{
		renderer: renderer,
		engine:   engine,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Name implements actions.Module.
func (m *Module) Name() string { return "sweeper" }

func (m *Module) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()

	log.Printf("sweeper: started (interval=%v)", m.interval)
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Module) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.SweepOnce(ctx); err != nil {
			log.Printf("sweeper: sweep failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce resolves every expired proposal and announces each one that this
// call closed. Notification failures are logged and do not fail the sweep.
// Proposals resolved before a storage error are still announced.
func (m *Module) SweepOnce(ctx context.Context) ([]proposals.Proposal, error) {
	resolved, err := m.engine.ResolveExpired(ctx, m.now())
	for i := range resolved {
		p := resolved[i]
		text := m.renderer.Render(&p)
		if nerr := m.notifier.Notify(ctx, p, text); nerr != nil {
			log.Printf("sweeper: announce proposal %d failed: %v", p.ID, nerr)
		}
	}
	if len(resolved) > 0 {
		log.Printf("sweeper: resolved %d proposal(s)", len(resolved))
	}
	return resolved, err
}
