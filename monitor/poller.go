package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/himakhaitan/redislens/gateway"
	"go.uber.org/zap"
)

const DefaultInterval = 5 * time.Second

var ErrPollInProgress = errors.New("previous poll has not completed")

// Snapshot is the result of one successful poll.
type Snapshot struct {
	Info    Info
	Stats   Stats
	Version string
	At      time.Time
}

// Poller reads INFO from one server on a fixed interval. A tick that fires
// while the previous poll is still running is skipped. The last successful
// snapshot is kept across failures.
type Poller struct {
	gw       gateway.Gateway
	conn     gateway.ConnParams
	interval time.Duration
	logger   *zap.Logger

	running atomic.Bool
	skipped atomic.Uint64
	polls   atomic.Uint64
	failed  atomic.Uint64

	mu      sync.RWMutex
	last    *Snapshot
	lastErr error

	lifeMu sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(gw gateway.Gateway, conn gateway.ConnParams, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{gw: gw, conn: conn, interval: interval, logger: logger}
}

// Start begins polling in the background, with a first poll right away.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.loop(ctx)
	p.logger.Info("Monitor started", zap.String("conn", p.conn.String()), zap.Duration("interval", p.interval))
}

// Stop cancels the loop and any in-flight poll, and waits for both to exit.
func (p *Poller) Stop() {
	p.lifeMu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.lifeMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
	p.logger.Info("Monitor stopped")
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.logger.Debug("Skipping monitor tick, previous poll still running")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)
		_, _ = p.poll(ctx)
	}()
}

// Poll runs one poll now. It returns ErrPollInProgress instead of overlapping
// with a poll that is already running.
func (p *Poller) Poll(ctx context.Context) (Snapshot, error) {
	if !p.running.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		return Snapshot{}, ErrPollInProgress
	}
	defer p.running.Store(false)
	return p.poll(ctx)
}

func (p *Poller) poll(ctx context.Context) (Snapshot, error) {
	p.polls.Add(1)
	fields, err := p.gw.ServerInfo(ctx, p.conn)
	if err != nil {
		p.failed.Add(1)
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		if ctx.Err() == nil {
			p.logger.Warn("Monitor poll failed", zap.String("conn", p.conn.String()), zap.Error(err))
		}
		return Snapshot{}, err
	}

	info := NewInfo(fields)
	snap := Snapshot{Info: info, Stats: Summarize(info, p.conn.DB), At: time.Now()}
	if v, err := info.Version(); err == nil {
		snap.Version = v.String()
	}

	p.mu.Lock()
	p.last = &snap
	p.lastErr = nil
	p.mu.Unlock()
	return snap, nil
}

// Last returns the most recent successful snapshot.
func (p *Poller) Last() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Snapshot{}, false
	}
	return *p.last, true
}

// Up reports whether the most recent poll succeeded.
func (p *Poller) Up() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last != nil && p.lastErr == nil
}

func (p *Poller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *Poller) Skipped() uint64 { return p.skipped.Load() }

func (p *Poller) Polls() uint64 { return p.polls.Load() }

func (p *Poller) Failures() uint64 { return p.failed.Load() }
