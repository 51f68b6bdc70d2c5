package cardcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StaleDeleter removes cached cards not refreshed within olderThan.
type StaleDeleter interface {
	DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PrunerConfig controls periodic cache pruning.
type PrunerConfig struct {
	// Interval between prune runs.
	Interval time.Duration

	// TTL is the age after which a cached card is deleted.
	TTL time.Duration

	// Timeout bounds a single prune run.
	Timeout time.Duration
}

// PrunerStatus is a snapshot of pruner activity.
type PrunerStatus struct {
	Running   bool
	Runs      int
	Failures  int
	Deleted   int64
	LastRun   time.Time
	LastError error
}

// Pruner deletes stale cache entries on a fixed interval.
type Pruner struct {
	store  StaleDeleter
	config PrunerConfig
	logger *zap.Logger

	mu      sync.Mutex
	status  PrunerStatus
	stopCh  chan struct{}
	running sync.WaitGroup
}

// NewPruner creates a stopped pruner.
func NewPruner(store StaleDeleter, config PrunerConfig, logger *zap.Logger) *Pruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &Pruner{store: store, config: config, logger: logger}
}

// Start runs one prune immediately and then every Interval until Stop.
func (p *Pruner) Start() error {
	if p.config.Interval <= 0 {
		return fmt.Errorf("prune interval must be positive: %s", p.config.Interval)
	}
	if p.config.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive: %s", p.config.TTL)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.Running {
		return fmt.Errorf("pruner is already running")
	}
	p.status.Running = true
	p.stopCh = make(chan struct{})

	p.running.Add(1)
	go p.run(p.stopCh)
	return nil
}

// Stop halts the pruner and waits for an in-flight run. Stopping a
// stopped pruner is a no-op.
func (p *Pruner) Stop() {
	p.mu.Lock()
	if !p.status.Running {
		p.mu.Unlock()
		return
	}
	p.status.Running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.running.Wait()
}

// Status returns a snapshot of pruner activity.
func (p *Pruner) Status() PrunerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Pruner) run(stop <-chan struct{}) {
	defer p.running.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	p.prune(ctx)
	for {
		select {
		case <-ticker.C:
			p.prune(ctx)
		case <-stop:
			return
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	n, err := p.store.DeleteStale(ctx, p.config.TTL)

	p.mu.Lock()
	p.status.Runs++
	p.status.LastRun = time.Now()
	p.status.LastError = err
	if err != nil {
		p.status.Failures++
	} else {
		p.status.Deleted += n
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("Card cache prune failed", zap.Error(err))
		return
	}
	if n > 0 {
		p.logger.Info("Pruned stale cached cards", zap.Int64("deleted", n), zap.Duration("ttl", p.config.TTL))
	}
}
