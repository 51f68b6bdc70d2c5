// Package cardcache persists catalog cards to the local cache in the
// background so imports never wait on cache writes.
package cardcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
)

// Store is the persistence side of the write-through queue.
type Store interface {
	SaveCards(ctx context.Context, cards []deckimport.CatalogCardRef) error
}

// Config configures a Writer.
type Config struct {
	QueueSize    int           // Buffered batches before Submit drops (default: 64)
	WriteTimeout time.Duration // Per-batch write timeout (default: 10s)
}

// DefaultConfig returns the default writer configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:    64,
		WriteTimeout: 10 * time.Second,
	}
}

// Stats counts what the writer has done since it started.
type Stats struct {
	Written int
	Dropped int
	Failed  int
}

// Writer hands card batches to a single background worker that saves them
// to the Store. Submit never blocks; when the queue is full the batch is
// dropped and logged.
type Writer struct {
	store  Store
	config Config
	logger *zap.Logger

	queue chan []deckimport.CatalogCardRef
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
	stats  Stats
}

// NewWriter creates a Writer and starts its worker. Call Close to drain
// the queue and stop the worker.
func NewWriter(store Store, config Config, logger *zap.Logger) *Writer {
	defaults := DefaultConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Writer{
		store:  store,
		config: config,
		logger: logger,
		queue:  make(chan []deckimport.CatalogCardRef, config.QueueSize),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

// Submit queues cards for persistence. It returns immediately.
func (w *Writer) Submit(cards []deckimport.CatalogCardRef) {
	if len(cards) == 0 {
		return
	}
	batch := make([]deckimport.CatalogCardRef, len(cards))
	copy(batch, cards)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.stats.Dropped += len(batch)
		w.logger.Warn("Card cache writer closed, dropping cards", zap.Int("cards", len(batch)))
		return
	}

	select {
	case w.queue <- batch:
	default:
		w.stats.Dropped += len(batch)
		w.logger.Warn("Card cache queue full, dropping cards",
			zap.Int("cards", len(batch)),
			zap.Int("queueSize", w.config.QueueSize))
	}
}

// Close stops accepting cards, waits for queued batches to be written, and
// stops the worker. It is safe to call more than once.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()
}

// Stats returns a snapshot of the writer counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) worker() {
	defer w.wg.Done()

	for batch := range w.queue {
		err := w.write(batch)

		w.mu.Lock()
		if err != nil {
			w.stats.Failed += len(batch)
		} else {
			w.stats.Written += len(batch)
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Warn("Failed to write cards to cache", zap.Int("cards", len(batch)), zap.Error(err))
			continue
		}
		w.logger.Debug("Cached catalog cards", zap.Int("cards", len(batch)))
	}
}

// write saves one batch. A panicking store fails the batch instead of
// killing the worker.
func (w *Writer) write(batch []deckimport.CatalogCardRef) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while saving cards: %v", p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), w.config.WriteTimeout)
	defer cancel()

	return w.store.SaveCards(ctx, batch)
}
