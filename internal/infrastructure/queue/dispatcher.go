package queue

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher hands lifecycle events to a fixed set of workers, sharded by
// user id so that one user's suspend and activate are handled in order.
type Dispatcher struct {
	workers []chan domain.LifecycleEvent
	service ports.LifecycleService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.LifecycleDispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.LifecycleService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.LifecycleEvent, numWorkers),
		service: service,
		log:     log.With().Str("component", "lifecycle_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.LifecycleEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. They run until ctx is cancelled or Stop is
// called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends the event to the worker owning its user. It blocks only
// when that worker's buffer is full.
func (d *Dispatcher) Enqueue(event domain.LifecycleEvent) {
	idx := d.shardIndex(event.UserID)
	d.workers[idx] <- event
	metrics.LifecycleQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
}

// Stop closes the queues and waits for the workers to drain them. Enqueue
// must not be called afterwards.
func (d *Dispatcher) Stop() {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
}

func (d *Dispatcher) shardIndex(userID int64) int {
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.LifecycleEvent) {
	defer d.wg.Done()
	depth := metrics.LifecycleQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Int64("user_id", event.UserID).
					Str("action", string(event.Action)).
					Int("worker_id", id).
					Msg("lifecycle event processing failed")
			}
		}
	}
}
