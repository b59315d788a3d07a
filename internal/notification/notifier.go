package notification

//go:generate mockgen -source=notifier.go -destination=mock_notifier.go -package=notification

import (
	"context"
	"fmt"
	"time"

	"auction-bidding/internal/models"
	"auction-bidding/utils"

	"github.com/viney-shih/goroutines"
)

// Notifier receives outbid events after a bid has been committed
type Notifier interface {
	Notify(ctx context.Context, event models.OutbidEvent) error
}

// Pusher delivers a message to whoever is connected as identity
type Pusher interface {
	PushTo(identity string, msg models.PushMessage)
}

// FormatOutbidMessage builds the text pushed to an outbid user
func FormatOutbidMessage(event models.OutbidEvent) models.PushMessage {
	return models.PushMessage{
		Message: fmt.Sprintf("New bid of %s on product with ID %s", event.NewPrice.String(), event.ListingID),
	}
}

// dispatcher hands tasks to a bounded worker pool. A caller waits at most
// schedule for a free queue slot and never for the task itself.
type dispatcher struct {
	pool     *goroutines.Pool
	schedule time.Duration
}

func newDispatcher(workers int, scheduleTimeout time.Duration) dispatcher {
	if workers <= 0 {
		workers = 1
	}
	prealloc := workers / 4
	if prealloc == 0 {
		prealloc = 1
	}
	return dispatcher{
		pool:     goroutines.NewPool(workers, goroutines.WithTaskQueueLength(1024), goroutines.WithPreAllocWorkers(prealloc)),
		schedule: scheduleTimeout,
	}
}

func (d dispatcher) dispatch(task func()) error {
	return d.pool.ScheduleWithTimeout(d.schedule, task)
}

func (d dispatcher) release() {
	d.pool.Release()
}

// PoolNotifier pushes events to the live channel from a bounded worker pool
type PoolNotifier struct {
	pusher Pusher
	tasks  dispatcher
}

// NewPoolNotifier creates a PoolNotifier with the given number of workers.
// scheduleTimeout bounds how long Notify waits for a free queue slot.
func NewPoolNotifier(pusher Pusher, workers int, scheduleTimeout time.Duration) *PoolNotifier {
	return &PoolNotifier{
		pusher: pusher,
		tasks:  newDispatcher(workers, scheduleTimeout),
	}
}

// Notify hands the event to a worker. It fails only when the queue stayed full.
func (n *PoolNotifier) Notify(_ context.Context, event models.OutbidEvent) error {
	msg := FormatOutbidMessage(event)
	err := n.tasks.dispatch(func() {
		n.pusher.PushTo(event.PreviousBidder, msg)
	})
	if err != nil {
		return fmt.Errorf("notification: schedule push to %s: %w", event.PreviousBidder, err)
	}

	utils.Debug("Outbid notification scheduled", map[string]any{
		"listing_id": event.ListingID,
		"recipient":  event.PreviousBidder,
	})
	return nil
}

// Close stops the workers once queued pushes have run
func (n *PoolNotifier) Close() {
	n.tasks.release()
}
