package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"auction-bidding/internal/models"
	"auction-bidding/utils"

	"github.com/redis/go-redis/v9"
)

// OutbidChannel is the redis pub/sub channel outbid events travel on
const OutbidChannel = "auction:outbid"

// ConnectRedis parses url, fills in timeouts and pings the server
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("notification: parse redis url: %w", err)
	}

	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = 5 * time.Second
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = 5 * time.Second
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = 5 * time.Second
	}
	if opt.MaxRetries == 0 {
		opt.MaxRetries = 2
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("notification: ping redis: %w", err)
	}

	utils.Info("Connected to Redis", map[string]any{"addr": opt.Addr})
	return client, nil
}

// DefaultPublishTimeout bounds a single publish, retries included
const DefaultPublishTimeout = 500 * time.Millisecond

// RedisNotifier publishes outbid events so any live channel process can deliver them.
// Publishing runs on its own workers with a context detached from the bid request.
type RedisNotifier struct {
	client         *redis.Client
	channel        string
	tasks          dispatcher
	publishTimeout time.Duration
}

// RedisOption customizes a RedisNotifier
type RedisOption func(*RedisNotifier)

// WithPublishTimeout overrides DefaultPublishTimeout
func WithPublishTimeout(d time.Duration) RedisOption {
	return func(n *RedisNotifier) {
		n.publishTimeout = d
	}
}

// NewRedisNotifier creates a RedisNotifier publishing on OutbidChannel from workers goroutines
func NewRedisNotifier(client *redis.Client, workers int, scheduleTimeout time.Duration, opts ...RedisOption) *RedisNotifier {
	n := &RedisNotifier{
		client:         client,
		channel:        OutbidChannel,
		tasks:          newDispatcher(workers, scheduleTimeout),
		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify encodes the event and queues the publish. Publish failures are only logged.
func (n *RedisNotifier) Notify(_ context.Context, event models.OutbidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notification: encode event: %w", err)
	}

	err = n.tasks.dispatch(func() {
		n.publish(event, payload)
	})
	if err != nil {
		return fmt.Errorf("notification: schedule publish to %s: %w", n.channel, err)
	}
	return nil
}

func (n *RedisNotifier) publish(event models.OutbidEvent, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), n.publishTimeout)
	defer cancel()

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		utils.Warn("Failed to publish outbid event", map[string]any{
			"channel":    n.channel,
			"listing_id": event.ListingID,
			"recipient":  event.PreviousBidder,
			"error":      err.Error(),
		})
	}
}

// Close stops the publishing workers once queued events have been sent
func (n *RedisNotifier) Close() {
	n.tasks.release()
}

// Subscriber relays events from the outbid channel to a Pusher
type Subscriber struct {
	client  *redis.Client
	channel string
	pusher  Pusher
	backoff time.Duration
}

// NewSubscriber creates a Subscriber for OutbidChannel
func NewSubscriber(client *redis.Client, pusher Pusher) *Subscriber {
	return &Subscriber{
		client:  client,
		channel: OutbidChannel,
		pusher:  pusher,
		backoff: time.Second,
	}
}

// Run consumes the channel until ctx is done, resubscribing when the connection drops
func (s *Subscriber) Run(ctx context.Context) {
	for {
		pubsub := s.client.Subscribe(ctx, s.channel)
		ch := pubsub.Channel(redis.WithChannelSize(1024))

		s.consume(ctx, ch)
		_ = pubsub.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff):
			utils.Warn("Resubscribing to outbid channel", map[string]any{"channel": s.channel})
		}
	}
}

func (s *Subscriber) consume(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handle(msg.Payload)
		}
	}
}

func (s *Subscriber) handle(payload string) {
	var event models.OutbidEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		utils.Warn("Dropping malformed outbid event", map[string]any{"error": err.Error()})
		return
	}
	s.pusher.PushTo(event.PreviousBidder, FormatOutbidMessage(event))
}
