package service

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/pkg/config"
)

// ChangeEvent is one record-change notification received from the change
// feed.
type ChangeEvent struct {
	Channel string
	Payload string
}

// RealtimeService subscribes to the Redis change feed and fans change
// notifications out to registered listeners. The hosted backend publishes
// one message per mutated row, keyed by table in the channel name.
type RealtimeService struct {
	client *redis.Client
	cfg    config.RealtimeConfig
	logger *zap.Logger

	mu        sync.Mutex
	listeners []func(context.Context, ChangeEvent)
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRealtimeService constructs the service.
func NewRealtimeService(client *redis.Client, cfg config.RealtimeConfig, logger *zap.Logger) *RealtimeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeService{client: client, cfg: cfg, logger: logger}
}

// OnChange registers a listener invoked for every change notification.
// Listeners must be registered before Start.
func (s *RealtimeService) OnChange(fn func(context.Context, ChangeEvent)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Start begins consuming the change feed. It is a no-op when the feed is
// disabled or no Redis client is configured.
func (s *RealtimeService) Start(ctx context.Context) {
	if !s.cfg.Enabled || s.client == nil {
		return
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.consume(runCtx)
}

// Stop terminates the subscription and waits for the consumer to exit.
func (s *RealtimeService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *RealtimeService) consume(ctx context.Context) {
	defer close(s.done)

	sub := s.client.PSubscribe(ctx, s.cfg.ChannelPattern)
	defer func() {
		if err := sub.Close(); err != nil {
			s.logger.Warn("change feed close failed", zap.Error(err))
		}
	}()

	s.logger.Info("change feed started", zap.String("pattern", s.cfg.ChannelPattern))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				s.logger.Warn("change feed channel closed")
				return
			}
			s.dispatch(ctx, ChangeEvent{Channel: msg.Channel, Payload: msg.Payload})
		}
	}
}

func (s *RealtimeService) dispatch(ctx context.Context, event ChangeEvent) {
	s.mu.Lock()
	listeners := make([]func(context.Context, ChangeEvent), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ctx, event)
	}
}
