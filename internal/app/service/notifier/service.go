// Package notifier dispatches deposit notifications after a credit commits.
// Delivery is best effort: the queue is bounded, publishes are retried a few
// times behind a circuit breaker and then dropped.
package notifier

import (
	"aishop/internal/app/logger"
	"aishop/internal/app/model"
	"context"
	"errors"
	"github.com/rs/xid"
	"github.com/sony/gobreaker"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrStopped   = errors.New("notifier stopped")
)

type Publisher interface {
	Publish(ctx context.Context, n *model.DepositNotification) error
}

type Service struct {
	logger    logger.Logger
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker

	jobs     chan *model.DepositNotification
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	maxAttempts    int
	retryDelay     time.Duration
	publishTimeout time.Duration
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.logger = l.WithComponent("Notifier.Service")
	}
}

func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.jobs = make(chan *model.DepositNotification, n)
		}
	}
}

func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		s.retryDelay = delay
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.publishTimeout = d
	}
}

func New(p Publisher, opts ...Option) *Service {
	s := &Service{
		logger:         logger.Global().WithComponent("Notifier.Service"),
		publisher:      p,
		jobs:           make(chan *model.DepositNotification, 1024),
		stopCh:         make(chan struct{}),
		maxAttempts:    3,
		retryDelay:     time.Second,
		publishTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	l := s.logger
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "notifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})

	return s
}

func (s *Service) Start(numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		s.wg.Add(1)
		go func(workerID int) {
			defer s.wg.Done()
			l := s.logger.With().Int("worker_id", workerID).Logger()
			for {
				select {
				case <-s.stopCh:
					return
				case n := <-s.jobs:
					s.deliver(logger.Logger{Logger: l}, n)
				}
			}
		}(i)
	}
}

// Stop workers and wait for them; queued notifications are dropped.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Debug().Msg("Service shutdown")
		close(s.stopCh)
	})
	s.wg.Wait()

	if dropped := len(s.jobs); dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("Notifications dropped on shutdown")
	}
}

// Enqueue never blocks.
func (s *Service) Enqueue(n *model.DepositNotification) error {
	select {
	case <-s.stopCh:
		return ErrStopped
	default:
	}

	if n.EventID == "" {
		n.EventID = xid.New().String()
	}
	if n.Type == "" {
		n.Type = model.NotificationTypeDepositCredited
	}

	select {
	case s.jobs <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) deliver(l logger.Logger, n *model.DepositNotification) {
	ll := l.With().Str("event_id", n.EventID).Str("transaction_id", n.TransactionID).Logger()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		_, err := s.breaker.Execute(func() (interface{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
			defer cancel()
			return nil, s.publisher.Publish(ll.WithContext(ctx), n)
		})
		if err == nil {
			ll.Debug().Int("attempt", attempt).Msg("Notification published")
			return
		}

		ll.Warn().Err(err).Int("attempt", attempt).Msg("Notification publish failed")
		if attempt == s.maxAttempts {
			break
		}

		select {
		case <-s.stopCh:
			return
		case <-time.After(s.retryDelay):
		}
	}

	ll.Error().Msg("Notification dropped")
}
