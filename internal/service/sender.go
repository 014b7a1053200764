package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/sms"
)

var (
	// ErrBulkTooLarge is returned when a bulk request exceeds the configured size.
	ErrBulkTooLarge = errors.New("bulk request exceeds maximum size")
	// ErrNoGateway is returned when neither the request nor the manager
	// names a gateway.
	ErrNoGateway = errors.New("no gateway specified and no default selected")
)

// Dispatcher is the part of manager.Manager the sender needs.
type Dispatcher interface {
	SendVia(ctx context.Context, name string, msg message.Envelope) (*sms.Result, error)
	Selected() string
}

// BulkItem is the outcome of one message in a bulk send. Err carries
// setup failures (unknown gateway, filter error); gateway failures are
// reported in Result.
type BulkItem struct {
	Index  int
	Result *sms.Result
	Err    error
}

// SenderService sends single messages and bulk batches through the manager.
type SenderService interface {
	Send(ctx context.Context, gateway string, msg message.Envelope) (*sms.Result, error)
	SendBulk(ctx context.Context, gateway string, msgs []message.Envelope) ([]BulkItem, error)
}

type senderService struct {
	manager Dispatcher

	maxWorkers        int
	perMessageTimeout time.Duration
	maxBulk           int
	observeBulk       func(size int)
}

// SenderOption customises a sender.
type SenderOption func(*senderService)

// WithBulkObserver is called with the size of every accepted bulk request.
func WithBulkObserver(fn func(size int)) SenderOption {
	return func(s *senderService) { s.observeBulk = fn }
}

// NewSenderService creates a sender. Invalid pool settings fall back to
// sane defaults.
func NewSenderService(
	m Dispatcher,
	maxWorkers int,
	perMessageTimeout time.Duration,
	maxBulk int,
	opts ...SenderOption,
) SenderService {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if perMessageTimeout <= 0 {
		perMessageTimeout = 30 * time.Second
	}
	if maxBulk <= 0 {
		maxBulk = 500
	}
	s := &senderService{
		manager:           m,
		maxWorkers:        maxWorkers,
		perMessageTimeout: perMessageTimeout,
		maxBulk:           maxBulk,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send dispatches msg through gateway, or through the selected gateway
// when gateway is empty.
func (s *senderService) Send(ctx context.Context, gateway string, msg message.Envelope) (*sms.Result, error) {
	name, err := s.resolve(gateway)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.perMessageTimeout)
	defer cancel()
	return s.manager.SendVia(ctx, name, msg)
}

// SendBulk sends msgs with a bounded worker pool. Items come back in input
// order. A cancelled context leaves the remaining items with ctx.Err().
func (s *senderService) SendBulk(ctx context.Context, gateway string, msgs []message.Envelope) ([]BulkItem, error) {
	if len(msgs) > s.maxBulk {
		return nil, fmt.Errorf("%d messages (max %d): %w", len(msgs), s.maxBulk, ErrBulkTooLarge)
	}
	name, err := s.resolve(gateway)
	if err != nil {
		return nil, err
	}
	if s.observeBulk != nil {
		s.observeBulk(len(msgs))
	}

	items := make([]BulkItem, len(msgs))
	if len(msgs) == 0 {
		return items, nil
	}

	l := logger.Ctx(ctx, "sender")
	workerCount := min(len(msgs), s.maxWorkers)
	l.Info().
		Int("messages", len(msgs)).
		Int("workers", workerCount).
		Str("gateway", name).
		Msg("processing bulk send")

	var wg sync.WaitGroup

	// Worker w handles indices w, w+workerCount, w+2*workerCount, ...
	for w := 0; w < workerCount; w++ {
		wg.Add(1)

		go func(workerID, start int) {
			defer wg.Done()

			for i := start; i < len(msgs); i += workerCount {
				items[i].Index = i

				if err := ctx.Err(); err != nil {
					items[i].Err = err
					continue
				}

				msgCtx, cancel := context.WithTimeout(ctx, s.perMessageTimeout)
				res, err := s.manager.SendVia(msgCtx, name, msgs[i])
				cancel()

				items[i].Result = res
				items[i].Err = err
				if err != nil {
					l.Warn().Err(err).Int("worker", workerID).Int("index", i).Msg("bulk item failed")
				}
			}
		}(w+1, w)
	}

	wg.Wait()

	l.Info().Str("gateway", name).Msg("bulk send completed")
	return items, nil
}

func (s *senderService) resolve(gateway string) (string, error) {
	if gateway != "" {
		return gateway, nil
	}
	if name := s.manager.Selected(); name != "" {
		return name, nil
	}
	return "", ErrNoGateway
}
