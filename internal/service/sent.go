package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/oggyb/polysms/internal/cache"
	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/sms"
)

// ErrSentNotFound is returned by Lookup for unknown or expired ids.
var ErrSentNotFound = errors.New("sent message not found")

// dailyTTL keeps a day's counters around until the next day is complete.
const dailyTTL = 48 * time.Hour

// SentRecord is what the sent log keeps per message.
type SentRecord struct {
	ID     string      `json:"id"`
	To     string      `json:"to"`
	SentAt time.Time   `json:"sentAt"`
	Result *sms.Result `json:"result"`
}

// SentLog records send results in the cache. Its AfterSend method is
// installed as an AfterSmsSent action.
type SentLog struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSentLog creates a sent log whose records expire after ttl.
func NewSentLog(c cache.Cache, ttl time.Duration) *SentLog {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SentLog{cache: c, ttl: ttl, now: time.Now}
}

// AfterSend stores the result under the envelope id and bumps the daily
// counter of the gateway. Both writes are attempted; errors are combined.
func (s *SentLog) AfterSend(ctx context.Context, res *sms.Result, msg message.Envelope) error {
	if res == nil || msg == nil || msg.Base() == nil {
		return nil
	}
	base := msg.Base()
	now := s.now().UTC()

	var errs error

	rec := SentRecord{ID: base.ID.String(), To: base.To, SentAt: now, Result: res}
	data, err := json.Marshal(rec)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("encode sent record %s: %w", rec.ID, err))
	} else if err := s.cache.Set(ctx, cache.SentMessages.Key(rec.ID), string(data), s.ttl); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("cache sent record %s: %w", rec.ID, err))
	}

	key := dailyKey(res.Gateway, res.Success, now)
	if _, err := s.cache.Incr(ctx, key, dailyTTL); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("increment %s: %w", key, err))
	}

	return errs
}

// Lookup returns the record stored for a message id.
func (s *SentLog) Lookup(ctx context.Context, id string) (*SentRecord, error) {
	raw, err := s.cache.Get(ctx, cache.SentMessages.Key(id))
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrSentNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec SentRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode sent record %s: %w", id, err)
	}
	return &rec, nil
}

// DailyCount returns how many sends the gateway made on day with the
// given outcome.
func (s *SentLog) DailyCount(ctx context.Context, gateway string, success bool, day time.Time) (int64, error) {
	raw, err := s.cache.Get(ctx, dailyKey(gateway, success, day.UTC()))
	if errors.Is(err, cache.ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func dailyKey(gateway string, success bool, day time.Time) string {
	outcome := "failed"
	if success {
		outcome = "ok"
	}
	return cache.GatewayDaily.Key(gateway, outcome, day.Format("2006-01-02"))
}
