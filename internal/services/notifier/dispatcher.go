package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnlogistics/freightdesk/internal/broker/messages"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Dispatcher consumes status-change messages and turns them into emails.
// Handle is wired as the broker consumer callback: a nil return commits the
// message, an error leaves it for redelivery.
type Dispatcher struct {
	notifier *Notifier
	rl       RateLimiter

	rateLimitPerMinute int64

	startedAtUnixNano int64
	totalReceived     atomic.Int64
	totalSent         atomic.Int64
	totalSkipped      atomic.Int64
	totalErrors       atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func NewDispatcher(n *Notifier, rl RateLimiter, rlPerMin int64) *Dispatcher {
	if rlPerMin <= 0 {
		rlPerMin = 120
	}
	return &Dispatcher{
		notifier:           n,
		rl:                 rl,
		rateLimitPerMinute: rlPerMin,
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

type Stats struct {
	StartedAt     time.Time `json:"startedAt"`
	TotalReceived int64     `json:"totalReceived"`
	TotalSent     int64     `json:"totalSent"`
	TotalSkipped  int64     `json:"totalSkipped"`
	TotalErrors   int64     `json:"totalErrors"`
	LastError     string    `json:"lastError,omitempty"`
}

func (d *Dispatcher) Stats() Stats {
	st := Stats{
		StartedAt:     time.Unix(0, d.startedAtUnixNano).UTC(),
		TotalReceived: d.totalReceived.Load(),
		TotalSent:     d.totalSent.Load(),
		TotalSkipped:  d.totalSkipped.Load(),
		TotalErrors:   d.totalErrors.Load(),
	}
	d.lastErrorMu.Lock()
	st.LastError = d.lastError
	d.lastErrorMu.Unlock()
	return st
}

func (d *Dispatcher) Handle(ctx context.Context, key, value []byte) error {
	d.totalReceived.Add(1)

	var msg messages.OrderStatusChanged
	if err := json.Unmarshal(value, &msg); err != nil {
		// A poisoned message would block the partition forever; drop it.
		slog.Error("bad status change message, dropping", "key", string(key), "err", err)
		d.noteError(err)
		return nil
	}

	if d.rl != nil {
		minuteKey := "rl:notify:" + time.Now().UTC().Format("200601021504")
		allowed, n, err := d.rl.Allow(ctx, minuteKey, d.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			d.noteError(err)
			return err
		}
		if !allowed {
			slog.Warn("notification rate limit exceeded, deferring", "count", n)
			return fmt.Errorf("rate limit exceeded (%d/min)", d.rateLimitPerMinute)
		}
	}

	res, err := d.notifier.Notify(ctx, msg)
	if err != nil {
		// Consumed anyway: a broken relay must not wedge the partition, the
		// dedup claim already burned for this key keeps retries quiet.
		slog.Error("notify failed", "order_id", msg.OrderID, "status", msg.NewStatus, "err", err)
		d.noteError(err)
		return nil
	}
	if res.Sent {
		d.totalSent.Add(1)
	}
	if res.Skipped {
		d.totalSkipped.Add(1)
	}
	return nil
}

func (d *Dispatcher) noteError(err error) {
	d.totalErrors.Add(1)
	d.lastErrorMu.Lock()
	d.lastError = err.Error()
	d.lastErrorMu.Unlock()
}
