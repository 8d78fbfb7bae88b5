package notifier

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"CryptoTracker/internal/model"
)

// Sender delivers a text message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// FailureAlerter sends one alert when consecutive failed cycles reach the
// threshold, and one recovery message at the next successful cycle.
type FailureAlerter struct {
	sender    Sender
	threshold int
	retries   int
	log       *zap.Logger

	mu       sync.Mutex
	failures int
	alerted  bool
}

// NewFailureAlerter creates a FailureAlerter. A non-positive threshold means 3.
func NewFailureAlerter(sender Sender, threshold int, log *zap.Logger) *FailureAlerter {
	if threshold <= 0 {
		threshold = 3
	}
	return &FailureAlerter{sender: sender, threshold: threshold, retries: 3, log: log}
}

// Observe records the cycle outcome and sends a message on a state change.
func (a *FailureAlerter) Observe(ctx context.Context, res model.CycleResult) {
	var text string

	a.mu.Lock()
	if res.OK {
		if a.alerted {
			text = FormatRecovered(res, a.failures)
		}
		a.failures = 0
		a.alerted = false
	} else {
		a.failures++
		if a.failures >= a.threshold && !a.alerted {
			a.alerted = true
			text = FormatCycleFailure(res, a.failures)
		}
	}
	a.mu.Unlock()

	if text == "" {
		return
	}
	if err := a.sender.SendWithRetry(ctx, text, a.retries); err != nil {
		a.log.Error("send notification", zap.Error(err))
	}
}
