package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CryptoTracker/internal/model"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return nil
}

func TestFailureAlerter_ThresholdAndRecovery(t *testing.T) {
	ctx := context.Background()
	sender := &captureSender{}
	a := NewFailureAlerter(sender, 3, zap.NewNop())

	failed := model.CycleResult{OK: false, Err: errors.New("coingecko status 429: <html>")}
	a.Observe(ctx, failed)
	a.Observe(ctx, failed)
	require.Empty(t, sender.msgs)

	a.Observe(ctx, failed)
	require.Len(t, sender.msgs, 1)
	require.Contains(t, sender.msgs[0], "Consecutive failed cycles: 3")
	require.Contains(t, sender.msgs[0], "&lt;html&gt;")

	// no repeat while still failing
	a.Observe(ctx, failed)
	require.Len(t, sender.msgs, 1)

	a.Observe(ctx, model.CycleResult{OK: true, Stored: 45})
	require.Len(t, sender.msgs, 2)
	require.Contains(t, sender.msgs[1], "recovered")
	require.Contains(t, sender.msgs[1], "Failed cycles before recovery: 4")

	a.Observe(ctx, model.CycleResult{OK: true})
	require.Len(t, sender.msgs, 2)
}

func TestFailureAlerter_SuccessResetsCount(t *testing.T) {
	ctx := context.Background()
	sender := &captureSender{}
	a := NewFailureAlerter(sender, 2, zap.NewNop())

	a.Observe(ctx, model.CycleResult{})
	a.Observe(ctx, model.CycleResult{OK: true})
	a.Observe(ctx, model.CycleResult{})
	require.Empty(t, sender.msgs)
}

func TestTelegramNotifier_Send(t *testing.T) {
	var (
		mu               sync.Mutex
		gotPath, gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		mu.Lock()
		gotPath, gotBody = r.URL.Path, buf.String()
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token123", "42", "", zap.NewNop())
	tn.APIBase = srv.URL

	require.NoError(t, tn.Send(context.Background(), "hello"))
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/bottoken123/sendMessage", gotPath)
	require.Contains(t, gotBody, `"chat_id":"42"`)
	require.Contains(t, gotBody, `"parse_mode":"HTML"`)
}

func TestTelegramNotifier_SendWithRetryExhausts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("t", "1", "", zap.NewNop())
	tn.APIBase = srv.URL

	err := tn.SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
	require.Equal(t, int32(2), calls.Load())
}

func TestTelegramNotifier_SendWithRetryHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("t", "1", "", zap.NewNop())
	tn.APIBase = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := tn.SendWithRetry(ctx, "x", 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
