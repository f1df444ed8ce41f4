package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rental-site/internal/clock"
	"rental-site/internal/hashing"
	"rental-site/internal/metrics"
	"rental-site/internal/models"
	"rental-site/internal/throttle"
)

type resetFixture struct {
	svc     *PasswordResetService
	auth    *fakeAuth
	pub     *recordingPublisher
	metrics *metrics.Metrics
	clock   *clock.Fake
	th      *throttle.Throttle
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	th := throttle.New(throttle.Config{MaxAttempts: 3, Window: 15 * time.Minute}, throttle.WithClock(clk))
	hasher, err := hashing.NewHasher("test-pepper")
	require.NoError(t, err)

	f := &resetFixture{
		auth:    &fakeAuth{},
		pub:     &recordingPublisher{},
		metrics: metrics.New(),
		clock:   clk,
		th:      th,
	}
	f.svc = NewPasswordResetService(th, f.auth, hasher, f.pub, f.metrics, "https://rental.test/reset", zap.NewNop())
	return f
}

func TestRequestReset_ThrottlesAfterMaxAttempts(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", "a@b.com", ""))
	}
	err := f.svc.RequestReset(ctx, "1.2.3.4", "a@b.com", "")
	assert.ErrorIs(t, err, ErrRateLimited)

	assert.Equal(t, 3, f.auth.callCount(), "throttled request must not reach the backend")
	assert.Equal(t, "https://rental.test/reset", f.auth.redirect)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.PasswordResets.WithLabelValues(metrics.ResetAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PasswordResets.WithLabelValues(metrics.ResetThrottled)))
	assert.Equal(t, []string{
		models.EventPasswordResetRequested,
		models.EventPasswordResetRequested,
		models.EventPasswordResetRequested,
		models.EventPasswordResetThrottled,
	}, f.pub.securityTypes())
}

func TestRequestReset_EmailIsNormalized(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", "A@B.com", ""))
	require.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", " a@b.COM ", ""))
	require.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", "a@b.com", ""))
	assert.ErrorIs(t, f.svc.RequestReset(ctx, "1.2.3.4", "a@B.com", ""), ErrRateLimited)
	assert.Equal(t, []string{"a@b.com", "a@b.com", "a@b.com"}, f.auth.calls)
}

func TestRequestReset_KeysAreIndependent(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", "a@b.com", ""))
	}
	assert.NoError(t, f.svc.RequestReset(ctx, "5.6.7.8", "a@b.com", ""))
	assert.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", "c@d.com", ""))
}

func TestRequestReset_WindowReset(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", "a@b.com", ""))
	}
	require.ErrorIs(t, f.svc.RequestReset(ctx, "1.2.3.4", "a@b.com", ""), ErrRateLimited)

	f.clock.Advance(15*time.Minute + time.Millisecond)
	assert.NoError(t, f.svc.RequestReset(ctx, "1.2.3.4", "a@b.com", ""))
}

func TestRequestReset_BackendErrorIsHidden(t *testing.T) {
	f := newResetFixture(t)
	f.auth.err = errors.New("smtp relay unavailable")

	err := f.svc.RequestReset(context.Background(), "1.2.3.4", "a@b.com", "req-1")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PasswordResets.WithLabelValues(metrics.ResetBackendError)))

	require.Len(t, f.pub.security, 1)
	ev := f.pub.security[0]
	assert.Equal(t, models.EventPasswordResetBackendError, ev.EventType)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.NotContains(t, ev.Fingerprint, "a@b.com")
}

func TestRequestReset_ConcurrentRequestsRespectLimit(t *testing.T) {
	f := newResetFixture(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	limited := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(f.svc.RequestReset(context.Background(), "1.2.3.4", "a@b.com", ""), ErrRateLimited) {
				mu.Lock()
				limited++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 17, limited)
	assert.Equal(t, 3, f.auth.callCount())
}

func TestRetryAfter(t *testing.T) {
	f := newResetFixture(t)
	assert.Equal(t, 15*time.Minute, f.svc.RetryAfter())
}
