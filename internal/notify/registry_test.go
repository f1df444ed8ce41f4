package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-site/internal/clock"
)

func TestRegistry_QueuePerSession(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	r := NewRegistry(RegistryConfig{}, WithRegistryClock(fake))
	defer r.Close()

	a := r.Queue("session-a")
	b := r.Queue("session-b")
	require.NotSame(t, a, b)
	assert.Same(t, a, r.Queue("session-a"))

	_, err := a.Show(Input{Kind: KindInfo, Title: "only a"})
	require.NoError(t, err)
	assert.Len(t, a.List(), 1)
	assert.Empty(t, b.List())
	assert.Equal(t, 2, r.Sessions())
}

func TestRegistry_LookupDoesNotCreate(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	r := NewRegistry(RegistryConfig{IdleTTL: time.Minute}, WithRegistryClock(fake))
	defer r.Close()

	q, ok := r.Lookup("nobody")
	assert.False(t, ok)
	assert.Nil(t, q)
	assert.Zero(t, r.Sessions())

	created := r.Queue("s")
	fake.Advance(45 * time.Second)
	got, ok := r.Lookup("s")
	require.True(t, ok)
	assert.Same(t, created, got)

	// the lookup above refreshed the session
	fake.Advance(30 * time.Second)
	assert.Zero(t, r.Sweep())
	assert.Equal(t, 1, r.Sessions())
}

func TestRegistry_SweepEvictsIdleSessions(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	r := NewRegistry(RegistryConfig{IdleTTL: time.Minute}, WithRegistryClock(fake))
	defer r.Close()

	idle := r.Queue("idle")
	_, _ = idle.Show(Input{Kind: KindInfo, Title: "x", Duration: time.Hour})
	fake.Advance(45 * time.Second)
	r.Queue("active")
	fake.Advance(30 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Sessions())
	assert.Empty(t, idle.List())
	assert.Equal(t, 0, fake.Pending(), "evicted queue timers are stopped")
}

func TestRegistry_DefaultDurationApplied(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	r := NewRegistry(RegistryConfig{DefaultDuration: 2 * time.Second}, WithRegistryClock(fake))
	defer r.Close()

	q := r.Queue("s")
	_, _ = q.Show(Input{Kind: KindInfo, Title: "x"})
	assert.Equal(t, 2*time.Second, q.List()[0].Duration)
}

func TestRegistry_CloseTearsDown(t *testing.T) {
	r := NewRegistry(RegistryConfig{SweepInterval: time.Millisecond})
	r.Start(context.Background())

	q := r.Queue("s")
	_, _ = q.Show(Input{Kind: KindInfo, Title: "x", Duration: time.Hour})

	r.Close()
	assert.Equal(t, 0, r.Sessions())
	assert.Empty(t, q.List())
}
