package engagement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker(clock *fakeClock) *Tracker {
	return New(Options{Now: clock.Now})
}

func TestRecordViewIfNew(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	assert.True(t, tr.RecordViewIfNew("1.2.3.4", "v1"), "first view counts")
	assert.False(t, tr.RecordViewIfNew("1.2.3.4", "v1"), "repeat view is ignored")
	assert.True(t, tr.RecordViewIfNew("1.2.3.4", "v2"), "other video counts")
	assert.True(t, tr.RecordViewIfNew("5.6.7.8", "v1"), "other client counts")

	clock.Advance(23 * time.Hour)
	assert.False(t, tr.RecordViewIfNew("1.2.3.4", "v1"), "still inside the dedup window")

	clock.Advance(2 * time.Hour)
	assert.True(t, tr.RecordViewIfNew("1.2.3.4", "v1"), "window elapsed")
}

func TestToggleLike(t *testing.T) {
	tr := newTestTracker(newFakeClock())

	liked, delta := tr.ToggleLike("1.2.3.4", "v1")
	assert.True(t, liked)
	assert.Equal(t, 1, delta)

	liked, delta = tr.ToggleLike("1.2.3.4", "v1")
	assert.False(t, liked)
	assert.Equal(t, -1, delta)

	liked, delta = tr.ToggleLike("1.2.3.4", "v1")
	assert.True(t, liked)
	assert.Equal(t, 1, delta)
}

func TestViewsAndLikesAreIndependent(t *testing.T) {
	tr := newTestTracker(newFakeClock())

	require.True(t, tr.RecordViewIfNew("c", "v1"))
	liked, _ := tr.ToggleLike("c", "v1")
	assert.True(t, liked, "a view must not count as a like")
}

func TestCanComment_Cooldown(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	assert.True(t, tr.CanComment("c"))
	assert.False(t, tr.CanComment("c"), "second comment within 4s is throttled")
	assert.True(t, tr.CanComment("other"), "throttle is per client")

	clock.Advance(3 * time.Second)
	assert.False(t, tr.CanComment("c"))

	clock.Advance(time.Second)
	assert.True(t, tr.CanComment("c"), "cooldown elapsed")
}

func TestCanComment_RejectedAttemptDoesNotExtendCooldown(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	require.True(t, tr.CanComment("c"))
	clock.Advance(2 * time.Second)
	require.False(t, tr.CanComment("c"))
	clock.Advance(2 * time.Second)
	assert.True(t, tr.CanComment("c"))
}

func TestPrune(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.RecordViewIfNew("c", "v1")
	tr.ToggleLike("c", "v1")
	tr.CanComment("c")
	require.Equal(t, 3, tr.Size())

	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, tr.Prune(), "only the comment throttle is past its horizon")
	assert.Equal(t, 2, tr.Size())

	clock.Advance(23 * time.Hour)
	assert.Equal(t, 0, tr.Prune(), "views and likes are kept until 24h")

	clock.Advance(time.Hour)
	assert.Equal(t, 2, tr.Prune())
	assert.Zero(t, tr.Size())
}

func TestRun_StopsOnCancel(t *testing.T) {
	tr := New(Options{PruneInterval: time.Millisecond, CommentCooldown: time.Millisecond})
	tr.CanComment("c")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return tr.Size() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTracker_ConcurrentLikes(t *testing.T) {
	tr := New(Options{})

	var wg sync.WaitGroup
	total := 0
	var mu sync.Mutex
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, delta := tr.ToggleLike("c", "v1")
			mu.Lock()
			total += delta
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, total, "an even number of toggles nets out")
}
