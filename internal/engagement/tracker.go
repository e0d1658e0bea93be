// Package engagement keeps the ephemeral per-client state that deduplicates
// views and likes and throttles comments. Nothing here survives a restart.
package engagement

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind distinguishes the engagement maps.
type Kind string

const (
	KindView Kind = "view"
	KindLike Kind = "like"
)

const (
	DefaultCommentCooldown = 4 * time.Second
	DefaultRetention       = 24 * time.Hour
	DefaultPruneInterval   = time.Hour
)

type key struct {
	client  string
	videoID string
	kind    Kind
}

// Options configures a Tracker. Zero values fall back to the defaults.
type Options struct {
	CommentCooldown time.Duration
	Retention       time.Duration // Dedup window for views and likes
	PruneInterval   time.Duration
	Now             func() time.Time
}

// Tracker deduplicates views, toggles likes and throttles comments per client.
type Tracker struct {
	mu       sync.Mutex
	views    *ttlMap[key]
	likes    *ttlMap[key]
	comments *ttlMap[string]
	interval time.Duration
	now      func() time.Time
}

func New(opts Options) *Tracker {
	if opts.CommentCooldown <= 0 {
		opts.CommentCooldown = DefaultCommentCooldown
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = DefaultPruneInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Tracker{
		views:    newTTLMap[key](opts.Retention),
		likes:    newTTLMap[key](opts.Retention),
		comments: newTTLMap[string](opts.CommentCooldown),
		interval: opts.PruneInterval,
		now:      opts.Now,
	}
}

// RecordViewIfNew records a view and returns true only the first time a client
// views a video within the retention window.
func (t *Tracker) RecordViewIfNew(client, videoID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{client: client, videoID: videoID, kind: KindView}
	now := t.now()
	if t.views.live(k, now) {
		return false
	}
	t.views.touch(k, now)
	return true
}

// ToggleLike flips the client's like on a video. It returns the new state and
// the delta to apply to the like counter.
func (t *Tracker) ToggleLike(client, videoID string) (liked bool, delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{client: client, videoID: videoID, kind: KindLike}
	now := t.now()
	if t.likes.live(k, now) {
		t.likes.remove(k)
		return false, -1
	}
	t.likes.touch(k, now)
	return true, 1
}

// CanComment reports whether the client is outside the comment cooldown.
// A true result starts a new cooldown.
func (t *Tracker) CanComment(client string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.comments.live(client, now) {
		return false
	}
	t.comments.touch(client, now)
	return true
}

// Prune drops entries past their horizon and returns how many were removed.
func (t *Tracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	return t.views.prune(now) + t.likes.prune(now) + t.comments.prune(now)
}

// Size returns the number of tracked entries across all maps.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.views.len() + t.likes.len() + t.comments.len()
}

// Run prunes periodically until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := t.Prune()
			if removed > 0 {
				slog.Debug("engagement entries pruned", "removed", removed, "remaining", t.Size())
			}
		}
	}
}
