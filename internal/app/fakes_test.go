package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
)

// fakeNotifier records delivered events. Keys listed in fail return an error; keys listed
// in block hang until release is closed, ignoring ctx.
type fakeNotifier struct {
	mu      sync.Mutex
	events  []notification.MatchEvent
	fail    map[string]bool
	block   map[string]bool
	release chan struct{}
	started chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		fail:    map[string]bool{},
		block:   map[string]bool{},
		release: make(chan struct{}),
		started: make(chan string, 16),
	}
}

func (n *fakeNotifier) Notify(_ context.Context, event notification.MatchEvent) error {
	select {
	case n.started <- event.Key:
	default:
	}
	if n.block[event.Key] {
		<-n.release
	}
	if n.fail[event.Key] {
		return errors.New("chat unavailable")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Key)
	}
	return out
}

// flakyRepo wraps a repository and fails ListAll while down is set.
type flakyRepo struct {
	birthday.Repository
	mu   sync.Mutex
	down bool
}

func (r *flakyRepo) setDown(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = v
}

func (r *flakyRepo) isDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

func (r *flakyRepo) ListAll(ctx context.Context) ([]*birthday.Record, error) {
	if r.isDown() {
		return nil, birthday.StorageError("list", errors.New("connection refused"))
	}
	return r.Repository.ListAll(ctx)
}

func (r *flakyRepo) Get(ctx context.Context, key string) (*birthday.Record, error) {
	if r.isDown() {
		return nil, birthday.StorageError("get", errors.New("connection refused"))
	}
	return r.Repository.Get(ctx, key)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type countingRecorder struct {
	nopRecorder
	mu       sync.Mutex
	commands map[string]int
}

func (r *countingRecorder) CommandHandled(action, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commands == nil {
		r.commands = map[string]int{}
	}
	r.commands[action+"/"+outcome]++
}
