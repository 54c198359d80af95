package presence

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/presence/presencetest"
)

func newRegistry(b *bus.Bus) *Registry {
	logger := zap.NewNop()
	return NewRegistry(NewBroadcaster(logger), b, logger)
}

func TestRegisterAnnouncesToEveryone(t *testing.T) {
	r := newRegistry(nil)
	h1 := presencetest.NewHandle("u1")
	h2 := presencetest.NewHandle("u2")

	r.Register("u1", h1)
	if got, _ := h1.LastOnline(); !slices.Equal(got, []string{"u1"}) {
		t.Errorf("h1 after first register = %v, want [u1]", got)
	}

	r.Register("u2", h2)
	for name, h := range map[string]*presencetest.Handle{"h1": h1, "h2": h2} {
		if got, _ := h.LastOnline(); !slices.Equal(got, []string{"u1", "u2"}) {
			t.Errorf("%s online = %v, want [u1 u2]", name, got)
		}
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := newRegistry(nil)
	h1 := presencetest.NewHandle("u1")
	h2 := presencetest.NewHandle("u2")
	r.Register("u1", h1)
	r.Register("u2", h2)

	if got := r.Unregister("u1"); got != h1 {
		t.Errorf("Unregister returned %v, want h1", got)
	}
	if got := r.Unregister("u1"); got != nil {
		t.Errorf("second Unregister returned %v, want nil", got)
	}
	if got := r.Snapshot(); !slices.Equal(got, []string{"u2"}) {
		t.Errorf("Snapshot = %v, want [u2]", got)
	}
	if got, _ := h2.LastOnline(); !slices.Equal(got, []string{"u2"}) {
		t.Errorf("h2 online = %v, want [u2]", got)
	}
}

func TestOverwriteClosesPreviousAndIgnoresStaleRelease(t *testing.T) {
	r := newRegistry(nil)
	first := presencetest.NewHandle("u1")
	second := presencetest.NewHandle("u1")

	r.Register("u1", first)
	r.Register("u1", second)

	if !first.Closed() {
		t.Error("superseded handle was not closed")
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
	if h, _ := r.Lookup("u1"); h != second {
		t.Error("entry does not point at the second handle")
	}

	if r.Release(first) {
		t.Error("Release(first) removed the newer entry")
	}
	if h, ok := r.Lookup("u1"); !ok || h != second {
		t.Error("stale release evicted the current handle")
	}

	if !r.Release(second) {
		t.Error("Release(second) = false, want true")
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}

func TestFailingHandleDoesNotBlockOthers(t *testing.T) {
	r := newRegistry(nil)
	bad := presencetest.NewHandle("bad")
	good := presencetest.NewHandle("good")
	r.Register("bad", bad)
	bad.FailPushes(errors.New("transport gone"))

	r.Register("good", good)
	if got, _ := good.LastOnline(); !slices.Equal(got, []string{"bad", "good"}) {
		t.Errorf("good online = %v, want [bad good]", got)
	}
}

func TestSnapshotMatchesOpenHandles(t *testing.T) {
	r := newRegistry(nil)
	rng := rand.New(rand.NewPCG(1, 2))
	open := map[string]Handle{}

	for i := 0; i < 500; i++ {
		user := fmt.Sprintf("u%d", rng.IntN(8))
		switch rng.IntN(3) {
		case 0:
			h := presencetest.NewHandle(user)
			r.Register(user, h)
			open[user] = h
		case 1:
			r.Unregister(user)
			delete(open, user)
		case 2:
			if h, ok := open[user]; ok && rng.IntN(2) == 0 {
				r.Release(h)
				delete(open, user)
			} else {
				r.Release(presencetest.NewHandle(user))
			}
		}

		want := make([]string, 0, len(open))
		for id := range open {
			want = append(want, id)
		}
		slices.Sort(want)
		if got := r.Snapshot(); !slices.Equal(got, want) {
			t.Fatalf("step %d: Snapshot = %v, want %v", i, got, want)
		}
	}
}

func TestConcurrentRegistrationsConverge(t *testing.T) {
	r := newRegistry(nil)
	const n = 50
	handles := make([]*presencetest.Handle, n)
	for i := range handles {
		handles[i] = presencetest.NewHandle(fmt.Sprintf("u%02d", i))
	}

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register(h.UserID(), h)
		}()
	}
	wg.Wait()

	for _, h := range handles {
		got, ok := h.LastOnline()
		if !ok || len(got) != n {
			t.Errorf("%s last announcement has %d ids, want %d", h.UserID(), len(got), n)
		}
	}
}

func TestMutationsPublishOnBus(t *testing.T) {
	b := bus.New()
	events, cancel := b.Subscribe("presence.", 8)
	defer cancel()

	r := newRegistry(b)
	h := presencetest.NewHandle("u1")
	r.Register("u1", h)
	r.Release(h)

	for _, want := range []string{ReasonRegistered, ReasonReleased} {
		select {
		case evt := <-events:
			change, ok := evt.Payload.(Change)
			if !ok {
				t.Fatalf("payload type = %T", evt.Payload)
			}
			if change.Reason != want || change.UserID != "u1" {
				t.Errorf("change = %+v, want reason %s", change, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
