package icepeak

import (
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestBroadcasterDeliversToEveryTarget(t *testing.T) {
	b := NewBroadcaster(2, 16, nil)
	defer b.Close()

	var mu sync.Mutex
	received := map[string]Value{}
	done := make(chan struct{}, 2)

	deliver := func(path string) DeliverFunc {
		return func(v Value) {
			mu.Lock()
			received[path] = v
			mu.Unlock()
			done <- struct{}{}
		}
	}

	var v Value
	v = Put(v, Path{"a"}, "1")
	v = Put(v, Path{"b"}, "2")

	b.Enqueue(v, []BroadcastTarget{
		{Path: Path{"a"}, Id: NewId(), Deliver: deliver("a")},
		{Path: Path{"b"}, Id: NewId(), Deliver: deliver("b")},
	})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "1", received["a"])
	assert.Equal(t, "2", received["b"])
}

func TestBroadcasterDropsSlowSubscriber(t *testing.T) {
	var droppedPath Path
	dropped := make(chan struct{})
	onDrop := func(target BroadcastTarget) {
		droppedPath = target.Path
		close(dropped)
	}

	b := NewBroadcaster(1, 4, onDrop)
	defer b.Close()

	block := make(chan struct{})
	b.Enqueue("value", []BroadcastTarget{
		{Path: Path{"slow"}, Id: NewId(), Deliver: func(Value) { <-block }},
	})

	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for drop")
	}
	close(block)

	assert.Equal(t, Path{"slow"}, droppedPath)
}
