package icepeak

import (
	"time"

	"github.com/golang/glog"
)

// broadcastSendTimeout bounds how long the Broadcaster waits on a
// single subscriber's channel before giving up on it: the
// drop-with-disconnect policy for slow subscribers.
const broadcastSendTimeout = 250 * time.Millisecond

// deliveryJob is one subscriber's pending delivery, queued by the
// Coordinator so a slow subscriber never stalls the mutation loop.
type deliveryJob struct {
	target BroadcastTarget
	value  Value
}

// Broadcaster extracts and delivers subvalues to subscribers, off the
// Coordinator's goroutine, keeping the writer's hot path short. It
// hands each callback a Value and does not serialize it; JSON encoding
// is left to the callback. It runs its own
// goroutine pool so a slow or dead subscriber callback cannot block
// the Coordinator that enqueued it.
type Broadcaster struct {
	jobs chan deliveryJob
	// onDrop is called (from a worker goroutine) when a subscriber's
	// delivery could not complete within broadcastSendTimeout — the
	// Coordinator uses this to unsubscribe the dead target.
	onDrop func(target BroadcastTarget)
}

// NewBroadcaster starts workerCount delivery workers draining a queue
// of size queueSize.
func NewBroadcaster(workerCount int, queueSize int, onDrop func(target BroadcastTarget)) *Broadcaster {
	b := &Broadcaster{
		jobs:   make(chan deliveryJob, queueSize),
		onDrop: onDrop,
	}
	for i := 0; i < workerCount; i++ {
		go b.worker()
	}
	return b
}

func (self *Broadcaster) worker() {
	for job := range self.jobs {
		self.deliver(job)
	}
}

func (self *Broadcaster) deliver(job deliveryJob) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		job.target.Deliver(job.value)
	}()

	select {
	case <-done:
	case <-time.After(broadcastSendTimeout):
		glog.Infof("icepeak: dropping slow subscriber at %s", job.target.Path)
		if self.onDrop != nil {
			self.onDrop(job.target)
		}
	}
}

// Enqueue schedules targets for delivery of the current value, each
// extracted at its own path. Enqueue itself never blocks on any
// individual subscriber — it only blocks if the whole queue is full,
// which is why NewBroadcaster's caller should size it generously.
func (self *Broadcaster) Enqueue(newValue Value, targets []BroadcastTarget) {
	logDebugf("icepeak: fanning out to %d subscribers", len(targets))
	for _, target := range targets {
		subvalue, _ := Get(newValue, target.Path)
		self.jobs <- deliveryJob{target: target, value: subvalue}
	}
}

// Close stops accepting new jobs. Queued jobs already in flight are
// allowed to finish; callers should drain the Coordinator before
// calling Close.
func (self *Broadcaster) Close() {
	close(self.jobs)
}
