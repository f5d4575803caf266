package icepeak

import (
	"context"
	"time"

	"github.com/golang/glog"
)

type commandKind int

const (
	cmdModify commandKind = iota
	cmdSubscribe
	cmdUnsubscribe
	cmdTick
	cmdShutdown
)

// command is the Coordinator's single queued unit of work. It is an
// internal tagged union rather than an exported interface — drivers
// talk to the Coordinator through Modify/Subscribe/Unsubscribe/
// Shutdown, never by constructing a command directly.
type command struct {
	kind commandKind

	mod Modification

	path    Path
	id      Id
	deliver DeliverFunc

	reply chan error
	done  chan struct{}
}

// Coordinator is the single writer: it owns the mutation queue,
// applies modifications to the document through Persistence, journals
// them, and fans out notifications through the Broadcaster. Exactly
// one goroutine (Run) ever touches Persistence's write path, the
// SubscriptionTree, or the journal handle.
type Coordinator struct {
	persistence *Persistence
	tree        *SubscriptionTree
	broadcaster *Broadcaster
	metrics     *Metrics

	commands     chan *command
	syncInterval time.Duration

	stopped chan struct{}
}

// NewCoordinator wires a Coordinator around an already-loaded
// Persistence. queueSize bounds the command queue so a burst of
// writers blocks on backpressure rather than growing memory unbounded.
func NewCoordinator(persistence *Persistence, tree *SubscriptionTree, broadcaster *Broadcaster, metrics *Metrics, queueSize int, syncInterval time.Duration) *Coordinator {
	return &Coordinator{
		persistence:  persistence,
		tree:         tree,
		broadcaster:  broadcaster,
		metrics:      metrics,
		commands:     make(chan *command, queueSize),
		syncInterval: syncInterval,
		stopped:      make(chan struct{}),
	}
}

// Run is the Coordinator's main loop. It blocks until ctx is
// cancelled or Shutdown is called, whichever happens first, then
// drains any commands already queued, performs a final sync, and
// closes the journal.
func (self *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(self.syncInterval)
	defer ticker.Stop()
	defer close(self.stopped)

	for {
		select {
		case <-ctx.Done():
			self.drainAndClose()
			return

		case cmd := <-self.commands:
			if cmd.kind == cmdShutdown {
				self.drainAndClose()
				close(cmd.done)
				return
			}
			self.process(cmd)

		case <-ticker.C:
			self.process(&command{kind: cmdTick})
		}
	}
}

func (self *Coordinator) drainAndClose() {
	for {
		select {
		case cmd := <-self.commands:
			if cmd.kind == cmdShutdown {
				close(cmd.done)
				continue
			}
			self.process(cmd)
		default:
			if err := self.persistence.Sync(); err != nil {
				glog.Errorf("icepeak: final sync failed: %v", err)
			}
			if err := self.persistence.Close(); err != nil {
				glog.Errorf("icepeak: journal close failed: %v", err)
			}
			self.broadcaster.Close()
			return
		}
	}
}

func (self *Coordinator) process(cmd *command) {
	switch cmd.kind {
	case cmdModify:
		self.processModify(cmd)

	case cmdSubscribe:
		self.tree.Subscribe(cmd.path, cmd.id, cmd.deliver)
		value := self.persistence.Value()
		self.broadcaster.Enqueue(value, []BroadcastTarget{{Path: cmd.path, Id: cmd.id, Deliver: cmd.deliver}})
		self.metrics.Subscribers.Set(float64(self.tree.Count()))
		close(cmd.done)

	case cmdUnsubscribe:
		self.tree.Unsubscribe(cmd.path, cmd.id)
		self.metrics.Subscribers.Set(float64(self.tree.Count()))
		if cmd.done != nil {
			close(cmd.done)
		}

	case cmdTick:
		if err := self.persistence.Sync(); err != nil {
			glog.Errorf("icepeak: periodic sync failed: %v", err)
		}
	}
}

func (self *Coordinator) processModify(cmd *command) {
	start := time.Now()
	err := self.persistence.Apply(cmd.mod)
	if err != nil {
		cmd.reply <- err
		return
	}
	self.metrics.ModificationsTotal.Inc()
	logDebugf("icepeak: applied modification at %s in %s", cmd.mod.ChangedPath(), time.Since(start))

	newValue := self.persistence.Value()
	targets := self.tree.BroadcastTargets(cmd.mod.ChangedPath())
	self.broadcaster.Enqueue(newValue, targets)

	cmd.reply <- nil
}

// Value reads the value currently at path without going through the
// command queue, a lock-free snapshot read safe to call concurrently
// with Modify.
func (self *Coordinator) Value(path Path) (Value, bool) {
	return Get(self.persistence.Value(), path)
}

// Modify submits mod and blocks until it has been applied (journaled
// and swapped into memory) or failed. It does not wait for sync or for
// any subscriber delivery: callers are acknowledged after the journal
// append, not after the next periodic sync.
func (self *Coordinator) Modify(mod Modification) error {
	reply := make(chan error, 1)
	self.commands <- &command{kind: cmdModify, mod: mod, reply: reply}
	return <-reply
}

// Subscribe registers deliver at path and blocks until the
// registration (and the enqueueing of its first-snapshot delivery) has
// been sequenced by the Coordinator, guaranteeing that a subscriber
// registered before a modification never misses it. The returned id is
// used to Unsubscribe.
func (self *Coordinator) Subscribe(path Path, deliver DeliverFunc) Id {
	id := NewId()
	done := make(chan struct{})
	self.commands <- &command{kind: cmdSubscribe, path: path, id: id, deliver: deliver, done: done}
	<-done
	return id
}

// Unsubscribe removes the subscription registered by Subscribe. It
// blocks until the removal has been applied, so no delivery is
// enqueued for the subscriber after it returns; deliveries the
// Broadcaster had already queued may still run. If Run has already returned
// (self.stopped is closed), Unsubscribe gives up rather than blocking
// forever: this is the path a Broadcaster worker's onDrop callback can
// still take on a subscriber that goes slow during shutdown.
func (self *Coordinator) Unsubscribe(path Path, id Id) {
	done := make(chan struct{})
	select {
	case self.commands <- &command{kind: cmdUnsubscribe, path: path, id: id, done: done}:
	case <-self.stopped:
		return
	}
	select {
	case <-done:
	case <-self.stopped:
	}
}

// Shutdown requests a cooperative stop: no further commands are
// accepted after this call returns, a final sync has completed, and
// the journal is closed.
func (self *Coordinator) Shutdown() {
	done := make(chan struct{})
	self.commands <- &command{kind: cmdShutdown, done: done}
	<-done
	<-self.stopped
}
