package icepeak

import "sync"

// DeliverFunc is a subscriber's delivery callback: invoked by the
// Broadcaster with the current value at the subscriber's path (or nil
// for JSON null), never with a raw Modification — a subscriber only
// ever learns the current state at its own path.
type DeliverFunc func(value Value)

type subscriber struct {
	id      Id
	deliver DeliverFunc
}

// trieNode is one segment of a SubscriptionTree. children is a
// mapping from the next path segment to its node; subscribers is the
// set of callbacks registered at exactly this node's path.
type trieNode struct {
	children    map[string]*trieNode
	subscribers map[Id]DeliverFunc
}

func newTrieNode() *trieNode {
	return &trieNode{
		children:    map[string]*trieNode{},
		subscribers: map[Id]DeliverFunc{},
	}
}

// SubscriptionTree is a path-trie of subscribers. It is owned
// exclusively by the Coordinator — registrations, removals, and
// broadcast-target lookups all happen on the Coordinator's single
// goroutine, so the trie itself needs no internal locking; the mutex
// here guards only the subscriber count, so Count may be read from
// other goroutines without going through the command queue.
type SubscriptionTree struct {
	mu    sync.Mutex
	root  *trieNode
	count int
}

func NewSubscriptionTree() *SubscriptionTree {
	return &SubscriptionTree{
		root: newTrieNode(),
	}
}

// Subscribe inserts deliver under node path, keyed by id.
func (self *SubscriptionTree) Subscribe(path Path, id Id, deliver DeliverFunc) {
	node := self.root
	for _, segment := range path {
		child, ok := node.children[segment]
		if !ok {
			child = newTrieNode()
			node.children[segment] = child
		}
		node = child
	}
	node.subscribers[id] = deliver

	self.mu.Lock()
	self.count++
	self.mu.Unlock()
}

// Unsubscribe removes the subscriber registered at path under id, if
// present. It is a no-op if path/id was never registered or was
// already removed.
func (self *SubscriptionTree) Unsubscribe(path Path, id Id) {
	node := self.root
	for _, segment := range path {
		child, ok := node.children[segment]
		if !ok {
			return
		}
		node = child
	}
	if _, ok := node.subscribers[id]; !ok {
		return
	}
	delete(node.subscribers, id)

	self.mu.Lock()
	self.count--
	self.mu.Unlock()
}

// Count returns the live subscriber count, safe to call concurrently
// with Subscribe/Unsubscribe (see the type doc comment).
func (self *SubscriptionTree) Count() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.count
}

// BroadcastTarget is one subscriber affected by a modification at a
// given changed path.
type BroadcastTarget struct {
	Path    Path
	Id      Id
	Deliver DeliverFunc
}

// BroadcastTargets implements the prefix-or-extension delivery rule:
// walk the trie along changedPath, collecting subscribers at every
// node visited (prefixes, including the exact match); then, below the
// final reached node, collect every subscriber in its descendants
// (extensions). If changedPath runs off the end of the trie, only the
// prefix subscribers collected so far are returned.
func (self *SubscriptionTree) BroadcastTargets(changedPath Path) []BroadcastTarget {
	var targets []BroadcastTarget

	node := self.root
	consumed := Path{}
	collectNode(node, consumed, &targets)

	for _, segment := range changedPath {
		child, ok := node.children[segment]
		if !ok {
			return targets
		}
		node = child
		consumed = consumed.Child(segment)
		collectNode(node, consumed, &targets)
	}

	collectDescendants(node, changedPath, &targets)
	return targets
}

// collectNode appends node's own subscribers (not its descendants) as
// targets at subscriberPath.
func collectNode(node *trieNode, subscriberPath Path, targets *[]BroadcastTarget) {
	for id, deliver := range node.subscribers {
		*targets = append(*targets, BroadcastTarget{Path: subscriberPath, Id: id, Deliver: deliver})
	}
}

// collectDescendants appends every subscriber strictly below node
// (never node's own subscribers, which the caller has already
// collected via collectNode), computing each one's own (deeper) path
// relative to basePath.
func collectDescendants(node *trieNode, basePath Path, targets *[]BroadcastTarget) {
	for segment, child := range node.children {
		childPath := basePath.Child(segment)
		collectNode(child, childPath, targets)
		collectDescendants(child, childPath, targets)
	}
}
