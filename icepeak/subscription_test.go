package icepeak

import (
	"sort"
	"testing"

	"github.com/go-playground/assert/v2"
)

func pathStrings(targets []BroadcastTarget) []string {
	strs := make([]string, len(targets))
	for i, target := range targets {
		strs[i] = target.Path.String()
	}
	sort.Strings(strs)
	return strs
}

func TestBroadcastTargetsIncludesRootSubscriber(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{}, NewId(), func(Value) {})

	targets := tree.BroadcastTargets(Path{"a", "b"})
	assert.Equal(t, []string{"/"}, pathStrings(targets))
}

func TestBroadcastTargetsDoesNotDuplicateExactMatchSubscriber(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{"a"}, NewId(), func(Value) {})

	targets := tree.BroadcastTargets(Path{"a"})
	assert.Equal(t, []string{"/a"}, pathStrings(targets))
}

func TestBroadcastTargetsDoesNotDuplicateRootSubscriberOnRootModification(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{}, NewId(), func(Value) {})

	targets := tree.BroadcastTargets(Path{})
	assert.Equal(t, []string{"/"}, pathStrings(targets))
}

func TestBroadcastTargetsIncludesEveryPrefixSubscriber(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{"a"}, NewId(), func(Value) {})
	tree.Subscribe(Path{"a", "b"}, NewId(), func(Value) {})

	targets := tree.BroadcastTargets(Path{"a", "b", "c"})
	assert.Equal(t, []string{"/a", "/a/b"}, pathStrings(targets))
}

func TestBroadcastTargetsIncludesExtensionSubtree(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{"a", "b", "c"}, NewId(), func(Value) {})
	tree.Subscribe(Path{"a", "b", "d"}, NewId(), func(Value) {})

	targets := tree.BroadcastTargets(Path{"a", "b"})
	assert.Equal(t, []string{"/a/b/c", "/a/b/d"}, pathStrings(targets))
}

func TestBroadcastTargetsExcludesUnrelatedBranch(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{"x", "y"}, NewId(), func(Value) {})

	targets := tree.BroadcastTargets(Path{"a", "b"})
	assert.Equal(t, 0, len(targets))
}

func TestBroadcastTargetsStopsAtMissingTrieBranch(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{"a"}, NewId(), func(Value) {})

	// changedPath runs off the end of the trie after "a"; only the
	// prefix subscriber at "a" should be returned, not a spurious
	// match at the full changed path.
	targets := tree.BroadcastTargets(Path{"a", "b", "c"})
	assert.Equal(t, []string{"/a"}, pathStrings(targets))
}

func TestUnsubscribeRemovesSubscriber(t *testing.T) {
	tree := NewSubscriptionTree()
	id := NewId()
	tree.Subscribe(Path{"a"}, id, func(Value) {})

	assert.Equal(t, 1, tree.Count())
	tree.Unsubscribe(Path{"a"}, id)
	assert.Equal(t, 0, tree.Count())

	targets := tree.BroadcastTargets(Path{"a"})
	assert.Equal(t, 0, len(targets))
}

func TestUnsubscribeUnknownIdIsNoop(t *testing.T) {
	tree := NewSubscriptionTree()
	tree.Subscribe(Path{"a"}, NewId(), func(Value) {})
	assert.Equal(t, 1, tree.Count())

	tree.Unsubscribe(Path{"a"}, NewId())
	assert.Equal(t, 1, tree.Count())
}
