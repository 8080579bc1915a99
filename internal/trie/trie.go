// Package trie stores values under dotted paths such as "os.path.join",
// one node per path segment.
//
// Nodes live in a single slice (the arena) and refer to their children by
// index, so a trie of a few hundred names costs a handful of allocations.
package trie

import (
	"sort"
	"strings"
)

// NodeIndex represents the index of a trie node.
type NodeIndex int

const root NodeIndex = 0

// Arena is a memory pool that stores all trie nodes.
type Arena[V any] struct {
	nodes []arenaNode[V]
	// size is the number of paths holding a value.
	size int
}

type arenaNode[V any] struct {
	// children maps a path segment to the index of the child node.
	children map[string]NodeIndex
	value    V
	isEnd    bool
}

// NewArena creates a new arena holding only the root node.
func NewArena[V any]() *Arena[V] {
	arena := &Arena[V]{
		nodes: make([]arenaNode[V], 0, 256),
	}
	arena.newNode()
	return arena
}

func (a *Arena[V]) newNode() NodeIndex {
	idx := NodeIndex(len(a.nodes))
	a.nodes = append(a.nodes, arenaNode[V]{children: make(map[string]NodeIndex)})
	return idx
}

// Insert stores value under path, replacing any earlier value.
func (a *Arena[V]) Insert(path []string, value V) {
	current := root
	for _, part := range path {
		childIdx, exists := a.nodes[current].children[part]
		if !exists {
			// newNode may grow the slice, so index again afterwards
			childIdx = a.newNode()
			a.nodes[current].children[part] = childIdx
		}
		current = childIdx
	}

	node := &a.nodes[current]
	if !node.isEnd {
		a.size++
	}
	node.value = value
	node.isEnd = true
}

// Get returns the value stored exactly under path.
func (a *Arena[V]) Get(path []string) (V, bool) {
	current := root
	for _, part := range path {
		next, ok := a.nodes[current].children[part]
		if !ok {
			var zero V
			return zero, false
		}
		current = next
	}
	node := a.nodes[current]
	return node.value, node.isEnd
}

// LongestPrefix returns the value of the longest prefix of path that holds
// one, and the length of that prefix.
func (a *Arena[V]) LongestPrefix(path []string) (V, int, bool) {
	var (
		value V
		depth int
		found bool
	)
	current := root
	for i, part := range path {
		next, ok := a.nodes[current].children[part]
		if !ok {
			break
		}
		current = next
		if node := a.nodes[current]; node.isEnd {
			value, depth, found = node.value, i+1, true
		}
	}
	return value, depth, found
}

func (a *Arena[V]) Len() int {
	return a.size
}

// DebugString returns a string representation of the trie for debugging purposes.
func (a *Arena[V]) DebugString() string {
	return a.debugStringNode(root)
}

func (a *Arena[V]) debugStringNode(idx NodeIndex) string {
	node := a.nodes[idx]
	var sb strings.Builder

	if node.isEnd {
		sb.WriteString("*")
	}

	// sorted for a stable output
	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString("(")
		sb.WriteString(a.debugStringNode(node.children[key]))
		sb.WriteString(")")
	}

	return sb.String()
}

// Trie keys values by dotted names.
type Trie[V any] struct {
	arena *Arena[V]
}

// New returns an initialized Trie.
func New[V any]() *Trie[V] {
	return &Trie[V]{arena: NewArena[V]()}
}

func (t *Trie[V]) Insert(name string, value V) {
	t.arena.Insert(strings.Split(name, "."), value)
}

func (t *Trie[V]) Get(name string) (V, bool) {
	return t.arena.Get(strings.Split(name, "."))
}

// LongestPrefix returns the value of the innermost dotted prefix of name
// holding one. "os" is a prefix of "os.path" but not of "osx".
func (t *Trie[V]) LongestPrefix(name string) (V, bool) {
	v, _, ok := t.arena.LongestPrefix(strings.Split(name, "."))
	return v, ok
}

func (t *Trie[V]) Len() int {
	return t.arena.Len()
}

func (t *Trie[V]) DebugString() string {
	return t.arena.DebugString()
}
