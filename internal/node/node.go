// Package node defines the mounted terminal element the overlay machinery
// binds to: a titled content box carrying a set of CSS-like classes. The
// compositor maps classes to lipgloss styles at render time.
package node

import "sync"

// Node is one mounted overlay element. Identity is pointer identity, so a
// *Node works as the element type of an attachment. Class mutation is
// synchronized because frame callbacks apply classes off the render
// goroutine.
type Node struct {
	mu      sync.Mutex
	title   string
	classes []string // insertion order, kept for deterministic rendering
}

// New creates a node with the given title and no classes.
func New(title string) *Node {
	return &Node{title: title}
}

func (n *Node) Title() string {
	return n.title
}

// AddClass appends name to the class set. Idempotent.
func (n *Node) AddClass(name string) {
	if name == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.classes {
		if c == name {
			return
		}
	}
	n.classes = append(n.classes, name)
}

// RemoveClass drops name from the class set if present.
func (n *Node) RemoveClass(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.classes {
		if c == name {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			return
		}
	}
}

func (n *Node) HasClass(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.classes {
		if c == name {
			return true
		}
	}
	return false
}

// Classes returns a copy of the class set in insertion order.
func (n *Node) Classes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.classes))
	copy(out, n.classes)
	return out
}
