package photo

import (
	"fmt"
	"sync"

	"photodex/internal/model"
)

// Tree is a navigable directory tree built by the index. Nodes live in a
// flat arena and refer to each other by ID, so there are no ownership
// cycles between parents and children.
//
// Node 0 is always the root directory, pre-selected and pre-expanded.
type Tree struct {
	mu    sync.Mutex
	nodes []*Node
}

// Node is one directory level in the tree.
type Node struct {
	ID       int
	ParentID int // -1 for the root
	Path     string
	Name     string
	Level    int

	// ItemIndex is the node's position among its siblings.
	ItemIndex int

	ChildIDs []int

	Expanded bool
	Selected bool

	// Items holds the directory's photos once loaded. ItemsLoaded true
	// means Items is populated and must not be recomputed without
	// explicit invalidation.
	Items       []*model.Photo
	ItemsLoaded bool

	// Errs collects per-file extraction failures encountered while
	// loading this node's items.
	Errs []error

	// generation fences concurrent item loads: results from a load
	// request are applied only while its generation is still current.
	generation uint64
}

// NodeCount returns the number of nodes in the arena.
func (t *Tree) NodeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// Node returns the node with the given ID.
func (t *Tree) Node(id int) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.nodes) {
		return nil, fmt.Errorf("no node with ID %d", id)
	}
	return t.nodes[id], nil
}

// Root returns node 0.
func (t *Tree) Root() *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodes[0]
}

// Children returns the child nodes of the given node, in sibling order.
func (t *Tree) Children(id int) ([]*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.nodes) {
		return nil, fmt.Errorf("no node with ID %d", id)
	}
	children := make([]*Node, 0, len(t.nodes[id].ChildIDs))
	for _, cid := range t.nodes[id].ChildIDs {
		children = append(children, t.nodes[cid])
	}
	return children, nil
}

// Select marks the node with the given ID as selected and expands it.
// Any previously selected node is deselected, so at most one node is
// selected at a time.
func (t *Tree) Select(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.nodes) {
		return fmt.Errorf("no node with ID %d", id)
	}
	for _, n := range t.nodes {
		n.Selected = false
	}
	t.nodes[id].Selected = true
	t.nodes[id].Expanded = true
	return nil
}

// SelectedNode returns the currently selected node, or nil if none.
func (t *Tree) SelectedNode() *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range t.nodes {
		if n.Selected {
			return n
		}
	}
	return nil
}

// FlatNodes returns every node in arena order: shallowest paths first,
// then lexicographic. This matches the order nodes were built in.
func (t *Tree) FlatNodes() []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// addNode appends a node to the arena and links it to its parent.
// Used by the index during tree construction.
func (t *Tree) addNode(n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.ID = len(t.nodes)
	if n.ParentID >= 0 {
		parent := t.nodes[n.ParentID]
		n.ItemIndex = len(parent.ChildIDs)
		parent.ChildIDs = append(parent.ChildIDs, n.ID)
	}
	t.nodes = append(t.nodes, n)
}

// findNodeByPath returns the node with the given path, or nil.
func (t *Tree) findNodeByPath(path string) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range t.nodes {
		if n.Path == path {
			return n
		}
	}
	return nil
}

// beginLoad bumps the node's generation and returns the new value.
// A later applyLoad with a stale generation is discarded.
func (t *Tree) beginLoad(id int) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.nodes) {
		return 0, fmt.Errorf("no node with ID %d", id)
	}
	t.nodes[id].generation++
	return t.nodes[id].generation, nil
}

// applyLoad installs loaded items on the node if generation is still
// current. Returns false if a newer load superseded this one.
func (t *Tree) applyLoad(id int, generation uint64, items []*model.Photo) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.nodes[id]
	if n.generation != generation {
		return false
	}
	n.Items = items
	n.ItemsLoaded = true
	n.Errs = n.Errs[:0]
	for _, p := range items {
		if p.HasErrors() {
			n.Errs = append(n.Errs, p.Err)
		}
	}
	return true
}

// Invalidate clears a node's loaded items so the next access reloads them.
func (t *Tree) Invalidate(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.nodes) {
		return fmt.Errorf("no node with ID %d", id)
	}
	n := t.nodes[id]
	n.generation++
	n.Items = nil
	n.ItemsLoaded = false
	n.Errs = nil
	return nil
}
