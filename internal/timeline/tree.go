package timeline

import "marktime/internal/source"

// NodeID indexes a node in a Tree's arena.
type NodeID int

// Root is the id of every tree's root group.
const Root NodeID = 0

// GroupStyle distinguishes "group" blocks from "section" blocks.
type GroupStyle string

const (
	StyleGroup   GroupStyle = "group"
	StyleSection GroupStyle = "section"
)

// Group describes a group node.
type Group struct {
	Title     string       `json:"title,omitempty"`
	Tags      []string     `json:"tags,omitempty"`
	Style     GroupStyle   `json:"style,omitempty"`
	TextRange source.Range `json:"rangeInText"`
}

// Node is either a leaf holding an Event or a group holding ordered
// children. Exactly one parent refers to each node except the root.
type Node struct {
	ID       NodeID   `json:"id"`
	Parent   NodeID   `json:"parent"`
	Event    *Event   `json:"event,omitempty"`
	Group    *Group   `json:"group,omitempty"`
	Children []NodeID `json:"children,omitempty"`
}

// IsGroup reports whether n holds children rather than an event.
func (n *Node) IsGroup() bool {
	return n.Event == nil
}

// Path addresses a node by child indices from the root.
type Path []int

// Tree is an arena of nodes. Node 0 is the root group.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// NewTree returns a tree holding only the root group.
func NewTree() *Tree {
	return &Tree{Nodes: []Node{{ID: Root, Parent: Root, Group: &Group{}}}}
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// AddEvent appends a leaf under parent.
func (t *Tree) AddEvent(parent NodeID, e *Event) NodeID {
	return t.add(parent, Node{Event: e})
}

// AddGroup appends an empty group under parent.
func (t *Tree) AddGroup(parent NodeID, g *Group) NodeID {
	return t.add(parent, Node{Group: g})
}

func (t *Tree) add(parent NodeID, n Node) NodeID {
	id := NodeID(len(t.Nodes))
	n.ID = id
	n.Parent = parent
	t.Nodes = append(t.Nodes, n)
	p := &t.Nodes[parent]
	p.Children = append(p.Children, id)
	return id
}

// At resolves a path. It reports false when the path leaves the tree.
func (t *Tree) At(path Path) (*Node, bool) {
	n := t.Node(Root)
	for _, i := range path {
		if i < 0 || i >= len(n.Children) {
			return nil, false
		}
		n = t.Node(n.Children[i])
	}
	return n, true
}

// PathOf returns the path from the root to id.
func (t *Tree) PathOf(id NodeID) Path {
	var rev Path
	for id != Root {
		parent := t.Node(t.Node(id).Parent)
		for i, c := range parent.Children {
			if c == id {
				rev = append(rev, i)
				break
			}
		}
		id = parent.ID
	}
	path := make(Path, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}

// Walk visits every node below root depth-first in document order. Returning
// false from fn stops the walk.
func (t *Tree) Walk(fn func(n *Node, path Path) bool) {
	var visit func(id NodeID, path Path) bool
	visit = func(id NodeID, path Path) bool {
		for i, c := range t.Node(id).Children {
			p := append(path[:len(path):len(path)], i)
			if !fn(t.Node(c), p) {
				return false
			}
			if t.Node(c).IsGroup() && !visit(c, p) {
				return false
			}
		}
		return true
	}
	visit(Root, nil)
}

// Events returns every event in document order.
func (t *Tree) Events() []*Event {
	var out []*Event
	t.Walk(func(n *Node, _ Path) bool {
		if n.Event != nil {
			out = append(out, n.Event)
		}
		return true
	})
	return out
}
