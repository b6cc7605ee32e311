package mindmap

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	// ErrEmptyText is returned by [Store.CreateRoot] and [Store.CommitExpansion]
	// when a node label is empty. Every node carries a non-empty label.
	ErrEmptyText = errors.New("node text must not be empty")

	// ErrRootExists is returned by [Store.CreateRoot] when the store already
	// holds a root. A store holds at most one tree; call [Store.Reset] first.
	ErrRootExists = errors.New("root already exists")

	// ErrUnknownNode is returned by mutation operations when the node ID is
	// not present in the store.
	ErrUnknownNode = errors.New("unknown node")

	// ErrAlreadyLoading is returned by [Store.MarkLoading] when an expansion
	// for the node is already in flight.
	ErrAlreadyLoading = errors.New("node is already loading")

	// ErrAlreadyExpanded is returned by [Store.MarkLoading] when the node's
	// expansion has already completed. Expansion happens at most once per
	// node; a completed expansion is never re-executed.
	ErrAlreadyExpanded = errors.New("node is already expanded")

	// ErrNotLoading is returned by [Store.CommitExpansion] and
	// [Store.FailExpansion] when no expansion is in flight for the node.
	// Commits must be preceded by a matching [Store.MarkLoading].
	ErrNotLoading = errors.New("node is not loading")

	// ErrHasChildren is returned by [Store.CommitExpansion] when the node
	// already has children. Children are committed in bulk exactly once.
	ErrHasChildren = errors.New("node already has children")

	// ErrOrphanNode is returned by [Store.Validate] when a node references a
	// parent that does not exist. This indicates store corruption.
	ErrOrphanNode = errors.New("node references missing parent")

	// ErrDepthMismatch is returned by [Store.Validate] when a node's depth is
	// not its parent's depth plus one. Depths are derived once at creation
	// and must stay consistent with the parent chain.
	ErrDepthMismatch = errors.New("node depth does not match parent depth + 1")

	// ErrUnreachableNode is returned by [Store.Validate] when a node cannot
	// be reached from the root by following child links.
	ErrUnreachableNode = errors.New("node not reachable from root")
)

// Node is one concept in the idea tree. Identity, label, parent link, and
// depth are fixed at creation; ChildrenIDs is populated at most once, in
// bulk, when the node's expansion commits.
//
// The zero value is not usable - nodes are created by [Store.CreateRoot]
// and [Store.CommitExpansion].
type Node struct {
	ID          string   // Unique, opaque identifier (UUID), never reused
	Text        string   // Short human-readable label
	ParentID    string   // Parent node ID, empty for the root
	Depth       int      // Distance from the root (root = 0)
	ChildrenIDs []string // Child IDs in generation order
	IsLoading   bool     // True while an expansion request is in flight
	IsExpanded  bool     // True once an expansion has completed
}

// IsRoot reports whether the node is the tree's root.
func (n Node) IsRoot() bool { return n.ParentID == "" }

// Expandable reports whether an expansion request for the node would be
// accepted: not loading, not yet expanded, no children.
func (n Node) Expandable() bool {
	return !n.IsLoading && !n.IsExpanded && len(n.ChildrenIDs) == 0
}

// Store holds the idea tree: a mapping from node ID to node record plus a
// designated root. It exclusively owns all node records; the layout engine
// and expansion controller operate on snapshots and return derived results.
//
// Store is not safe for concurrent use without external synchronization.
// All mutations are synchronous and atomic: a reader never observes a
// half-applied expansion.
type Store struct {
	nodes      map[string]*Node
	rootID     string
	generation uint64
}

// NewStore creates an empty store with no root.
func NewStore() *Store {
	return &Store{nodes: make(map[string]*Node)}
}

// CreateRoot creates the depth-0 root node in loading state and returns its ID.
// Returns ErrEmptyText if text is empty or ErrRootExists if the store already
// holds a tree. The root starts loading because root creation is itself an
// expansion of a virtual empty parent; commit or fail it like any other node.
func (s *Store) CreateRoot(text string) (string, error) {
	if text == "" {
		return "", ErrEmptyText
	}
	if s.rootID != "" {
		return "", ErrRootExists
	}
	id := uuid.NewString()
	s.nodes[id] = &Node{
		ID:        id,
		Text:      text,
		IsLoading: true,
	}
	s.rootID = id
	return id, nil
}

// MarkLoading flags the node as having an expansion in flight.
// Returns ErrUnknownNode, ErrAlreadyLoading, or ErrAlreadyExpanded when the
// node is in the wrong state. Callers must invoke this before suspending on
// the external collaborator so that concurrent expansion attempts observe
// the loading flag and back off.
func (s *Store) MarkLoading(id string) error {
	n, ok := s.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if n.IsLoading {
		return ErrAlreadyLoading
	}
	if n.IsExpanded {
		return ErrAlreadyExpanded
	}
	n.IsLoading = true
	return nil
}

// CommitExpansion creates one child per entry in texts and attaches them to
// the node, in input order. The node must be loading with no children. On
// success the node is marked expanded and not loading, and the new child IDs
// are returned in generation order.
//
// An empty texts slice is a valid, terminal result: the node becomes
// expanded with no children and is never expandable again. Empty entries
// within texts are rejected with ErrEmptyText before any child is created;
// a failed commit leaves the store unchanged.
func (s *Store) CommitExpansion(id string, texts []string) ([]string, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrUnknownNode
	}
	if !n.IsLoading {
		return nil, ErrNotLoading
	}
	if len(n.ChildrenIDs) > 0 {
		return nil, ErrHasChildren
	}
	if slices.Contains(texts, "") {
		return nil, ErrEmptyText
	}

	childIDs := make([]string, len(texts))
	for i, text := range texts {
		childID := uuid.NewString()
		s.nodes[childID] = &Node{
			ID:       childID,
			Text:     text,
			ParentID: n.ID,
			Depth:    n.Depth + 1,
		}
		childIDs[i] = childID
	}

	n.ChildrenIDs = childIDs
	n.IsLoading = false
	n.IsExpanded = true
	return slices.Clone(childIDs), nil
}

// FailExpansion clears the node's loading flag without expanding it,
// returning it to the expandable state. This is the retry path for
// collaborator failures. Returns ErrUnknownNode or ErrNotLoading.
//
// Failing the root leaves a never-expanded root in place; callers that
// treat root creation as an expansion typically Reset instead.
func (s *Store) FailExpansion(id string) error {
	n, ok := s.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if !n.IsLoading {
		return ErrNotLoading
	}
	n.IsLoading = false
	return nil
}

// Reset discards all nodes and clears the root, bumping the store
// generation. In-flight expansion responses that arrive after a Reset must
// be discarded by comparing generations (see [Store.Generation]).
func (s *Store) Reset() {
	s.nodes = make(map[string]*Node)
	s.rootID = ""
	s.generation++
}

// Generation returns a counter incremented on every Reset. Asynchronous
// continuations capture it before suspending and re-check it before
// mutating, so responses addressed to a discarded tree are dropped.
func (s *Store) Generation() uint64 { return s.generation }

// RootID returns the root node's ID, or "" if the store is empty.
func (s *Store) RootID() string { return s.rootID }

// Len returns the number of nodes in the store.
func (s *Store) Len() int { return len(s.nodes) }

// Node returns a copy of the node with the given ID and true, or a zero
// Node and false if absent. Copies keep callers from mutating store state;
// all mutation goes through the operations above.
func (s *Store) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return snapshotNode(n), true
}

// Snapshot returns a copy of every node keyed by ID. The layout engine
// consumes snapshots so that layout computation never observes (or causes)
// store mutation.
func (s *Store) Snapshot() map[string]Node {
	out := make(map[string]Node, len(s.nodes))
	for id, n := range s.nodes {
		out[id] = snapshotNode(n)
	}
	return out
}

// Path returns the texts of the ancestors of id, ordered root first and
// excluding id itself. This is the context path handed to the idea
// generation service. Returns nil for the root or an unknown ID.
func (s *Store) Path(id string) []string {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	var texts []string
	for n.ParentID != "" {
		parent, ok := s.nodes[n.ParentID]
		if !ok {
			return nil
		}
		texts = append(texts, parent.Text)
		n = parent
	}
	slices.Reverse(texts)
	return texts
}

// Validate checks store integrity and returns nil if valid.
// It verifies the structural invariants:
//
//  1. Every non-root node's parent exists (no orphans)
//  2. Every node's depth equals its parent's depth plus one (root depth 0)
//  3. Every node is reachable from the root by following child links
//
// These cannot be violated through the public mutation operations; Validate
// exists so tests fail loudly if a future mutation breaks them.
func (s *Store) Validate() error {
	if len(s.nodes) == 0 {
		return nil
	}
	for _, n := range s.nodes {
		if n.IsRoot() {
			if n.Depth != 0 {
				return ErrDepthMismatch
			}
			continue
		}
		parent, ok := s.nodes[n.ParentID]
		if !ok {
			return ErrOrphanNode
		}
		if n.Depth != parent.Depth+1 {
			return ErrDepthMismatch
		}
	}

	reached := make(map[string]bool, len(s.nodes))
	stack := []string{s.rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		if n, ok := s.nodes[id]; ok {
			stack = append(stack, n.ChildrenIDs...)
		}
	}
	if len(reached) != len(s.nodes) {
		return ErrUnreachableNode
	}
	return nil
}

func snapshotNode(n *Node) Node {
	out := *n
	out.ChildrenIDs = slices.Clone(n.ChildrenIDs)
	return out
}
