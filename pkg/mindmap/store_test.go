package mindmap

import (
	"errors"
	"testing"
)

// seedTree creates a store with a committed root and returns the root ID
// plus the IDs of the root's children.
func seedTree(t *testing.T, rootText string, childTexts []string) (*Store, string, []string) {
	t.Helper()
	s := NewStore()
	rootID, err := s.CreateRoot(rootText)
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}
	childIDs, err := s.CommitExpansion(rootID, childTexts)
	if err != nil {
		t.Fatalf("CommitExpansion: %v", err)
	}
	return s, rootID, childIDs
}

func TestCreateRoot(t *testing.T) {
	s := NewStore()

	rootID, err := s.CreateRoot("Artificial Intelligence")
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}
	if rootID == "" {
		t.Fatal("CreateRoot returned empty ID")
	}
	if got := s.RootID(); got != rootID {
		t.Errorf("RootID() = %q, want %q", got, rootID)
	}

	root, ok := s.Node(rootID)
	if !ok {
		t.Fatal("Node(rootID) not found")
	}
	if root.Depth != 0 {
		t.Errorf("root depth = %d, want 0", root.Depth)
	}
	if !root.IsRoot() {
		t.Error("IsRoot() = false, want true")
	}
	if !root.IsLoading {
		t.Error("root should start in loading state")
	}
	if root.IsExpanded {
		t.Error("root should not start expanded")
	}
}

func TestCreateRootErrors(t *testing.T) {
	s := NewStore()

	if _, err := s.CreateRoot(""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("CreateRoot(\"\") = %v, want ErrEmptyText", err)
	}

	if _, err := s.CreateRoot("first"); err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}
	if _, err := s.CreateRoot("second"); !errors.Is(err, ErrRootExists) {
		t.Errorf("second CreateRoot = %v, want ErrRootExists", err)
	}
}

func TestCommitExpansion(t *testing.T) {
	s, rootID, childIDs := seedTree(t, "Coffee", []string{"Espresso", "Filter", "Cold brew"})

	if len(childIDs) != 3 {
		t.Fatalf("child count = %d, want 3", len(childIDs))
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}

	root, _ := s.Node(rootID)
	if root.IsLoading {
		t.Error("root still loading after commit")
	}
	if !root.IsExpanded {
		t.Error("root not expanded after commit")
	}
	if len(root.ChildrenIDs) != 3 {
		t.Fatalf("root children = %d, want 3", len(root.ChildrenIDs))
	}

	// Children keep generation order and derive depth from the parent.
	wantTexts := []string{"Espresso", "Filter", "Cold brew"}
	for i, id := range root.ChildrenIDs {
		child, ok := s.Node(id)
		if !ok {
			t.Fatalf("child %d not found", i)
		}
		if child.Text != wantTexts[i] {
			t.Errorf("child %d text = %q, want %q", i, child.Text, wantTexts[i])
		}
		if child.Depth != 1 {
			t.Errorf("child %d depth = %d, want 1", i, child.Depth)
		}
		if child.ParentID != rootID {
			t.Errorf("child %d parent = %q, want %q", i, child.ParentID, rootID)
		}
		if child.IsLoading || child.IsExpanded {
			t.Errorf("child %d should be fresh, got loading=%v expanded=%v",
				i, child.IsLoading, child.IsExpanded)
		}
		if !child.Expandable() {
			t.Errorf("child %d should be expandable", i)
		}
	}

	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestCommitExpansionEmpty(t *testing.T) {
	s, rootID, childIDs := seedTree(t, "Void", nil)

	if len(childIDs) != 0 {
		t.Fatalf("child count = %d, want 0", len(childIDs))
	}
	root, _ := s.Node(rootID)
	if !root.IsExpanded {
		t.Error("root should be expanded after empty commit")
	}
	// Terminal leaf: the node is never expandable again.
	if root.Expandable() {
		t.Error("empty-committed node should not be expandable")
	}
	if err := s.MarkLoading(rootID); !errors.Is(err, ErrAlreadyExpanded) {
		t.Errorf("MarkLoading after empty commit = %v, want ErrAlreadyExpanded", err)
	}
}

func TestCommitExpansionErrors(t *testing.T) {
	s := NewStore()
	rootID, err := s.CreateRoot("root")
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}

	if _, err := s.CommitExpansion("missing", []string{"a"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("commit unknown = %v, want ErrUnknownNode", err)
	}

	// Empty entries are rejected atomically: no children created.
	if _, err := s.CommitExpansion(rootID, []string{"a", "", "c"}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("commit with blank = %v, want ErrEmptyText", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() after failed commit = %d, want 1", s.Len())
	}
	root, _ := s.Node(rootID)
	if !root.IsLoading {
		t.Error("failed commit should leave node loading")
	}

	// Commit without a loading mark.
	if _, err := s.CommitExpansion(rootID, []string{"a"}); err != nil {
		t.Fatalf("CommitExpansion: %v", err)
	}
	if _, err := s.CommitExpansion(rootID, []string{"b"}); !errors.Is(err, ErrNotLoading) {
		t.Errorf("double commit = %v, want ErrNotLoading", err)
	}
}

func TestMarkLoading(t *testing.T) {
	s, _, childIDs := seedTree(t, "root", []string{"a"})
	childID := childIDs[0]

	if err := s.MarkLoading(childID); err != nil {
		t.Fatalf("MarkLoading: %v", err)
	}
	child, _ := s.Node(childID)
	if !child.IsLoading {
		t.Error("node not loading after MarkLoading")
	}
	if child.Expandable() {
		t.Error("loading node should not be expandable")
	}

	if err := s.MarkLoading(childID); !errors.Is(err, ErrAlreadyLoading) {
		t.Errorf("second MarkLoading = %v, want ErrAlreadyLoading", err)
	}
	if err := s.MarkLoading("missing"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("MarkLoading(missing) = %v, want ErrUnknownNode", err)
	}
}

func TestFailExpansion(t *testing.T) {
	s, _, childIDs := seedTree(t, "root", []string{"a"})
	childID := childIDs[0]

	if err := s.FailExpansion(childID); !errors.Is(err, ErrNotLoading) {
		t.Errorf("FailExpansion without loading = %v, want ErrNotLoading", err)
	}

	if err := s.MarkLoading(childID); err != nil {
		t.Fatalf("MarkLoading: %v", err)
	}
	if err := s.FailExpansion(childID); err != nil {
		t.Fatalf("FailExpansion: %v", err)
	}

	// The retry path: the node is expandable again.
	child, _ := s.Node(childID)
	if child.IsLoading || child.IsExpanded {
		t.Errorf("failed node loading=%v expanded=%v, want false/false",
			child.IsLoading, child.IsExpanded)
	}
	if !child.Expandable() {
		t.Error("failed node should be expandable for retry")
	}
}

func TestReset(t *testing.T) {
	s, _, _ := seedTree(t, "root", []string{"a", "b"})

	gen := s.Generation()
	s.Reset()

	if s.Len() != 0 {
		t.Errorf("Len() after reset = %d, want 0", s.Len())
	}
	if s.RootID() != "" {
		t.Errorf("RootID() after reset = %q, want empty", s.RootID())
	}
	if s.Generation() != gen+1 {
		t.Errorf("Generation() = %d, want %d", s.Generation(), gen+1)
	}

	// A fresh tree can be seeded after reset.
	if _, err := s.CreateRoot("again"); err != nil {
		t.Errorf("CreateRoot after reset: %v", err)
	}
}

func TestPath(t *testing.T) {
	s, rootID, childIDs := seedTree(t, "Music", []string{"Jazz"})
	jazzID := childIDs[0]

	if err := s.MarkLoading(jazzID); err != nil {
		t.Fatalf("MarkLoading: %v", err)
	}
	grandIDs, err := s.CommitExpansion(jazzID, []string{"Bebop"})
	if err != nil {
		t.Fatalf("CommitExpansion: %v", err)
	}

	tests := []struct {
		name string
		id   string
		want []string
	}{
		{"Root", rootID, nil},
		{"Child", jazzID, []string{"Music"}},
		{"Grandchild", grandIDs[0], []string{"Music", "Jazz"}},
		{"Unknown", "missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Path(tt.id)
			if len(got) != len(tt.want) {
				t.Fatalf("Path() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Path()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, rootID, _ := seedTree(t, "root", []string{"a"})

	snap := s.Snapshot()
	root := snap[rootID]
	root.Text = "mutated"
	root.ChildrenIDs[0] = "bogus"

	fresh, _ := s.Node(rootID)
	if fresh.Text != "root" {
		t.Errorf("store text = %q, want %q", fresh.Text, "root")
	}
	if fresh.ChildrenIDs[0] == "bogus" {
		t.Error("mutating a snapshot's children leaked into the store")
	}
}

func TestValidate(t *testing.T) {
	s, _, childIDs := seedTree(t, "root", []string{"a", "b", "c"})
	if err := s.MarkLoading(childIDs[1]); err != nil {
		t.Fatalf("MarkLoading: %v", err)
	}
	if _, err := s.CommitExpansion(childIDs[1], []string{"x", "y"}); err != nil {
		t.Fatalf("CommitExpansion: %v", err)
	}

	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	// Empty store is trivially valid.
	if err := NewStore().Validate(); err != nil {
		t.Errorf("Validate() on empty store = %v, want nil", err)
	}
}
