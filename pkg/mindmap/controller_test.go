package mindmap

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/Nicnick-Xia/MindStorm/pkg/errors"
)

// fakeGenerator is a scriptable Generator. When entered and release are
// set, each call signals entered and then blocks until release is closed,
// which lets tests hold an expansion in flight.
type fakeGenerator struct {
	ideas []string
	err   error

	entered chan struct{}
	release chan struct{}

	mu          sync.Mutex
	calls       int
	lastConcept string
	lastPath    []string
}

func (g *fakeGenerator) GenerateIdeas(ctx context.Context, concept string, contextPath []string) ([]string, error) {
	g.mu.Lock()
	g.calls++
	g.lastConcept = concept
	g.lastPath = append([]string(nil), contextPath...)
	g.mu.Unlock()

	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	return g.ideas, g.err
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestController(gen Generator) (*Controller, *Store) {
	store := NewStore()
	return NewController(store, gen, log.New(io.Discard)), store
}

func TestSeed(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"Espresso", "Filter"}}
	ctrl, store := newTestController(gen)

	var focused []string
	ctrl.SetFocusFunc(func(id string) { focused = append(focused, id) })

	rootID, err := ctrl.Seed(context.Background(), "  Coffee  ")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	root, ok := store.Node(rootID)
	if !ok {
		t.Fatal("root not in store")
	}
	if root.Text != "Coffee" {
		t.Errorf("root text = %q, want %q (trimmed)", root.Text, "Coffee")
	}
	if !root.IsExpanded {
		t.Error("root not expanded after seed")
	}
	if len(root.ChildrenIDs) != 2 {
		t.Errorf("root children = %d, want 2", len(root.ChildrenIDs))
	}
	if gen.lastConcept != "Coffee" {
		t.Errorf("generator concept = %q, want %q", gen.lastConcept, "Coffee")
	}
	if len(gen.lastPath) != 0 {
		t.Errorf("root context path = %v, want empty", gen.lastPath)
	}
	if len(focused) != 1 || focused[0] != rootID {
		t.Errorf("focus calls = %v, want [%s]", focused, rootID)
	}
	if err := store.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSeedEmptyText(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl, store := newTestController(gen)

	if _, err := ctrl.Seed(context.Background(), "   "); apperrors.GetCode(err) != apperrors.ErrCodeInvalidInput {
		t.Errorf("Seed(blank) code = %v, want ErrCodeInvalidInput", apperrors.GetCode(err))
	}
	if store.Len() != 0 {
		t.Errorf("store len = %d, want 0", store.Len())
	}
	if gen.callCount() != 0 {
		t.Error("generator should not be called for a blank seed")
	}
}

func TestSeedReplacesExistingTree(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"a"}}
	ctrl, store := newTestController(gen)

	first, err := ctrl.Seed(context.Background(), "first")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	second, err := ctrl.Seed(context.Background(), "second")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if _, ok := store.Node(first); ok {
		t.Error("old tree survived reseeding")
	}
	root, _ := store.Node(second)
	if root.Text != "second" {
		t.Errorf("root text = %q, want %q", root.Text, "second")
	}
}

func TestExpand(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"Bebop", "Swing"}}
	ctrl, store := newTestController(gen)

	rootID, err := ctrl.Seed(context.Background(), "Music")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	root, _ := store.Node(rootID)
	jazzID := root.ChildrenIDs[0]

	if err := ctrl.Expand(context.Background(), jazzID); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	jazz, _ := store.Node(jazzID)
	if !jazz.IsExpanded {
		t.Error("node not expanded")
	}
	if len(jazz.ChildrenIDs) != 2 {
		t.Errorf("children = %d, want 2", len(jazz.ChildrenIDs))
	}
	// The request carried the ancestor chain, not the node itself.
	if len(gen.lastPath) != 1 || gen.lastPath[0] != "Music" {
		t.Errorf("context path = %v, want [Music]", gen.lastPath)
	}
	if err := store.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestExpandNoOps(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"a"}}
	ctrl, store := newTestController(gen)

	rootID, err := ctrl.Seed(context.Background(), "root")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	calls := gen.callCount()

	// Unknown node and already-expanded node both no-op without error.
	if err := ctrl.Expand(context.Background(), "missing"); err != nil {
		t.Errorf("Expand(missing) = %v, want nil", err)
	}
	if err := ctrl.Expand(context.Background(), rootID); err != nil {
		t.Errorf("Expand(expanded) = %v, want nil", err)
	}
	if gen.callCount() != calls {
		t.Errorf("generator calls = %d, want %d (no-ops must not reach it)", gen.callCount(), calls)
	}
	if store.Len() != 2 {
		t.Errorf("store len = %d, want 2", store.Len())
	}
}

func TestExpandConcurrentDuplicate(t *testing.T) {
	gen := &fakeGenerator{
		ideas:   []string{"x"},
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	ctrl, store := newTestController(gen)

	// Seed passes through the gate too.
	done := make(chan string, 1)
	go func() {
		id, _ := ctrl.Seed(context.Background(), "root")
		done <- id
	}()
	<-gen.entered
	gen.release <- struct{}{}
	rootID := <-done

	root, _ := store.Node(rootID)
	childID := root.ChildrenIDs[0]

	expandDone := make(chan error, 1)
	go func() { expandDone <- ctrl.Expand(context.Background(), childID) }()
	<-gen.entered

	// While the first expansion is suspended the node is loading, so a
	// second click is a silent no-op that never reaches the generator.
	if err := ctrl.Expand(context.Background(), childID); err != nil {
		t.Errorf("duplicate Expand = %v, want nil", err)
	}
	if gen.callCount() != 2 {
		t.Errorf("generator calls = %d, want 2 (seed + first expand)", gen.callCount())
	}

	gen.release <- struct{}{}
	if err := <-expandDone; err != nil {
		t.Fatalf("Expand: %v", err)
	}

	child, _ := store.Node(childID)
	if len(child.ChildrenIDs) != 1 {
		t.Errorf("children = %d, want 1 (no duplicates)", len(child.ChildrenIDs))
	}
}

func TestExpandFailure(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"a"}}
	ctrl, store := newTestController(gen)

	rootID, err := ctrl.Seed(context.Background(), "root")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	root, _ := store.Node(rootID)
	childID := root.ChildrenIDs[0]

	gen.err = errors.New("service unavailable")
	err = ctrl.Expand(context.Background(), childID)
	if apperrors.GetCode(err) != apperrors.ErrCodeCollaborator {
		t.Errorf("Expand error code = %v, want ErrCodeCollaborator", apperrors.GetCode(err))
	}

	// Failure returns the node to the expandable state for a retry.
	child, _ := store.Node(childID)
	if child.IsLoading || child.IsExpanded || len(child.ChildrenIDs) != 0 {
		t.Errorf("failed node = %+v, want clean expandable state", child)
	}

	gen.err = nil
	if err := ctrl.Expand(context.Background(), childID); err != nil {
		t.Fatalf("retry Expand: %v", err)
	}
	child, _ = store.Node(childID)
	if !child.IsExpanded {
		t.Error("retry did not expand the node")
	}
}

func TestExpandEmptyResult(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"a"}}
	ctrl, store := newTestController(gen)

	rootID, err := ctrl.Seed(context.Background(), "root")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	root, _ := store.Node(rootID)
	childID := root.ChildrenIDs[0]

	gen.ideas = nil
	if err := ctrl.Expand(context.Background(), childID); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	child, _ := store.Node(childID)
	if !child.IsExpanded {
		t.Error("empty result should still mark the node expanded")
	}
	if child.Expandable() {
		t.Error("terminal leaf should not be expandable")
	}
}

func TestExpandDropsBlankIdeas(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"  Alpha  ", "", "   ", "Beta"}}
	ctrl, store := newTestController(gen)

	rootID, err := ctrl.Seed(context.Background(), "root")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	root, _ := store.Node(rootID)
	if len(root.ChildrenIDs) != 2 {
		t.Fatalf("children = %d, want 2 (blanks dropped)", len(root.ChildrenIDs))
	}
	a, _ := store.Node(root.ChildrenIDs[0])
	b, _ := store.Node(root.ChildrenIDs[1])
	if a.Text != "Alpha" || b.Text != "Beta" {
		t.Errorf("child texts = %q, %q, want Alpha, Beta", a.Text, b.Text)
	}
}

func TestResetDiscardsInFlightExpansion(t *testing.T) {
	gen := &fakeGenerator{
		ideas:   []string{"x"},
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	ctrl, store := newTestController(gen)

	done := make(chan string, 1)
	go func() {
		id, _ := ctrl.Seed(context.Background(), "root")
		done <- id
	}()
	<-gen.entered
	gen.release <- struct{}{}
	rootID := <-done

	root, _ := store.Node(rootID)
	childID := root.ChildrenIDs[0]

	expandDone := make(chan error, 1)
	go func() { expandDone <- ctrl.Expand(context.Background(), childID) }()
	<-gen.entered

	// The tree is discarded while the response is still in flight.
	ctrl.Reset()
	gen.release <- struct{}{}

	if err := <-expandDone; err != nil {
		t.Errorf("stale expansion = %v, want nil (silent discard)", err)
	}
	if store.Len() != 0 {
		t.Errorf("store len = %d, want 0 (stale response must not land)", store.Len())
	}
}

func TestExpandTimeout(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"a"}}
	ctrl, store := newTestController(gen)
	ctrl.Timeout = 10 * time.Millisecond

	rootID, err := ctrl.Seed(context.Background(), "root")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	root, _ := store.Node(rootID)
	childID := root.ChildrenIDs[0]

	// A generator that honors context cancellation surfaces the timeout
	// as a collaborator failure.
	slow := &fakeGenerator{err: context.DeadlineExceeded}
	ctrlSlow := NewController(store, slow, log.New(io.Discard))
	ctrlSlow.Timeout = 10 * time.Millisecond

	err = ctrlSlow.Expand(context.Background(), childID)
	if apperrors.GetCode(err) != apperrors.ErrCodeCollaborator {
		t.Errorf("timeout error code = %v, want ErrCodeCollaborator", apperrors.GetCode(err))
	}
	child, _ := store.Node(childID)
	if !child.Expandable() {
		t.Error("timed-out node should be expandable again")
	}
}

func TestWithSnapshot(t *testing.T) {
	gen := &fakeGenerator{ideas: []string{"a", "b"}}
	ctrl, _ := newTestController(gen)

	rootID, err := ctrl.Seed(context.Background(), "root")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	var gotRoot string
	var gotLen int
	ctrl.WithSnapshot(func(nodes map[string]Node, id string) {
		gotRoot = id
		gotLen = len(nodes)
	})
	if gotRoot != rootID {
		t.Errorf("snapshot root = %q, want %q", gotRoot, rootID)
	}
	if gotLen != 3 {
		t.Errorf("snapshot len = %d, want 3", gotLen)
	}
}
