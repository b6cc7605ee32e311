package mindmap

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/Nicnick-Xia/MindStorm/pkg/errors"
	"github.com/Nicnick-Xia/MindStorm/pkg/observability"
)

// DefaultExpandTimeout bounds a single idea-generation call. Timeouts are
// treated like any other collaborator failure: the node returns to its
// expandable state.
const DefaultExpandTimeout = 30 * time.Second

// Generator produces the sub-concepts for a node being expanded.
// Implementations live in pkg/ideas; the controller treats the service as
// a black box behind this contract.
//
// contextPath is the chain of ancestor texts from the root down to (but
// not including) concept, used to disambiguate the request. It is empty
// for root expansion. The returned ideas preserve generation order; an
// empty slice is a valid result (the concept has no sub-ideas), distinct
// from a non-nil error (the service failed and the caller may retry).
type Generator interface {
	GenerateIdeas(ctx context.Context, concept string, contextPath []string) ([]string, error)
}

// Controller orchestrates expansions end to end: it is the only writer of
// the store it owns. All store access is serialized through the
// controller's mutex, which is released across the collaborator call so
// expansions of different nodes can overlap.
//
// The core correctness property: a node is marked loading before the
// collaborator call suspends, and Expand no-ops on loading or expanded
// nodes, so at most one expansion request is ever outstanding per node.
// Double-clicks and rapid re-renders cannot create duplicate children.
type Controller struct {
	store  *Store
	gen    Generator
	logger *log.Logger

	// Timeout bounds each collaborator call. Zero means DefaultExpandTimeout.
	Timeout time.Duration

	mu      sync.Mutex
	onFocus func(nodeID string)
}

// NewController creates a controller that grows store using gen.
// If logger is nil, log.Default() is used.
func NewController(store *Store, gen Generator, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		store:  store,
		gen:    gen,
		logger: logger,
	}
}

// SetFocusFunc registers the camera focus callback. It fires exactly once
// per accepted expansion, when the request is accepted and before the
// result arrives, so the viewport can follow the click through the loading
// state. It is never re-fired on relayout.
func (c *Controller) SetFocusFunc(fn func(nodeID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFocus = fn
}

// Seed starts a fresh map from a seed concept: any existing tree is
// discarded, a root is created, and the root is expanded with an empty
// context path. Returns the root ID.
//
// Root creation follows the same pattern as Expand - the root is born
// loading, and the generation result is committed or failed against it.
// A collaborator failure leaves the root in place and expandable, so the
// user can retry without retyping the seed.
func (c *Controller) Seed(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidInput, "seed concept must not be empty")
	}

	c.mu.Lock()
	if c.store.RootID() != "" {
		c.store.Reset()
	}
	rootID, err := c.store.CreateRoot(text)
	if err != nil {
		c.mu.Unlock()
		return "", apperrors.Wrap(apperrors.ErrCodePrecondition, err, "create root %q", text)
	}
	generation := c.store.Generation()
	focus := c.onFocus
	c.mu.Unlock()

	if focus != nil {
		focus(rootID)
	}
	c.logger.Info("seeded map", "root", rootID, "text", text)

	if err := c.generate(ctx, rootID, text, nil, generation); err != nil {
		return rootID, err
	}
	return rootID, nil
}

// Expand grows the tree under the given node.
//
// The call is a silent no-op when the node is unknown, already loading, or
// already expanded - this is what makes click-to-expand safe to invoke
// repeatedly and concurrently. When the request is accepted, the node is
// marked loading synchronously (before any suspend point), the focus
// callback fires, and the idea-generation service is invoked with the
// node's text and its root-to-parent context path.
//
// On success the generated ideas are committed as the node's children; an
// empty result is committed too, making the node a terminal leaf. On
// failure the node returns to its expandable state and the error is
// surfaced with code [apperrors.ErrCodeCollaborator]. Responses that
// arrive after a Reset are discarded without touching the store.
func (c *Controller) Expand(ctx context.Context, nodeID string) error {
	c.mu.Lock()
	node, ok := c.store.Node(nodeID)
	if !ok || !node.Expandable() {
		c.mu.Unlock()
		observability.Expansion().OnExpandRejected(ctx, nodeID)
		c.logger.Debug("expand rejected", "node", nodeID, "known", ok)
		return nil
	}
	// The loading mark must land before this method suspends so that a
	// concurrent Expand for the same node sees it and no-ops.
	if err := c.store.MarkLoading(nodeID); err != nil {
		c.mu.Unlock()
		return apperrors.Wrap(apperrors.ErrCodePrecondition, err, "mark loading %s", nodeID)
	}
	generation := c.store.Generation()
	path := c.store.Path(nodeID)
	focus := c.onFocus
	c.mu.Unlock()

	if focus != nil {
		focus(nodeID)
	}

	return c.generate(ctx, nodeID, node.Text, path, generation)
}

// Reset discards the whole tree. Any in-flight expansion responses are
// dropped when they arrive, since their store generation no longer matches.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Reset()
	c.logger.Debug("store reset", "generation", c.store.Generation())
}

// generate runs the collaborator call for a node already marked loading
// and commits or fails the expansion. generation is the store generation
// captured before suspending; a mismatch on return means the tree was
// reset mid-flight and the response must be discarded.
func (c *Controller) generate(ctx context.Context, nodeID, text string, path []string, generation uint64) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultExpandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	observability.Expansion().OnExpandStart(ctx, nodeID, text)
	start := time.Now()

	ideas, genErr := c.gen.GenerateIdeas(ctx, text, path)
	ideas = cleanIdeas(ideas)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Generation() != generation {
		c.logger.Debug("discarding stale expansion response", "node", nodeID)
		return nil
	}

	if genErr != nil {
		if err := c.store.FailExpansion(nodeID); err != nil {
			return apperrors.Wrap(apperrors.ErrCodePrecondition, err, "fail expansion %s", nodeID)
		}
		observability.Expansion().OnExpandComplete(ctx, nodeID, 0, time.Since(start), genErr)
		c.logger.Warn("expansion failed", "node", nodeID, "text", text, "err", genErr)
		return apperrors.Wrap(apperrors.ErrCodeCollaborator, genErr, "generate ideas for %q", text)
	}

	childIDs, err := c.store.CommitExpansion(nodeID, ideas)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodePrecondition, err, "commit expansion %s", nodeID)
	}

	observability.Expansion().OnExpandComplete(ctx, nodeID, len(childIDs), time.Since(start), nil)
	c.logger.Info("expanded node", "node", nodeID, "text", text, "children", len(childIDs),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// WithSnapshot calls fn with a consistent snapshot of the store taken
// under the controller's lock. Callers on other goroutines (the HTTP
// server, the TUI) use this to feed the layout engine without racing a
// commit mid-mutation.
func (c *Controller) WithSnapshot(fn func(nodes map[string]Node, rootID string)) {
	c.mu.Lock()
	snapshot := c.store.Snapshot()
	rootID := c.store.RootID()
	c.mu.Unlock()
	fn(snapshot, rootID)
}

// cleanIdeas trims whitespace and drops empty entries, preserving order.
// Collaborators occasionally pad responses with blank lines; blanks are
// not valid node labels.
func cleanIdeas(ideas []string) []string {
	cleaned := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		if idea = strings.TrimSpace(idea); idea != "" {
			cleaned = append(cleaned, idea)
		}
	}
	return slices.Clip(cleaned)
}
