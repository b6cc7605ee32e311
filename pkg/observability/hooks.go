// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about expansions, layout computation, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExpansionHooks(&myExpansionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Expansion().OnExpandStart(ctx, nodeID, text)
//	// ... call the generation service ...
//	observability.Expansion().OnExpandComplete(ctx, nodeID, ideaCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Expansion Hooks
// =============================================================================

// ExpansionHooks receives events from the expansion controller.
type ExpansionHooks interface {
	// OnExpandStart records an accepted expansion request, after the node
	// is marked loading and before the generation service is called.
	OnExpandStart(ctx context.Context, nodeID, text string)

	// OnExpandComplete records the end of an expansion: the number of ideas
	// committed (0 for a terminal leaf) and the error on the failure path.
	OnExpandComplete(ctx context.Context, nodeID string, ideaCount int, duration time.Duration, err error)

	// OnExpandRejected records an expansion request dropped by the
	// precondition gate (node loading, expanded, or unknown).
	OnExpandRejected(ctx context.Context, nodeID string)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from layout computation.
type LayoutHooks interface {
	// OnLayout records one full relayout of the tree.
	OnLayout(ctx context.Context, nodeCount int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExpansionHooks is a no-op implementation of ExpansionHooks.
type NoopExpansionHooks struct{}

func (NoopExpansionHooks) OnExpandStart(context.Context, string, string)                        {}
func (NoopExpansionHooks) OnExpandComplete(context.Context, string, int, time.Duration, error)  {}
func (NoopExpansionHooks) OnExpandRejected(context.Context, string)                             {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayout(context.Context, int, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	expansionHooks ExpansionHooks = NoopExpansionHooks{}
	layoutHooks    LayoutHooks    = NoopLayoutHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetExpansionHooks registers custom expansion hooks.
// This should be called once at application startup before any expansions.
func SetExpansionHooks(h ExpansionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		expansionHooks = h
	}
}

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layouts.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Expansion returns the registered expansion hooks.
func Expansion() ExpansionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return expansionHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	expansionHooks = NoopExpansionHooks{}
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
}
