// Package mindmap implements the core of an interactive mind-mapping
// visualizer: a tree store for an incrementally-growing tree of labeled
// idea nodes, and an expansion controller that grows it by calling an
// external idea-generation service.
//
// # Architecture
//
// The package separates three concerns:
//
//   - [Store] owns all node records and enforces the mutation rules: one
//     root, derived depths, bulk one-shot child creation, loading flags.
//   - [Controller] orchestrates expansions end to end: precondition gate,
//     loading mark before the suspend point, collaborator call, commit or
//     fail, stale-response discard after a reset.
//   - Package layout (subdirectory) converts store snapshots into radial
//     coordinates; it holds no state of its own.
//
// # Concurrency
//
// The store is single-writer: only the controller mutates it, and every
// mutation is synchronous. Because [Controller.Expand] marks a node loading
// before issuing the asynchronous collaborator call, a second expansion
// request for the same node observes the loading flag and no-ops, so at
// most one expansion is ever in flight per node. Expansions of different
// nodes are independent and may overlap.
//
// # Usage
//
//	store := mindmap.NewStore()
//	ctrl := mindmap.NewController(store, generator, logger)
//
//	rootID, err := ctrl.Seed(ctx, "Sustainable cities")
//	if err != nil { ... }
//
//	if err := ctrl.Expand(ctx, rootID); err != nil { ... }
//
//	result := layout.Compute(store.Snapshot(), store.RootID())
package mindmap
