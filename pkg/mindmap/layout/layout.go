package layout

import (
	"math"

	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap"
)

// RadiusStep is the ring spacing: a node at depth d sits at radius
// d * RadiusStep from the origin.
const RadiusStep = 120.0

// PositionedNode is one laid-out node: the store record's display fields
// annotated with Cartesian coordinates. Parent coordinates are carried
// redundantly so renderers can draw incoming edges without a lookup.
type PositionedNode struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Depth       int      `json:"depth"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	ParentID    string   `json:"parent_id,omitempty"`
	ParentX     float64  `json:"parent_x"`
	ParentY     float64  `json:"parent_y"`
	IsLoading   bool     `json:"is_loading,omitempty"`
	ChildrenIDs []string `json:"children_ids,omitempty"`
}

// Link is one parent→child edge with both endpoints resolved.
type Link struct {
	SourceID string  `json:"source_id"`
	SourceX  float64 `json:"source_x"`
	SourceY  float64 `json:"source_y"`
	TargetID string  `json:"target_id"`
	TargetX  float64 `json:"target_x"`
	TargetY  float64 `json:"target_y"`
}

// Result is a complete layout: every node reachable from the root with its
// coordinates, and one link per parent-child relationship. Nodes appear in
// depth-first preorder (root first, children in generation order), links in
// the same traversal order, so output is deterministic for a given tree.
type Result struct {
	Nodes []PositionedNode `json:"nodes"`
	Links []Link           `json:"links"`
}

// Compute lays out the tree rooted at rootID on concentric rings and
// returns the positioned nodes and edges. It is a pure function of the
// snapshot: no randomness, no retained state, bit-identical output for
// identical tree shape and sibling order.
//
// The root is pinned to the origin. Every other node's radius is
// depth * [RadiusStep], and angles are assigned by distributing the leaves
// of the tree around the circle: consecutive leaves are separated by a gap
// of 1 unit when they share a parent and 2 units otherwise, scaled by
// 1/depth so deep rings need less angular padding. An internal node sits at
// the midpoint of its first and last child's angles, which gives each
// subtree a wedge proportional to its leaf count and keeps sibling
// subtrees from colliding. Angle 0 points up (the polar-to-Cartesian
// conversion rotates by -π/2).
//
// Growing one branch re-partitions the whole circle, so an expansion can
// shift the angles of unrelated subtrees. This is deliberate: a full
// relayout is simpler and cheaper to reason about than incremental
// stability, and callers animate position changes anyway.
//
// Compute returns an empty Result if rootID is absent from the snapshot or
// the snapshot does not form a single valid tree reachable from rootID
// (dangling child references, shared children). Those shapes cannot arise
// from a correct [mindmap.Store]; the empty result is a defensive guard,
// and tests assert on [mindmap.Store.Validate] to fail loudly instead.
func Compute(nodes map[string]mindmap.Node, rootID string) Result {
	root, ok := nodes[rootID]
	if !ok {
		return Result{}
	}

	order, ok := preorder(nodes, root)
	if !ok {
		return Result{}
	}

	angles := assignAngles(nodes, order)

	var res Result
	res.Nodes = make([]PositionedNode, 0, len(order))
	for _, n := range order {
		x, y := toCartesian(angles[n.ID], float64(n.Depth)*RadiusStep)
		pn := PositionedNode{
			ID:          n.ID,
			Text:        n.Text,
			Depth:       n.Depth,
			X:           x,
			Y:           y,
			ParentID:    n.ParentID,
			IsLoading:   n.IsLoading,
			ChildrenIDs: n.ChildrenIDs,
		}
		if p, ok := nodes[n.ParentID]; ok {
			pn.ParentX, pn.ParentY = toCartesian(angles[p.ID], float64(p.Depth)*RadiusStep)
		}
		res.Nodes = append(res.Nodes, pn)
	}

	for _, n := range order {
		if n.IsRoot() {
			continue
		}
		p := nodes[n.ParentID]
		sx, sy := toCartesian(angles[p.ID], float64(p.Depth)*RadiusStep)
		tx, ty := toCartesian(angles[n.ID], float64(n.Depth)*RadiusStep)
		res.Links = append(res.Links, Link{
			SourceID: p.ID,
			SourceX:  sx,
			SourceY:  sy,
			TargetID: n.ID,
			TargetX:  tx,
			TargetY:  ty,
		})
	}

	return res
}

// preorder walks the tree depth-first from root in children order and
// returns the visited nodes. The second return is false if a child link
// points at a missing node or a node is reached twice (not a tree).
func preorder(nodes map[string]mindmap.Node, root mindmap.Node) ([]mindmap.Node, bool) {
	seen := make(map[string]bool, len(nodes))
	var order []mindmap.Node

	var walk func(n mindmap.Node) bool
	walk = func(n mindmap.Node) bool {
		if seen[n.ID] {
			return false
		}
		seen[n.ID] = true
		order = append(order, n)
		for _, childID := range n.ChildrenIDs {
			child, ok := nodes[childID]
			if !ok || !walk(child) {
				return false
			}
		}
		return true
	}

	if !walk(root) {
		return nil, false
	}
	return order, true
}

// assignAngles distributes leaves around the circle with depth-scaled
// separation, then positions each internal node at the midpoint of its
// children's angular span. The root is pinned to angle 0.
func assignAngles(nodes map[string]mindmap.Node, order []mindmap.Node) map[string]float64 {
	// Leaves in traversal order carry the angular budget.
	var leaves []mindmap.Node
	for _, n := range order {
		if len(n.ChildrenIDs) == 0 {
			leaves = append(leaves, n)
		}
	}

	angles := make(map[string]float64, len(order))
	root := order[0]
	angles[root.ID] = 0

	if len(leaves) == 1 {
		// Root-only tree, or a single chain: everything at angle 0.
		for _, n := range order {
			angles[n.ID] = 0
		}
		return angles
	}

	// Cumulative leaf positions in separation units. The gap closing the
	// circle (last leaf back to first) uses the same rule, so the first and
	// last leaves never coincide at 0/2π.
	pos := make([]float64, len(leaves))
	for i := 1; i < len(leaves); i++ {
		pos[i] = pos[i-1] + separation(leaves[i-1], leaves[i])
	}
	total := pos[len(leaves)-1] + separation(leaves[len(leaves)-1], leaves[0])

	for i, leaf := range leaves {
		angles[leaf.ID] = 2 * math.Pi * pos[i] / total
	}

	// Internal nodes in reverse preorder: children are resolved before
	// their parent.
	for i := len(order) - 1; i >= 1; i-- {
		n := order[i]
		if len(n.ChildrenIDs) == 0 {
			continue
		}
		first := angles[n.ChildrenIDs[0]]
		last := angles[n.ChildrenIDs[len(n.ChildrenIDs)-1]]
		angles[n.ID] = (first + last) / 2
	}

	return angles
}

// separation returns the angular gap in units between two consecutive
// leaves: half as wide for leaves sharing a parent, shrinking with depth
// since deeper rings have more circumference per radian.
func separation(a, b mindmap.Node) float64 {
	gap := 2.0
	if a.ParentID == b.ParentID {
		gap = 1.0
	}
	depth := max(b.Depth, 1)
	return gap / float64(depth)
}

// toCartesian converts a polar coordinate to Cartesian, rotating by -π/2
// so that angle 0 points up rather than right.
func toCartesian(angle, radius float64) (x, y float64) {
	return radius * math.Cos(angle-math.Pi/2), radius * math.Sin(angle-math.Pi/2)
}
