package render

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"

	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap"
)

// ToDOT converts the tree rooted at rootID to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG] or [RenderPNG].
//
// The root is emphasized with a doubled outline; nodes still loading are
// rendered dashed. Children follow generation order, and unreachable
// entries in the snapshot are skipped (they cannot arise from a correct
// store).
func ToDOT(nodes map[string]mindmap.Node, rootID string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph mindmap {\n")
	buf.WriteString("  layout=twopi;\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	root, ok := nodes[rootID]
	if !ok {
		buf.WriteString("}\n")
		return buf.String()
	}
	fmt.Fprintf(&buf, "  root=%q;\n\n", root.ID)

	var walk func(n mindmap.Node)
	walk = func(n mindmap.Node) {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, nodeAttrs(n))
		for _, childID := range n.ChildrenIDs {
			if child, ok := nodes[childID]; ok {
				walk(child)
			}
		}
	}
	walk(root)

	buf.WriteString("\n")
	var emitEdges func(n mindmap.Node)
	emitEdges = func(n mindmap.Node) {
		for _, childID := range n.ChildrenIDs {
			child, ok := nodes[childID]
			if !ok {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ID, child.ID)
			emitEdges(child)
		}
	}
	emitEdges(root)

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n mindmap.Node) string {
	attrs := fmt.Sprintf("label=%q", n.Text)
	switch {
	case n.IsRoot():
		attrs += ", peripheries=2, fillcolor=lightyellow"
	case n.IsLoading:
		attrs += ", style=\"rounded,filled,dashed\", fillcolor=lightgrey"
	}
	return attrs
}

// SortedByDepth returns the snapshot's nodes ordered by depth, then text.
// Renderers and debug output use it for stable iteration over the flat map.
func SortedByDepth(nodes map[string]mindmap.Node) []mindmap.Node {
	out := make([]mindmap.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
