package render

import (
	"bytes"
	"fmt"

	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap/layout"
)

// Radial SVG geometry. Margins leave room for labels on the outer ring.
const (
	nodeRadius   = 18.0
	labelOffset  = 26.0
	frameMargin  = 90.0
	ringStroke   = "#e5e7eb"
	edgeStroke   = "#94a3b8"
	nodeFill     = "#ffffff"
	nodeStroke   = "#334155"
	rootFill     = "#fef9c3"
	loadingColor = "#cbd5e1"
)

// RadialSVG draws a layout result as a standalone SVG: faint depth rings,
// parent-child edges, then nodes with labels. The viewBox is centered on
// the origin and sized to the deepest ring, so the root is always in the
// middle of the frame. An empty result yields a minimal empty SVG.
func RadialSVG(res layout.Result) []byte {
	maxDepth := 0
	for _, n := range res.Nodes {
		maxDepth = max(maxDepth, n.Depth)
	}
	extent := float64(maxDepth)*layout.RadiusStep + frameMargin
	size := 2 * extent

	var buf bytes.Buffer
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		-extent, -extent, size, size, size, size)

	// Depth rings, innermost first.
	for d := 1; d <= maxDepth; d++ {
		fmt.Fprintf(&buf,
			`  <circle cx="0" cy="0" r="%.1f" fill="none" stroke="%s" stroke-dasharray="4 6"/>`+"\n",
			float64(d)*layout.RadiusStep, ringStroke)
	}

	// Edges under nodes.
	for _, l := range res.Links {
		fmt.Fprintf(&buf,
			`  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1.5"/>`+"\n",
			l.SourceX, l.SourceY, l.TargetX, l.TargetY, edgeStroke)
	}

	for _, n := range res.Nodes {
		fill := nodeFill
		stroke := nodeStroke
		if n.Depth == 0 {
			fill = rootFill
		}
		if n.IsLoading {
			stroke = loadingColor
		}
		fmt.Fprintf(&buf,
			`  <circle cx="%.2f" cy="%.2f" r="%.1f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			n.X, n.Y, nodeRadius, fill, stroke)
		fmt.Fprintf(&buf,
			`  <text x="%.2f" y="%.2f" text-anchor="middle" font-family="sans-serif" font-size="13">%s</text>`+"\n",
			n.X, n.Y+labelOffset+6, escapeText(n.Text))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// escapeText escapes the XML special characters that can appear in labels.
func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
