// Package render turns mind maps into viewable artifacts.
//
// Two sinks are provided:
//
//   - DOT/graphviz: [ToDOT] serializes the tree as a Graphviz digraph and
//     [RenderSVG]/[RenderPNG] rasterize it. Graphviz picks its own node
//     positions; use this for quick structural exports.
//   - Radial SVG: [RadialSVG] draws the layout engine's own coordinates -
//     concentric depth rings, edges, labeled nodes - so the artifact
//     matches exactly what an interactive client would show.
//
// Rendering is presentation only: it never mutates the store, and both
// sinks consume snapshots or layout results.
package render
