package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap"
	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap/layout"
	"github.com/Nicnick-Xia/MindStorm/pkg/render"
)

// Output formats for the render command.
const (
	formatSVG  = "svg"
	formatPNG  = "png"
	formatDOT  = "dot"
	formatJSON = "json"
)

// renderCommand creates the render command for one-shot map generation.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		depth      int
		configPath string
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "render [concept]",
		Short: "Generate a mind map image from a seed concept",
		Long: `Generate a mind map image from a seed concept.

The concept becomes the central node, every node is expanded breadth-first
down to --depth levels, and the resulting tree is written as a radial SVG,
a PNG, Graphviz DOT source, or the raw layout as JSON.

By default ideas come from the built-in offline generator, so render works
without any credentials. Point --config at a generator configuration to use
a live model instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := validateFormats(formats); err != nil {
				return err
			}

			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if configPath == "" {
				offline = true
			}
			return c.runRender(cmd.Context(), args[0], cfg, renderParams{
				formats: formats,
				output:  output,
				depth:   depth,
				offline: offline,
			})
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "levels to expand below the root")
	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in generator, no network calls")

	return cmd
}

type renderParams struct {
	formats []string
	output  string
	depth   int
	offline bool
}

func (c *CLI) runRender(ctx context.Context, concept string, cfg *Config, p renderParams) error {
	gen, err := c.newGenerator(ctx, cfg, p.offline)
	if err != nil {
		return fmt.Errorf("initialize generator: %w", err)
	}

	store := mindmap.NewStore()
	ctrl := mindmap.NewController(store, gen, c.Logger)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Growing %q...", concept))
	spinner.Start()

	if _, err := ctrl.Seed(ctx, concept); err != nil {
		spinner.StopWithError("Seed failed")
		return fmt.Errorf("seed: %w", err)
	}

	// Breadth-first expansion: each pass expands every node created by
	// the previous one, so pass n fills depth n+1.
	for level := 1; level < p.depth; level++ {
		for _, id := range expandableIDs(store) {
			if err := ctrl.Expand(ctx, id); err != nil {
				spinner.StopWithError("Expansion failed")
				return fmt.Errorf("expand: %w", err)
			}
		}
	}
	spinner.Stop()

	nodes := store.Snapshot()
	res := layout.Compute(nodes, store.RootID())
	printStats(len(res.Nodes), len(res.Links))

	for _, format := range p.formats {
		data, err := renderArtifact(ctx, format, nodes, store.RootID(), res)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		path := outputPath(p.output, concept, format, len(p.formats) > 1)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printSuccess("Rendered %q", concept)
	return nil
}

// expandableIDs returns the nodes eligible for expansion, shallowest first.
func expandableIDs(store *mindmap.Store) []string {
	var ids []string
	for _, n := range render.SortedByDepth(store.Snapshot()) {
		if n.Expandable() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func renderArtifact(ctx context.Context, format string, nodes map[string]mindmap.Node, rootID string, res layout.Result) ([]byte, error) {
	switch format {
	case formatSVG:
		return render.RadialSVG(res), nil
	case formatDOT:
		return []byte(render.ToDOT(nodes, rootID)), nil
	case formatPNG:
		return render.RenderPNG(ctx, render.ToDOT(nodes, rootID))
	case formatJSON:
		return json.MarshalIndent(res, "", "  ")
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// outputPath derives the output file name. With multiple formats the
// extension is appended per format; otherwise output is used as-is.
func outputPath(output, concept, format string, multi bool) string {
	if output == "" {
		base := strings.ToLower(strings.ReplaceAll(concept, " ", "-"))
		return base + "." + format
	}
	if multi {
		return output + "." + format
	}
	return output
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case formatSVG, formatPNG, formatDOT, formatJSON:
		default:
			return fmt.Errorf("unknown format %q (valid: svg, png, dot, json)", f)
		}
	}
	return nil
}
