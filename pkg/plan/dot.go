package plan

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts a plan to Graphviz DOT format for inspection.
// Edges point from a node to its inputs, so arrows read "depends on".
// The resulting DOT string can be rendered with [RenderSVG] or external
// Graphviz tooling.
func ToDOT(p *Plan) string {
	var buf bytes.Buffer
	buf.WriteString("digraph plan {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range p.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key.Name(), strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, n := range p.Nodes {
		for _, in := range n.Inputs {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Key.Name(), in.Name())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n Node) []string {
	label := fmt.Sprintf("%s\n%s", n.Key.Name(), n.Kind)
	if n.Substituted() {
		label += fmt.Sprintf("\nfor %s", TypeName(n.Base))
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case KindProvided:
		attrs = append(attrs, "fillcolor=lightyellow")
	case KindItem:
		attrs = append(attrs, "fillcolor=lightblue")
	}
	if n.Substituted() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render SVG: %w", err)
	}
	return buf.Bytes(), nil
}
