package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font/gofont/goregular"
)

// Flow markup is a line-oriented mini language:
//
//	fetch: "Fetch the page"
//	start -> fetch -> parse -> done
//
// Idents name nodes; a colon statement attaches a display label; arrow
// chains declare edges. Nodes appear in first-mention order.
var (
	flowLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Arrow", Pattern: `->`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Colon", Pattern: `:`},
	})

	flowParser = participle.MustBuild[flowFile](
		participle.Lexer(flowLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
)

type flowFile struct {
	Stmts []*flowStmt `parser:"Newline* ( @@ ( Newline+ | EOF ) )*"`
}

type flowStmt struct {
	Head  string   `parser:"@Ident"`
	Label *string  `parser:"( Colon @String )?"`
	Tail  []string `parser:"( Arrow @Ident )*"`
}

// FlowNode is one box in the rendered chart.
type FlowNode struct {
	ID    string
	Label string
}

// FlowEdge is a directed arrow between two nodes.
type FlowEdge struct {
	From string
	To   string
}

// FlowGraph is the parsed flow markup: nodes in first-mention order plus
// directed edges.
type FlowGraph struct {
	Nodes []FlowNode
	Edges []FlowEdge
}

// ParseFlow parses flow markup into a graph. Malformed markup is an error;
// the caller converts it to a recoverable panel failure.
func ParseFlow(source string) (*FlowGraph, error) {
	file, err := flowParser.ParseString("", source)
	if err != nil {
		return nil, fmt.Errorf("parse flow markup: %w", err)
	}

	g := &FlowGraph{}
	index := map[string]int{}
	touch := func(id string) {
		if _, ok := index[id]; ok {
			return
		}
		index[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, FlowNode{ID: id, Label: id})
	}

	for _, stmt := range file.Stmts {
		touch(stmt.Head)
		if stmt.Label != nil {
			g.Nodes[index[stmt.Head]].Label = *stmt.Label
		}
		prev := stmt.Head
		for _, next := range stmt.Tail {
			touch(next)
			g.Edges = append(g.Edges, FlowEdge{From: prev, To: next})
			prev = next
		}
	}

	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("flow markup declares no nodes")
	}
	return g, nil
}

// Geometry of the vector chart, in canvas units. The raster is produced
// oversized and scaled down into the panel, so exact units are arbitrary.
const (
	flowNodeWidth  = 220.0
	flowNodeHeight = 56.0
	flowGap        = 44.0
	flowMargin     = 24.0
	flowFontSize   = 20.0
	flowArrowHead  = 8.0
)

// rasterizeFlow renders the graph as a vertical chain of rounded boxes with
// arrows and rasterizes the vector canvas to an RGBA image.
func rasterizeFlow(g *FlowGraph, theme Theme) (*image.RGBA, error) {
	family := canvas.NewFontFamily("flow")
	if err := family.LoadFont(goregular.TTF, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("load flow font: %w", err)
	}

	width := flowNodeWidth + 2*flowMargin
	height := float64(len(g.Nodes))*flowNodeHeight +
		float64(len(g.Nodes)-1)*flowGap + 2*flowMargin

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // top-left origin to match raster space

	face := family.Face(flowFontSize, theme.Foreground, canvas.FontRegular, canvas.FontNormal)

	centers := make(map[string]float64, len(g.Nodes))
	for i, node := range g.Nodes {
		y := flowMargin + float64(i)*(flowNodeHeight+flowGap)
		centers[node.ID] = y + flowNodeHeight/2

		ctx.SetFillColor(theme.Background)
		ctx.SetStrokeColor(theme.Foreground)
		ctx.SetStrokeWidth(2)
		ctx.DrawPath(flowMargin, y, canvas.RoundedRectangle(flowNodeWidth, flowNodeHeight, 8))

		label := fitLabel(node.Label, 24)
		text := canvas.NewTextLine(face, label, canvas.Center)
		ctx.DrawText(flowMargin+flowNodeWidth/2, y+flowNodeHeight/2-flowFontSize/2, text)
	}

	ctx.SetStrokeColor(theme.Foreground)
	ctx.SetStrokeWidth(2)
	for _, edge := range g.Edges {
		fromY, okFrom := centers[edge.From]
		toY, okTo := centers[edge.To]
		if !okFrom || !okTo {
			continue
		}
		x := flowMargin + flowNodeWidth/2
		y0 := fromY + flowNodeHeight/2
		y1 := toY - flowNodeHeight/2
		if toY < fromY {
			y0 = fromY - flowNodeHeight/2
			y1 = toY + flowNodeHeight/2
		}

		line := &canvas.Path{}
		line.MoveTo(0, 0)
		line.LineTo(0, y1-y0)
		ctx.DrawPath(x, y0, line)

		// Arrow head at the destination edge.
		dir := 1.0
		if y1 < y0 {
			dir = -1.0
		}
		head := &canvas.Path{}
		head.MoveTo(-flowArrowHead/2, -dir*flowArrowHead)
		head.LineTo(0, 0)
		head.LineTo(flowArrowHead/2, -dir*flowArrowHead)
		ctx.DrawPath(x, y1, head)
	}

	img := rasterizer.Draw(c, canvas.DPMM(2.0), canvas.DefaultColorSpace)
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("flow rasterizer produced no image")
	}
	return img, nil
}

// fitLabel truncates long labels so they stay inside the node box.
func fitLabel(label string, max int) string {
	label = strings.TrimSpace(label)
	if len(label) <= max {
		return label
	}
	return label[:max-1] + "…"
}
