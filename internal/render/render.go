// Package render turns layout frames into drawable output.
package render

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/msalah0e/relmap/internal/layout"
)

// ─── Sinks ───

// Recorder keeps the latest frame. It must be used from the simulation loop.
type Recorder struct {
	Last   layout.Frame
	Frames int
}

// OnTick stores f.
func (r *Recorder) OnTick(f layout.Frame) {
	r.Last = f
	r.Frames++
}

// LogSink logs a debug line every Every frames.
type LogSink struct {
	Logger *log.Logger
	Every  int
}

// OnTick logs frame progress.
func (s LogSink) OnTick(f layout.Frame) {
	every := s.Every
	if every <= 0 {
		every = 50
	}
	if f.Tick%every != 0 && f.State != "idle" {
		return
	}
	s.Logger.Debug("tick", "graph", f.GraphID, "tick", f.Tick, "alpha", fmt.Sprintf("%.4f", f.Alpha), "state", f.State)
}

// JSONLines writes every frame as one JSON line.
type JSONLines struct {
	W   io.Writer
	Err error
}

// OnTick encodes f. The first write error is kept and later frames dropped.
func (s *JSONLines) OnTick(f layout.Frame) {
	if s.Err != nil {
		return
	}
	s.Err = json.NewEncoder(s.W).Encode(f)
}

// ─── Writers ───

// WriteJSON writes f as indented JSON.
func WriteJSON(w io.Writer, f layout.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// WriteDOT writes f in Graphviz DOT format with fixed positions, suitable
// for `neato -n`.
func WriteDOT(w io.Writer, f layout.Frame) error {
	var b strings.Builder
	b.WriteString("digraph relmap {\n")
	b.WriteString("  node [shape=circle, fixedsize=true, width=0.3, fontsize=10];\n\n")

	for i, n := range f.Nodes {
		attrs := fmt.Sprintf("label=%q, pos=\"%.2f,%.2f!\"", n.Name, n.X, -n.Y)
		if n.Emphasized {
			attrs += ", penwidth=3, color=\"#E07C3A\""
		}
		b.WriteString(fmt.Sprintf("  n%d [%s];\n", i, attrs))
	}

	b.WriteString("\n")
	for _, l := range f.Links {
		if l.RelationType != "" {
			b.WriteString(fmt.Sprintf("  n%d -> n%d [label=%q];\n", l.Source, l.Target, l.RelationType))
		} else {
			b.WriteString(fmt.Sprintf("  n%d -> n%d;\n", l.Source, l.Target))
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// SVGOptions controls SVG output.
type SVGOptions struct {
	Width, Height float64
	Radius        float64
	Padding       float64
}

func (o SVGOptions) normalized() SVGOptions {
	if o.Radius <= 0 {
		o.Radius = 6
	}
	if o.Padding <= 0 {
		o.Padding = 40
	}
	return o
}

// WriteSVG draws f as circles, lines and labels. Emphasized nodes get a
// larger radius and a distinct border. With zero Width or Height the view
// box is fitted to the frame bounds.
func WriteSVG(w io.Writer, f layout.Frame, opts SVGOptions) error {
	opts = opts.normalized()

	minX, minY, maxX, maxY := f.Bounds()
	vx, vy := minX-opts.Padding, minY-opts.Padding
	vw, vh := maxX-minX+2*opts.Padding, maxY-minY+2*opts.Padding
	if opts.Width > 0 && opts.Height > 0 {
		vx, vy, vw, vh = 0, 0, opts.Width, opts.Height
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" font-family="sans-serif" font-size="11">`+"\n",
		vx, vy, math.Max(vw, 1), math.Max(vh, 1))
	b.WriteString(`  <g stroke="#999" stroke-opacity="0.6">` + "\n")
	for _, l := range f.Links {
		s, t := f.Nodes[l.Source], f.Nodes[l.Target]
		fmt.Fprintf(&b, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"><title>%s</title></line>`+"\n",
			s.X, s.Y, t.X, t.Y, escape(l.RelationType))
	}
	b.WriteString("  </g>\n")

	b.WriteString(`  <g stroke="#fff" stroke-width="1.5">` + "\n")
	for _, n := range f.Nodes {
		r, stroke := opts.Radius, ""
		if n.Emphasized {
			r = opts.Radius * 2
			stroke = ` stroke="#E07C3A" stroke-width="3"`
		}
		fmt.Fprintf(&b, `    <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"%s><title>%s</title></circle>`+"\n",
			n.X, n.Y, r, groupColor(n.Group), stroke, escape(n.Name))
	}
	b.WriteString("  </g>\n")

	b.WriteString(`  <g fill="#333">` + "\n")
	for _, n := range f.Nodes {
		fmt.Fprintf(&b, `    <text x="%.2f" y="%.2f">%s</text>`+"\n", n.X+opts.Radius+2, n.Y+4, escape(n.Name))
	}
	b.WriteString("  </g>\n</svg>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Rows returns table rows (name, x, y, degree, flags) sorted by name.
func Rows(f layout.Frame) [][]string {
	degree := make([]int, len(f.Nodes))
	for _, l := range f.Links {
		degree[l.Source]++
		degree[l.Target]++
	}
	rows := make([][]string, 0, len(f.Nodes))
	for i, n := range f.Nodes {
		var flags []string
		if n.Pinned {
			flags = append(flags, "pinned")
		}
		if n.Emphasized {
			flags = append(flags, "emphasized")
		}
		rows = append(rows, []string{
			n.Name,
			fmt.Sprintf("%.1f", n.X),
			fmt.Sprintf("%.1f", n.Y),
			fmt.Sprintf("%d", degree[i]),
			strings.Join(flags, ","),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}

var palette = []string{"#2DB682", "#0171E3", "#E07C3A", "#9B59B6", "#E74C3C", "#1ABC9C"}

func groupColor(group int) string {
	if group < 0 {
		group = -group
	}
	return palette[group%len(palette)]
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
