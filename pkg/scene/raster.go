package scene

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

var namedColors = map[string]color.NRGBA{
	"black":        {0, 0, 0, 255},
	"white":        {255, 255, 255, 255},
	"gray":         {128, 128, 128, 255},
	"grey":         {128, 128, 128, 255},
	"#000":         {0, 0, 0, 255},
	"#fff":         {255, 255, 255, 255},
	"currentcolor": {102, 102, 102, 255},
}

// Rasterize draws the node tree rooted at an <svg> element into a PNG.
// Text uses a fixed bitmap face and SMIL animations are ignored, so the
// output shows every mark at its final state.
func Rasterize(root *Node, w io.Writer) error {
	width, height := int(root.Float("width")), int(root.Float("height"))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("rasterize: invalid size %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	dc.SetFontFace(basicfont.Face7x13)
	if bg, ok := root.Attr("data-background"); ok {
		if c, ok := ParseColor(bg, 1); ok {
			dc.SetColor(c)
			dc.Clear()
		}
	}
	for _, c := range root.Children {
		draw(dc, c, 1)
	}
	return dc.EncodePNG(w)
}

func draw(dc *gg.Context, n *Node, opacity float64) {
	if v, ok := n.Attr("display"); ok && v == "none" {
		return
	}
	if v, ok := n.Attr("opacity"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opacity *= f
		}
	}

	dc.Push()
	defer dc.Pop()
	if t, ok := n.Attr("transform"); ok {
		if x, y, ok := parseTranslate(t); ok {
			dc.Translate(x, y)
		}
	}

	switch n.Tag {
	case "g":
		for _, c := range n.Children {
			draw(dc, c, opacity)
		}
		return
	case "rect":
		dc.DrawRectangle(n.Float("x"), n.Float("y"), n.Float("width"), n.Float("height"))
	case "circle":
		dc.DrawCircle(n.Float("cx"), n.Float("cy"), n.Float("r"))
	case "line":
		dc.MoveTo(n.Float("x1"), n.Float("y1"))
		dc.LineTo(n.Float("x2"), n.Float("y2"))
	case "path":
		if n.Shape == nil {
			return
		}
		tracePath(dc, n.Shape)
	case "text":
		drawText(dc, n, opacity)
		return
	default:
		return
	}
	paint(dc, n, opacity)
}

func paint(dc *gg.Context, n *Node, opacity float64) {
	fill, _ := n.Attr("fill")
	if fill == "" && n.Tag != "line" {
		fill = "black"
	}
	stroke, _ := n.Attr("stroke")

	fillColor, hasFill := ParseColor(fill, opacity*floatAttr(n, "fill-opacity", 1))
	strokeColor, hasStroke := ParseColor(stroke, opacity*floatAttr(n, "stroke-opacity", 1))

	if hasFill && n.Tag != "line" {
		dc.SetColor(fillColor)
		if hasStroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if hasStroke {
		dc.SetColor(strokeColor)
		dc.SetLineWidth(floatAttr(n, "stroke-width", 1))
		if dash, ok := n.Attr("stroke-dasharray"); ok {
			dc.SetDash(parseList(dash)...)
		} else {
			dc.SetDash()
		}
		dc.Stroke()
	}
	dc.ClearPath()
}

func tracePath(dc *gg.Context, p *Path) {
	for _, s := range p.Segments {
		switch s.Kind {
		case MoveTo:
			dc.MoveTo(s.Pts[0], s.Pts[1])
		case LineTo:
			dc.LineTo(s.Pts[0], s.Pts[1])
		case CubicTo:
			dc.CubicTo(s.Pts[0], s.Pts[1], s.Pts[2], s.Pts[3], s.Pts[4], s.Pts[5])
		case ArcTo:
			// pie angles start at twelve o'clock, gg angles at three
			dc.DrawArc(s.CX, s.CY, s.R, s.From-math.Pi/2, s.To-math.Pi/2)
		case Close:
			dc.ClosePath()
		}
	}
}

func drawText(dc *gg.Context, n *Node, opacity float64) {
	if n.Text == "" {
		return
	}
	fill, ok := n.Attr("fill")
	if !ok {
		fill = "black"
	}
	c, ok := ParseColor(fill, opacity)
	if !ok {
		return
	}
	ax := 0.0
	switch anchor, _ := n.Attr("text-anchor"); anchor {
	case "middle":
		ax = 0.5
	case "end":
		ax = 1
	}
	ay := 0.0
	if v, _ := n.Attr("dominant-baseline"); v == "middle" {
		ay = 0.35
	}
	dc.SetColor(c)
	dc.DrawStringAnchored(n.Text, n.Float("x"), n.Float("y"), ax, ay)
}

// ParseColor understands #rgb, #rrggbb and a few names. "none" and empty
// strings report false.
func ParseColor(s string, alpha float64) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" || s == "transparent" {
		return color.NRGBA{}, false
	}
	c, ok := namedColors[s]
	if !ok {
		hex := strings.TrimPrefix(s, "#")
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return color.NRGBA{}, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, false
		}
		c = color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	}
	c.A = uint8(math.Round(float64(c.A) * math.Max(0, math.Min(1, alpha))))
	return c, true
}

func floatAttr(n *Node, name string, fallback float64) float64 {
	if _, ok := n.Attr(name); !ok {
		return fallback
	}
	return n.Float(name)
}

func parseTranslate(t string) (float64, float64, bool) {
	t = strings.TrimSpace(t)
	if !strings.HasPrefix(t, "translate(") || !strings.HasSuffix(t, ")") {
		return 0, 0, false
	}
	parts := parseList(t[len("translate(") : len(t)-1])
	switch len(parts) {
	case 1:
		return parts[0], 0, true
	case 2:
		return parts[0], parts[1], true
	}
	return 0, 0, false
}

func parseList(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// Translate formats a translate transform.
func Translate(x, y float64) string {
	return "translate(" + Num(x) + "," + Num(y) + ")"
}
