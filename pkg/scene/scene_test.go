package scene

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNodeMarkup(t *testing.T) {
	root := New("svg").Set("width", 100).Set("height", 50)
	root.Append(
		New("rect").Set("x", 1.5).Set("y", 0).Set("class", "bar a"),
		New("text").Set("x", 10).SetText("a < b"),
	)
	root.Children[0].Animate("height", 0, 20.0, 750*time.Millisecond)

	out := string(root.Markup())
	require.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">`))
	require.Contains(t, out, `<rect x="1.5" y="0" class="bar a">`)
	require.Contains(t, out, `<animate attributeName="height" from="0" to="20" dur="750ms" fill="freeze"/>`)
	require.Contains(t, out, `a &lt; b`)

	require.Len(t, root.Find(ByClass("bar")), 1)
	require.Len(t, root.Children[0].Animations(), 1)

	root.Children[0].Set("x", 3)
	require.Equal(t, 3.0, root.Children[0].Float("x"))
}

func TestPathString(t *testing.T) {
	p := (&Path{}).MoveTo(0, 0).LineTo(10, 0).LineTo(10, 10).Close()
	require.Equal(t, "M0,0L10,0L10,10Z", p.String())
	require.InDelta(t, 10+10+math.Hypot(10, 10), p.Length(), 1e-9)
}

func TestSlice(t *testing.T) {
	quarter := Slice(0, 0, 0, 10, 0, math.Pi/2)
	require.Equal(t, "M0,-10A10,10,0,0,1,10,0L0,0Z", quarter.String())

	full := Slice(0, 0, 6, 10, 0, 2*math.Pi)
	arcs := 0
	for _, s := range full.Segments {
		if s.Kind == ArcTo {
			arcs++
		}
	}
	require.Equal(t, 4, arcs)
	require.InDelta(t, 2*math.Pi*16, full.Length()-8, 1e-6)
}

func TestMonotoneX(t *testing.T) {
	pts := []Point{{0, 10}, {10, 0}, {20, 0}, {30, 10}}
	p := MonotoneX(pts)
	require.Len(t, p.Segments, 4)

	// flat stretch stays flat: no overshoot below y=0
	flat := p.Segments[2]
	require.Equal(t, CubicTo, flat.Kind)
	require.Equal(t, 0.0, flat.Pts[1])
	require.Equal(t, 0.0, flat.Pts[3])

	require.Len(t, MonotoneX(pts[:2]).Segments, 2)
	require.Equal(t, LineTo, MonotoneX(pts[:2]).Segments[1].Kind)
	require.True(t, MonotoneX(nil).Empty())
}

func TestRasterize(t *testing.T) {
	root := New("svg").Set("width", 40).Set("height", 20).Set("data-background", "#ffffff")
	root.Append(
		New("rect").Set("x", 0).Set("y", 0).Set("width", 20).Set("height", 20).Set("fill", "#ef4444"),
		NewPath(Slice(30, 10, 0, 8, 0, math.Pi)).Set("fill", "#3b82f6"),
		New("text").Set("x", 2).Set("y", 12).SetText("x"),
	)

	var buf bytes.Buffer
	require.NoError(t, Rasterize(root, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 40, img.Bounds().Dx())

	r, g, b, _ := img.At(15, 3).RGBA()
	require.Equal(t, uint32(0xef), r>>8)
	require.Equal(t, uint32(0x44), g>>8)
	require.Equal(t, uint32(0x44), b>>8)

	require.Error(t, Rasterize(New("svg"), &buf))
}

func TestParseColor(t *testing.T) {
	c, ok := ParseColor("#3b82f6", 0.5)
	require.True(t, ok)
	require.Equal(t, uint8(0x3b), c.R)
	require.Equal(t, uint8(128), c.A)

	c, ok = ParseColor("#fff", 1)
	require.True(t, ok)
	require.Equal(t, uint8(255), c.G)

	_, ok = ParseColor("none", 1)
	require.False(t, ok)
}
