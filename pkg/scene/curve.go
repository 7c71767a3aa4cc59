package scene

import "math"

// Point is a device coordinate.
type Point struct {
	X, Y float64
}

// MonotoneX builds a cubic curve through points that never overshoots in y
// between samples, given points sorted by x.
func MonotoneX(points []Point) *Path {
	p := &Path{}
	n := len(points)
	if n == 0 {
		return p
	}
	p.MoveTo(points[0].X, points[0].Y)
	if n == 1 {
		return p
	}
	if n == 2 {
		return p.LineTo(points[1].X, points[1].Y)
	}

	tangents := make([]float64, n)
	for i := 1; i < n-1; i++ {
		tangents[i] = slope3(points[i-1], points[i], points[i+1])
	}
	tangents[0] = slope2(points[0], points[1], tangents[1])
	tangents[n-1] = slope2(points[n-2], points[n-1], tangents[n-2])

	for i := 0; i < n-1; i++ {
		a, b := points[i], points[i+1]
		dx := (b.X - a.X) / 3
		p.CubicTo(a.X+dx, a.Y+dx*tangents[i], b.X-dx, b.Y-dx*tangents[i+1], b.X, b.Y)
	}
	return p
}

// AreaMonotoneX closes the monotone curve down to a flat baseline.
func AreaMonotoneX(points []Point, baseline float64) *Path {
	if len(points) == 0 {
		return &Path{}
	}
	p := MonotoneX(points)
	last, first := points[len(points)-1], points[0]
	return p.LineTo(last.X, baseline).LineTo(first.X, baseline).Close()
}

// Polyline joins points with straight segments.
func Polyline(points []Point) *Path {
	p := &Path{}
	for _, pt := range points {
		p.LineTo(pt.X, pt.Y)
	}
	return p
}

// Slice outlines a pie slice between angles a0 and a1. A positive inner
// radius makes a donut ring segment.
func Slice(cx, cy, inner, outer, a0, a1 float64) *Path {
	p := &Path{}
	if a1 == a0 {
		return p
	}
	p.Arc(cx, cy, outer, a0, a1)
	if inner > 0 {
		p.Arc(cx, cy, inner, a1, a0)
	} else {
		p.LineTo(cx, cy)
	}
	return p.Close()
}

func slope3(p0, p1, p2 Point) float64 {
	h0, h1 := p1.X-p0.X, p2.X-p1.X
	var s0, s1 float64
	if h0 != 0 {
		s0 = (p1.Y - p0.Y) / h0
	} else if h1 != 0 {
		s0 = (p1.Y - p0.Y) / h1
	}
	if h1 != 0 {
		s1 = (p2.Y - p1.Y) / h1
	} else if h0 != 0 {
		s1 = (p2.Y - p1.Y) / h0
	}
	if h0+h1 == 0 {
		return 0
	}
	m := (s0*h1 + s1*h0) / (h0 + h1)
	v := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(m))
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func slope2(p0, p1 Point, t float64) float64 {
	h := p1.X - p0.X
	if h == 0 {
		return t
	}
	return (3*(p1.Y-p0.Y)/h - t) / 2
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
