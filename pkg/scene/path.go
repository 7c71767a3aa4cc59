package scene

import (
	"math"
	"strconv"
	"strings"
)

type SegmentKind byte

const (
	MoveTo  SegmentKind = 'M'
	LineTo  SegmentKind = 'L'
	CubicTo SegmentKind = 'C'
	ArcTo   SegmentKind = 'A'
	Close   SegmentKind = 'Z'
)

// Segment is one path command. Arc segments keep their centre and angles so
// rasterisation does not have to reconstruct them from endpoints.
type Segment struct {
	Kind SegmentKind
	Pts  []float64

	CX, CY, R float64
	From, To  float64
}

// Path builds SVG path data. Angles follow the pie convention: 0 at twelve
// o'clock, growing clockwise.
type Path struct {
	Segments []Segment
	cx, cy   float64
	sx, sy   float64
	started  bool
}

func (p *Path) MoveTo(x, y float64) *Path {
	p.Segments = append(p.Segments, Segment{Kind: MoveTo, Pts: []float64{x, y}})
	p.cx, p.cy, p.sx, p.sy = x, y, x, y
	p.started = true
	return p
}

func (p *Path) LineTo(x, y float64) *Path {
	if !p.started {
		return p.MoveTo(x, y)
	}
	p.Segments = append(p.Segments, Segment{Kind: LineTo, Pts: []float64{x, y}})
	p.cx, p.cy = x, y
	return p
}

func (p *Path) CubicTo(x1, y1, x2, y2, x, y float64) *Path {
	p.Segments = append(p.Segments, Segment{Kind: CubicTo, Pts: []float64{x1, y1, x2, y2, x, y}})
	p.cx, p.cy = x, y
	return p
}

// Arc sweeps a circular arc from angle a0 to a1 around (cx, cy), joining the
// current point with a straight line first.
func (p *Path) Arc(cx, cy, r, a0, a1 float64) *Path {
	if r <= 0 {
		return p.LineTo(cx, cy)
	}
	// a single SVG arc command cannot describe a full turn
	if math.Abs(a1-a0) >= 2*math.Pi-1e-9 {
		mid := a0 + (a1-a0)/2
		p.Arc(cx, cy, r, a0, mid)
		return p.Arc(cx, cy, r, mid, a1)
	}
	x0, y0 := Polar(cx, cy, r, a0)
	x1, y1 := Polar(cx, cy, r, a1)
	if !p.started {
		p.MoveTo(x0, y0)
	} else if math.Abs(p.cx-x0) > 1e-6 || math.Abs(p.cy-y0) > 1e-6 {
		p.LineTo(x0, y0)
	}
	p.Segments = append(p.Segments, Segment{
		Kind: ArcTo, Pts: []float64{x1, y1},
		CX: cx, CY: cy, R: r, From: a0, To: a1,
	})
	p.cx, p.cy = x1, y1
	return p
}

func (p *Path) Close() *Path {
	p.Segments = append(p.Segments, Segment{Kind: Close})
	p.cx, p.cy = p.sx, p.sy
	return p
}

func (p *Path) Empty() bool {
	return len(p.Segments) == 0
}

// Polar converts a pie angle to cartesian coordinates.
func Polar(cx, cy, r, a float64) (float64, float64) {
	return cx + r*math.Sin(a), cy - r*math.Cos(a)
}

// String renders SVG path data.
func (p *Path) String() string {
	var b strings.Builder
	for _, s := range p.Segments {
		switch s.Kind {
		case Close:
			b.WriteByte('Z')
		case ArcTo:
			large, sweep := 0, 1
			if math.Abs(s.To-s.From) > math.Pi {
				large = 1
			}
			if s.To < s.From {
				sweep = 0
			}
			b.WriteByte('A')
			b.WriteString(Num(s.R) + "," + Num(s.R) + ",0," + strconv.Itoa(large) + "," + strconv.Itoa(sweep) + ",")
			b.WriteString(Num(s.Pts[0]) + "," + Num(s.Pts[1]))
		default:
			b.WriteByte(byte(s.Kind))
			for i, v := range s.Pts {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(Num(v))
			}
		}
	}
	return b.String()
}

// Length approximates the drawn length of the path, used for stroke
// draw-on transitions.
func (p *Path) Length() float64 {
	var total, x, y, sx, sy float64
	for _, s := range p.Segments {
		switch s.Kind {
		case MoveTo:
			x, y, sx, sy = s.Pts[0], s.Pts[1], s.Pts[0], s.Pts[1]
		case LineTo:
			total += math.Hypot(s.Pts[0]-x, s.Pts[1]-y)
			x, y = s.Pts[0], s.Pts[1]
		case CubicTo:
			total += cubicLength(x, y, s.Pts)
			x, y = s.Pts[4], s.Pts[5]
		case ArcTo:
			total += s.R * math.Abs(s.To-s.From)
			x, y = s.Pts[0], s.Pts[1]
		case Close:
			total += math.Hypot(sx-x, sy-y)
			x, y = sx, sy
		}
	}
	return total
}

func cubicLength(x0, y0 float64, c []float64) float64 {
	const steps = 16
	var total float64
	px, py := x0, y0
	for i := 1; i <= steps; i++ {
		t := float64(i) / steps
		mt := 1 - t
		a, b, cc, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		nx := a*x0 + b*c[0] + cc*c[2] + d*c[4]
		ny := a*y0 + b*c[1] + cc*c[3] + d*c[5]
		total += math.Hypot(nx-px, ny-py)
		px, py = nx, ny
	}
	return total
}
