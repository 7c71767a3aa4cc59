package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChartType is the visual representation of a chart or of a single series.
type ChartType string

const (
	TypeLine  ChartType = "line"
	TypeArea  ChartType = "area"
	TypeBar   ChartType = "bar"
	TypePie   ChartType = "pie"
	TypeDonut ChartType = "donut"
)

// ParseChartType validates a configured chart type name.
func ParseChartType(s string) (ChartType, error) {
	switch t := ChartType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeLine, TypeArea, TypeBar, TypePie, TypeDonut:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChartType, s)
}

// Radial reports whether the type is drawn as arcs rather than on axes.
func (t ChartType) Radial() bool {
	return t == TypePie || t == TypeDonut
}

// XKind tells how an x value is interpreted.
type XKind uint8

const (
	XNumeric XKind = iota
	XTime
	XCategory
)

// XValue is a numeric, timestamp or category x coordinate.
type XValue struct {
	kind  XKind
	num   float64
	ts    time.Time
	label string
}

func Num(v float64) XValue         { return XValue{kind: XNumeric, num: v} }
func Time(t time.Time) XValue      { return XValue{kind: XTime, ts: t} }
func Category(label string) XValue { return XValue{kind: XCategory, label: label} }

func (x XValue) Kind() XKind { return x.kind }

// Float returns the numeric value or unix milliseconds for timestamps.
// Categories have no numeric position and yield 0.
func (x XValue) Float() float64 {
	switch x.kind {
	case XNumeric:
		return x.num
	case XTime:
		return float64(x.ts.UnixMilli())
	}
	return 0
}

func (x XValue) Time() time.Time { return x.ts }
func (x XValue) Label() string   { return x.label }

// String is the category key used to group x values across series.
func (x XValue) String() string {
	switch x.kind {
	case XNumeric:
		return strconv.FormatFloat(x.num, 'f', -1, 64)
	case XTime:
		return x.ts.UTC().Format(time.RFC3339Nano)
	}
	return x.label
}

func (x XValue) Equal(o XValue) bool {
	if x.kind != o.kind {
		return false
	}
	switch x.kind {
	case XTime:
		return x.ts.Equal(o.ts)
	case XNumeric:
		return x.num == o.num
	}
	return x.label == o.label
}

// DataPoint is one sample. Y is always finite once it reaches a chart.
type DataPoint struct {
	X     XValue
	Y     float64
	Label string
}

// Pt is shorthand for a numeric point.
func Pt(x, y float64) DataPoint {
	return DataPoint{X: Num(x), Y: y}
}

// Series is one named trace.
type Series struct {
	Name    string
	Data    []DataPoint
	Type    ChartType // empty inherits the chart type
	Color   string
	YAxisID string
	Unit    string
	Hidden  bool
	Stack   string
}

// EffectiveType resolves the series type against the chart type.
func (s Series) EffectiveType(global ChartType) ChartType {
	if s.Type != "" {
		return s.Type
	}
	if global != "" {
		return global
	}
	return TypeLine
}

// Clone copies the series and its points.
func (s Series) Clone() Series {
	s.Data = append([]DataPoint(nil), s.Data...)
	return s
}

// CloneSeries deep-copies a series list so callers cannot alias chart state.
func CloneSeries(series []Series) []Series {
	if series == nil {
		return nil
	}
	out := make([]Series, len(series))
	for i, s := range series {
		out[i] = s.Clone()
	}
	return out
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Options describes a chart instance at creation time.
type Options struct {
	Type        ChartType
	Series      []Series
	Title       string
	Width       int
	Height      int
	Stacked     bool
	ShowLegend  bool
	ShowTooltip bool
	ShowGrid    bool
	Animate     bool
	Theme       Theme
}

// DefaultOptions returns a line chart with legend, tooltip, grid and
// animation enabled.
func DefaultOptions() Options {
	return Options{
		Type:        TypeLine,
		ShowLegend:  true,
		ShowTooltip: true,
		ShowGrid:    true,
		Animate:     true,
		Theme:       ThemeLight,
	}
}

// Clone returns a copy that shares no series storage with o.
func (o Options) Clone() Options {
	o.Series = CloneSeries(o.Series)
	return o
}

// TransitionDuration bounds every animated transition.
const TransitionDuration = 750 * time.Millisecond

// UpdateOptions tunes a single update.
type UpdateOptions struct {
	Animate       bool
	PreserveState bool
}

type UpdateOption func(*UpdateOptions)

// WithoutAnimation makes the update instantaneous, as needed by fast polling.
func WithoutAnimation() UpdateOption {
	return func(o *UpdateOptions) {
		o.Animate = false
	}
}

// PreservingState keeps zoom and pan state where a backend tracks it.
func PreservingState() UpdateOption {
	return func(o *UpdateOptions) {
		o.PreserveState = true
	}
}

// NewUpdateOptions resolves functional options; animation defaults to on.
func NewUpdateOptions(options ...UpdateOption) UpdateOptions {
	o := UpdateOptions{Animate: true}
	for _, option := range options {
		option(&o)
	}
	return o
}

// Animated combines the chart-level flag with the per-update one.
func (u UpdateOptions) Animated(o Options) bool {
	return o.Animate && u.Animate
}

// RenderedSeries is what a backend reports as currently drawn.
type RenderedSeries struct {
	Name   string
	Type   ChartType
	Color  string
	Points int
	Hidden bool
}

// Hit is the result of hit-testing a device coordinate.
type Hit struct {
	Series string
	Point  DataPoint
}

// ImageFormat is a snapshot encoding.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatSVG  ImageFormat = "svg"
	FormatHTML ImageFormat = "html"
)

// ParseImageFormat validates an export format name.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch f := ImageFormat(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type for the format.
func (f ImageFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	}
	return "text/html; charset=utf-8"
}
