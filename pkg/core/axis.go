package core

// AxisType hints how an axis interprets its values.
type AxisType string

const (
	AxisNumeric  AxisType = "numeric"
	AxisDatetime AxisType = "datetime"
	AxisCategory AxisType = "category"
)

// AxisOptions configures one axis. Nil bounds mean automatic.
type AxisOptions struct {
	Hidden bool
	Label  string
	Min    *float64
	Max    *float64
	Type   AxisType
}

// Axes addresses the x axis and the primary and secondary y axes. A nil
// entry means "leave this axis alone".
type Axes struct {
	X  *AxisOptions
	Y  *AxisOptions
	Y2 *AxisOptions
}

// Bound is a helper for building AxisOptions literals.
func Bound(v float64) *float64 {
	return &v
}

// Merge returns a new Axes where every axis present in patch replaces the
// corresponding axis of a. Neither input is modified.
func (a Axes) Merge(patch Axes) Axes {
	out := Axes{X: a.X.clone(), Y: a.Y.clone(), Y2: a.Y2.clone()}
	if patch.X != nil {
		out.X = patch.X.clone()
	}
	if patch.Y != nil {
		out.Y = patch.Y.clone()
	}
	if patch.Y2 != nil {
		out.Y2 = patch.Y2.clone()
	}
	return out
}

// Empty reports whether no axis is configured.
func (a Axes) Empty() bool {
	return a.X == nil && a.Y == nil && a.Y2 == nil
}

func (o *AxisOptions) clone() *AxisOptions {
	if o == nil {
		return nil
	}
	c := *o
	if o.Min != nil {
		c.Min = Bound(*o.Min)
	}
	if o.Max != nil {
		c.Max = Bound(*o.Max)
	}
	return &c
}
