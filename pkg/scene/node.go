// Package scene is a small retained SVG node graph. Backends build a tree of
// nodes, serialise it as SVG markup and rasterise the same tree to PNG.
package scene

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Attr struct {
	Name  string
	Value string
}

// Node is one SVG element. Attribute order is kept so output is stable.
type Node struct {
	Tag      string
	Text     string
	Children []*Node

	// Shape is the geometry behind a path element's d attribute.
	Shape *Path

	// Data carries backend metadata, such as hit-test targets. It is never
	// serialised.
	Data any

	attrs []Attr
}

func New(tag string) *Node {
	return &Node{Tag: tag}
}

// NewPath creates a path element from p.
func NewPath(p *Path) *Node {
	n := New("path")
	n.Shape = p
	return n.Set("d", p.String())
}

// Set assigns an attribute, replacing any previous value.
func (n *Node) Set(name string, value any) *Node {
	v := format(value)
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = v
			return n
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: v})
	return n
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Float parses a numeric attribute, 0 when absent.
func (n *Node) Float(name string) float64 {
	v, ok := n.Attr(name)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	return f
}

func (n *Node) Attrs() []Attr {
	return append([]Attr(nil), n.attrs...)
}

func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) SetText(text string) *Node {
	n.Text = text
	return n
}

func (n *Node) WithData(data any) *Node {
	n.Data = data
	return n
}

// Clear drops every child.
func (n *Node) Clear() {
	n.Children = nil
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns every descendant (n included) matching pred, in document order.
func (n *Node) Find(pred func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// ByClass matches nodes whose class list contains class.
func ByClass(class string) func(*Node) bool {
	return func(n *Node) bool {
		v, ok := n.Attr("class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

// Animate appends a SMIL transition of attr from one value to another. The
// node's own attribute must already hold the final value.
func (n *Node) Animate(attr string, from, to any, dur time.Duration) *Node {
	return n.Append(New("animate").
		Set("attributeName", attr).
		Set("from", from).
		Set("to", to).
		Set("dur", dur).
		Set("fill", "freeze"))
}

// AnimateValues appends a keyframed SMIL transition.
func (n *Node) AnimateValues(attr string, values []string, dur time.Duration) *Node {
	return n.Append(New("animate").
		Set("attributeName", attr).
		Set("values", strings.Join(values, ";")).
		Set("dur", dur).
		Set("fill", "freeze"))
}

// Animations returns the SMIL children of n.
func (n *Node) Animations() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == "animate" {
			out = append(out, c)
		}
	}
	return out
}

func format(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return Num(v)
	case float32:
		return Num(float64(v))
	case int:
		return strconv.Itoa(v)
	case time.Duration:
		return strconv.FormatInt(v.Milliseconds(), 10) + "ms"
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// Num prints coordinates with at most three decimals.
func Num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
