// Package surface models the host side of a chart: a document, the
// containers a dashboard hands to a chart, and the nodes backends attach to
// them (canvas frames, svg roots, tooltip overlays).
package surface

import (
	"fmt"
	"sync"
)

// Kind identifies what a node carries.
type Kind string

const (
	KindCanvas Kind = "canvas"
	KindSVG    Kind = "svg"
	KindDiv    Kind = "div"
	KindHTML   Kind = "html"
)

// Node is one element attached to a container. Content holds the rendered
// payload for the node kind: an encoded frame for canvases, markup for svg
// and html nodes.
type Node struct {
	kind Kind
	id   string

	mu      sync.RWMutex
	style   map[string]string
	content []byte
	text    string
	parent  *Container
}

func NewNode(kind Kind, id string) *Node {
	return &Node{
		kind:  kind,
		id:    id,
		style: make(map[string]string),
	}
}

func (n *Node) Kind() Kind { return n.kind }
func (n *Node) ID() string { return n.id }

func (n *Node) SetStyle(key, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.style[key] = value
}

func (n *Node) Style(key string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.style[key]
}

func (n *Node) SetContent(content []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.content = content
}

// Content returns a copy of the node payload.
func (n *Node) Content() []byte {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]byte(nil), n.content...)
}

func (n *Node) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = text
}

func (n *Node) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

// Attached reports whether the node currently hangs under a container.
func (n *Node) Attached() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent != nil
}

func (n *Node) setParent(c *Container) {
	n.mu.Lock()
	n.parent = c
	n.mu.Unlock()
}

// Container is a sized box owned by the host. Charts append their surface
// nodes to it and must remove them on teardown.
type Container struct {
	id  string
	doc *Document

	mu       sync.RWMutex
	width    int
	height   int
	children []*Node
}

// Size returns the measured dimensions of the container.
func (c *Container) Size() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// SetSize simulates the host re-measuring the container after a layout change.
func (c *Container) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
}

func (c *Container) ID() string { return c.id }

// Document returns the document the container lives in.
func (c *Container) Document() *Document { return c.doc }

func (c *Container) Append(n *Node) error {
	if n.Attached() {
		return fmt.Errorf("node %s is already attached", n.id)
	}

	c.mu.Lock()
	c.children = append(c.children, n)
	c.mu.Unlock()

	n.setParent(c)
	return nil
}

// Remove detaches n and reports whether it was a child of c.
func (c *Container) Remove(n *Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, child := range c.children {
		if child == n {
			c.children = append(c.children[:i], c.children[i+1:]...)
			n.setParent(nil)
			return true
		}
	}

	return false
}

func (c *Container) Children() []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Node(nil), c.children...)
}

// Document groups containers with the page body that overlays attach to.
type Document struct {
	body *Container

	mu  sync.Mutex
	seq int
}

func NewDocument() *Document {
	doc := &Document{}
	doc.body = &Container{id: "body", doc: doc}
	return doc
}

// Body is the page-level container used for floating overlays.
func (d *Document) Body() *Container { return d.body }

// NewContainer creates a container of the given measured size in d.
func (d *Document) NewContainer(id string, width, height int) *Container {
	return &Container{id: id, doc: d, width: width, height: height}
}

// NextID returns a document-unique id with the given prefix.
func (d *Document) NextID(prefix string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	return fmt.Sprintf("%s-%d", prefix, d.seq)
}
