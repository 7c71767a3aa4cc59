package scene

import (
	"bytes"
	"encoding/xml"
	"io"
)

// WriteSVG serialises n and its subtree as XML markup.
func (n *Node) WriteSVG(w io.Writer) error {
	var b bytes.Buffer
	n.write(&b)
	_, err := w.Write(b.Bytes())
	return err
}

// Markup returns the serialised subtree.
func (n *Node) Markup() []byte {
	var b bytes.Buffer
	n.write(&b)
	return b.Bytes()
}

func (n *Node) write(b *bytes.Buffer) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	if n.Tag == "svg" {
		if _, ok := n.Attr("xmlns"); !ok {
			b.WriteString(` xmlns="http://www.w3.org/2000/svg"`)
		}
	}
	for _, a := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		_ = xml.EscapeText(b, []byte(a.Value))
		b.WriteByte('"')
	}
	if len(n.Children) == 0 && n.Text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	if n.Text != "" {
		_ = xml.EscapeText(b, []byte(n.Text))
	}
	for _, c := range n.Children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
