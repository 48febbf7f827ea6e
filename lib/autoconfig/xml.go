package autoconfig

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/emersion/go-message/charset"
)

// xmlNode is a schema-free element tree. Provider published documents are
// matched case-insensitively because real deployments disagree on tag casing.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Data     string     `xml:",chardata"`
}

func decodeXML(r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.Reader
	var root xmlNode
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// child returns the first direct child with the given tag name.
func (n *xmlNode) child(name string) *xmlNode {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if strings.EqualFold(n.Children[i].XMLName.Local, name) {
			return &n.Children[i]
		}
	}
	return nil
}

// each returns all direct children with the given tag name.
func (n *xmlNode) each(name string) []*xmlNode {
	if n == nil {
		return nil
	}
	var nodes []*xmlNode
	for i := range n.Children {
		if strings.EqualFold(n.Children[i].XMLName.Local, name) {
			nodes = append(nodes, &n.Children[i])
		}
	}
	return nodes
}

func (n *xmlNode) text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Data)
}

func (n *xmlNode) childText(name string) string {
	return n.child(name).text()
}

func (n *xmlNode) attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}
