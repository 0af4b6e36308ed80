package subtitle

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// parsed XML node keeping mixed content order. Text nodes have an empty name.
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*xmlNode
}

func (n *xmlNode) isText() bool {
	return n.name == ""
}

// attribute lookup by local name, so ttm:role and role both match "role"
func (n *xmlNode) attr(local string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) attrOr(local, fallback string) string {
	if v, ok := n.attr(local); ok {
		return v
	}
	return fallback
}

// descendant elements with the given local name, in document order
func (n *xmlNode) find(local string) []*xmlNode {
	var out []*xmlNode
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		for _, c := range cur.children {
			if c.isText() {
				continue
			}
			if c.name == local {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func (n *xmlNode) first(local string) *xmlNode {
	if found := n.find(local); len(found) > 0 {
		return found[0]
	}
	return nil
}

// value of the first child when it is text
func (n *xmlNode) leadingText() string {
	if len(n.children) > 0 && n.children[0].isText() {
		return n.children[0].text
	}
	return ""
}

// builds the element tree of an XML document and returns its root element
func parseXMLTree(r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity

	var root *xmlNode
	var stack []*xmlNode

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlNode{name: t.Name.Local, attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("failed to parse XML: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			// adjacent text and CDATA sections form one node
			if k := len(parent.children); k > 0 && parent.children[k-1].isText() {
				parent.children[k-1].text += string(t)
				continue
			}
			parent.children = append(parent.children, &xmlNode{text: string(t)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("failed to parse XML: no root element")
	}
	return root, nil
}

func parseXMLString(s string) (*xmlNode, error) {
	return parseXMLTree(strings.NewReader(s))
}
