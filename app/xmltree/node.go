// Package xmltree provides a read-only labeled tree over an XML document.
//
// Every node is either a tag (label, attributes, ordered children) or a
// text leaf whose label is its character content.
package xmltree

import "strings"

// Node is the query surface consumed by the page renderer.
type Node interface {
	IsTag() bool
	Label() string
	NumberOfChildren() int
	// Child returns nil when i is out of range.
	Child(i int) Node
	HasAttribute(name string) bool
	// AttributeValue returns "" when the attribute is missing or the node
	// is a text leaf.
	AttributeValue(name string) string
}

var (
	_ Node = (*Tag)(nil)
	_ Node = Text("")
)

type Tag struct {
	label    string
	attrs    map[string]string
	children []Node
}

// NewTag builds a tag node. Attribute keys are unique by construction.
func NewTag(label string, attrs map[string]string, children ...Node) *Tag {
	t := &Tag{label: label, attrs: make(map[string]string, len(attrs))}
	for k, v := range attrs {
		t.attrs[k] = v
	}
	t.children = append(t.children, children...)
	return t
}

func (t *Tag) IsTag() bool {
	return true
}

func (t *Tag) Label() string {
	return t.label
}

func (t *Tag) NumberOfChildren() int {
	return len(t.children)
}

func (t *Tag) Child(i int) Node {
	if i < 0 || i >= len(t.children) {
		return nil
	}
	return t.children[i]
}

func (t *Tag) HasAttribute(name string) bool {
	_, ok := t.attrs[name]
	return ok
}

func (t *Tag) AttributeValue(name string) string {
	return t.attrs[name]
}

func (t *Tag) appendChild(n Node) {
	t.children = append(t.children, n)
}

// appendText merges consecutive character data (text split by CDATA
// sections, for example) into a single leaf.
func (t *Tag) appendText(s string) {
	if last := len(t.children) - 1; last >= 0 {
		if prev, ok := t.children[last].(Text); ok {
			t.children[last] = prev + Text(s)
			return
		}
	}
	t.children = append(t.children, Text(s))
}

// finish trims text leaves and drops the whitespace-only ones that sit
// between elements.
func (t *Tag) finish() {
	kept := t.children[:0]
	for _, c := range t.children {
		if s, ok := c.(Text); ok {
			s = Text(strings.TrimSpace(string(s)))
			if s == "" {
				continue
			}
			c = s
		}
		kept = append(kept, c)
	}
	t.children = kept
}

// Text is a leaf; it never has children or attributes.
type Text string

func (s Text) IsTag() bool {
	return false
}

func (s Text) Label() string {
	return string(s)
}

func (s Text) NumberOfChildren() int {
	return 0
}

func (s Text) Child(int) Node {
	return nil
}

func (s Text) HasAttribute(string) bool {
	return false
}

func (s Text) AttributeValue(string) string {
	return ""
}
