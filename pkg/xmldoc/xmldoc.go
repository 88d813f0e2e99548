// Package xmldoc pulls text and attribute values out of an XML element tree.
// Missing elements, attributes or text nodes are never errors, they read as an empty string
// or an empty slice, so callers don't need to special-case absence.
package xmldoc

import (
	"fmt"

	"github.com/beevik/etree"
)

// NodeKind selects which kind of character data a lookup reads
type NodeKind int

// enum of character data kinds
const (
	Text  NodeKind = iota // plain text node
	CData                 // <![CDATA[...]]> section
)

// String returns the DOM node name of the kind
func (k NodeKind) String() string {
	switch k {
	case Text:
		return "#text"
	case CData:
		return "#cdata-section"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Parse reads raw XML into a document keeping CDATA sections apart from plain text
func Parse(raw string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromString(raw); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	return doc, nil
}

// TextValueOfChildNode returns the data of the first direct character data child of el with the given kind.
// Whitespace-only text counts as a text node.
func TextValueOfChildNode(el *etree.Element, kind NodeKind) string {
	if el == nil {
		return ""
	}
	for _, tok := range el.Child {
		cd, ok := tok.(*etree.CharData)
		if !ok {
			continue
		}
		if cd.IsCData() == (kind == CData) {
			return cd.Data
		}
	}
	return ""
}

// ElementText returns the character data of the first element matching the etree path selector
func ElementText(parent *etree.Element, selector string, kind NodeKind) string {
	return TextValueOfChildNode(findFirst(parent, selector), kind)
}

// ElementArrayText returns the character data of every element matching selector, in document order
func ElementArrayText(parent *etree.Element, selector string, kind NodeKind) []string {
	elems := findAll(parent, selector)
	res := make([]string, 0, len(elems))
	for _, el := range elems {
		res = append(res, TextValueOfChildNode(el, kind))
	}
	return res
}

// AttributeText returns attribute attr of the first element matching selector
func AttributeText(parent *etree.Element, selector, attr string) string {
	el := findFirst(parent, selector)
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(attr, "")
}

// NamespacedElementText returns the character data of the first descendant of parent
// in namespace nsURI with local name local
func NamespacedElementText(parent *etree.Element, nsURI, local string, kind NodeKind) string {
	elems := namespaced(parent, nsURI, local, true)
	if len(elems) == 0 {
		return ""
	}
	return TextValueOfChildNode(elems[0], kind)
}

// NamespacedElementArrayText returns the character data of all descendants in namespace nsURI with local name local
func NamespacedElementArrayText(parent *etree.Element, nsURI, local string, kind NodeKind) []string {
	elems := namespaced(parent, nsURI, local, false)
	res := make([]string, 0, len(elems))
	for _, el := range elems {
		res = append(res, TextValueOfChildNode(el, kind))
	}
	return res
}

// NamespacedAttributeText returns attribute attr of the first descendant in namespace nsURI with local name local
func NamespacedAttributeText(parent *etree.Element, nsURI, local, attr string) string {
	elems := namespaced(parent, nsURI, local, true)
	if len(elems) == 0 {
		return ""
	}
	return elems[0].SelectAttrValue(attr, "")
}

// findFirst returns the first element matching selector or nil, invalid paths match nothing
func findFirst(parent *etree.Element, selector string) *etree.Element {
	if parent == nil {
		return nil
	}
	path, err := etree.CompilePath(selector)
	if err != nil {
		return nil
	}
	return parent.FindElementPath(path)
}

func findAll(parent *etree.Element, selector string) []*etree.Element {
	if parent == nil {
		return nil
	}
	path, err := etree.CompilePath(selector)
	if err != nil {
		return nil
	}
	return parent.FindElementsPath(path)
}

// namespaced walks the descendants of parent depth first, in document order,
// collecting elements whose resolved namespace and local name match
func namespaced(parent *etree.Element, nsURI, local string, firstOnly bool) []*etree.Element {
	if parent == nil {
		return nil
	}
	var res []*etree.Element
	var walk func(el *etree.Element) bool
	walk = func(el *etree.Element) bool {
		for _, child := range el.ChildElements() {
			if child.Tag == local && child.NamespaceURI() == nsURI {
				res = append(res, child)
				if firstOnly {
					return true
				}
			}
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(parent)
	return res
}
