package dom

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is an element node of a Document
type Element struct {
	doc  *Document
	node *html.Node
}

// Is reports whether e and other are the same node
func (e *Element) Is(other *Element) bool {
	return other != nil && e.node == other.node
}

// Tag returns the lower-case tag name
func (e *Element) Tag() string {
	return e.node.Data
}

func (e *Element) lookupAttr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attr returns the attribute value, or "" when absent
func (e *Element) Attr(key string) string {
	v, _ := e.lookupAttr(key)
	return v
}

// HasAttr reports whether the attribute is present
func (e *Element) HasAttr(key string) bool {
	_, ok := e.lookupAttr(key)
	return ok
}

// SetAttr sets or replaces an attribute
func (e *Element) SetAttr(key, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes an attribute
func (e *Element) RemoveAttr(key string) {
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}

// ID returns the id attribute
func (e *Element) ID() string {
	return e.Attr("id")
}

// TestID returns the data-testid attribute
func (e *Element) TestID() string {
	return e.Attr("data-testid")
}

// Classes returns the class list
func (e *Element) Classes() []string {
	return strings.Fields(e.Attr("class"))
}

// HasClass reports whether class is in the class list
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.Classes(), class)
}

// AddClass appends class to the class list if missing
func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	e.SetAttr("class", strings.Join(append(e.Classes(), class), " "))
}

// RemoveClass drops class from the class list
func (e *Element) RemoveClass(class string) {
	if !e.HasClass(class) {
		return
	}
	classes := slices.DeleteFunc(e.Classes(), func(c string) bool { return c == class })
	e.SetAttr("class", strings.Join(classes, " "))
}

// Query returns the first descendant matching sel, or nil
func (e *Element) Query(sel Selector) *Element {
	if found := queryAll(e.doc, e.node, sel); len(found) > 0 {
		return found[0]
	}
	return nil
}

// QueryAll returns every descendant matching sel
func (e *Element) QueryAll(sel Selector) []*Element {
	return queryAll(e.doc, e.node, sel)
}

// Text returns the concatenated text content
func (e *Element) Text() string {
	var b strings.Builder
	walk(e.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return b.String()
}

// InnerHTML renders the children of e
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// SetInnerHTML replaces the children of e with the parsed fragment
func (e *Element) SetInnerHTML(fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.node)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}
	e.clear()
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

func (e *Element) clear() {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.doc.forgetFiles(c)
		e.node.RemoveChild(c)
		c = next
	}
}

// Value returns the current value of a form control
func (e *Element) Value() string {
	switch e.node.DataAtom {
	case atom.Textarea:
		return e.Text()
	case atom.Select:
		if opt := e.selectedOption(); opt != nil {
			return optionValue(opt)
		}
		return ""
	case atom.Input:
		if e.isFileInput() {
			if files := e.Files(); len(files) > 0 {
				return files[0].Name
			}
			return ""
		}
	}
	return e.Attr("value")
}

// SetValue sets the current value of a form control. An empty value on a
// file input clears its selection.
func (e *Element) SetValue(value string) {
	switch e.node.DataAtom {
	case atom.Textarea:
		e.clear()
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	case atom.Select:
		for _, opt := range e.QueryAll(ByTag("option")) {
			if optionValue(opt) == value {
				opt.SetAttr("selected", "")
			} else {
				opt.RemoveAttr("selected")
			}
		}
	case atom.Input:
		if e.isFileInput() {
			if value == "" {
				delete(e.doc.files, e.node)
				e.RemoveAttr("value")
			}
			return
		}
		e.SetAttr("value", value)
	default:
		e.SetAttr("value", value)
	}
}

func (e *Element) selectedOption() *Element {
	options := e.QueryAll(ByTag("option"))
	for _, opt := range options {
		if opt.HasAttr("selected") {
			return opt
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return nil
}

func optionValue(opt *Element) string {
	if v, ok := opt.lookupAttr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

func (e *Element) isFileInput() bool {
	return e.node.DataAtom == atom.Input && strings.EqualFold(e.Attr("type"), "file")
}

// Files returns the files selected in a file input
func (e *Element) Files() []File {
	return e.doc.files[e.node]
}

// SetFiles replaces the selection of a file input
func (e *Element) SetFiles(files ...File) {
	if len(files) == 0 {
		delete(e.doc.files, e.node)
		return
	}
	e.doc.files[e.node] = files
}

// Required reports whether the control carries the required attribute
func (e *Element) Required() bool {
	return e.HasAttr("required")
}

// ValueMissing reports a required control with an empty value
func (e *Element) ValueMissing() bool {
	return e.Required() && strings.TrimSpace(e.Value()) == ""
}

// MissingRequired returns the required controls below e whose value is
// empty. File inputs are left out: their acceptance is decided by the
// controller.
func (e *Element) MissingRequired() []*Element {
	var missing []*Element
	for _, el := range e.QueryAll(HasAttr("required")) {
		if el.isFileInput() {
			continue
		}
		if el.ValueMissing() {
			missing = append(missing, el)
		}
	}
	return missing
}
