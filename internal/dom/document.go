package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RootID is the id of the element views render into
const RootID = "root"

const blankPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Billed</title></head><body><div id="root"></div></body></html>`

// File is a file selected in a file input
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Document is an HTML document the controllers render into and bind to
type Document struct {
	mu         sync.Mutex
	node       *html.Node
	files      map[*html.Node][]File
	bindings   []Binding
	generation int
}

// NewDocument creates a blank page holding an empty #root element
func NewDocument() *Document {
	doc, err := Parse(strings.NewReader(blankPage))
	if err != nil {
		panic(err)
	}
	return doc
}

// Parse builds a Document from a full HTML page
func Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &Document{
		node:  node,
		files: make(map[*html.Node][]File),
	}, nil
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{doc: d, node: n}
}

// Body returns the <body> element
func (d *Document) Body() *Element {
	return d.wrap(findFirst(d.node, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	}))
}

// Root returns the #root element, or nil when the page has none
func (d *Document) Root() *Element {
	return d.GetElementByID(RootID)
}

// GetElementByID returns the element with the given id, or nil
func (d *Document) GetElementByID(id string) *Element {
	return d.Query(ByID(id))
}

// GetByTestID returns the first element with the given data-testid, or nil
func (d *Document) GetByTestID(id string) *Element {
	return d.Query(ByTestID(id))
}

// GetAllByTestID returns every element with the given data-testid
func (d *Document) GetAllByTestID(id string) []*Element {
	return d.QueryAll(ByTestID(id))
}

// Query returns the first element matching sel, or nil
func (d *Document) Query(sel Selector) *Element {
	return d.wrap(findFirst(d.node, func(n *html.Node) bool {
		return sel.Match(d.wrap(n))
	}))
}

// QueryAll returns every element matching sel in document order
func (d *Document) QueryAll(sel Selector) []*Element {
	return queryAll(d, d.node, sel)
}

// Text returns the text content of the body
func (d *Document) Text() string {
	body := d.Body()
	if body == nil {
		return ""
	}
	return body.Text()
}

// ContainsText reports whether the body text contains s
func (d *Document) ContainsText(s string) bool {
	return strings.Contains(d.Text(), s)
}

// Render writes the whole page as HTML
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.node); err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}
	return nil
}

// HTML returns the whole page as a string
func (d *Document) HTML() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) forgetFiles(n *html.Node) {
	walk(n, func(c *html.Node) bool {
		delete(d.files, c)
		return true
	})
}

// walk visits n and its descendants depth first until fn returns false
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func queryAll(d *Document, n *html.Node, sel Selector) []*Element {
	var out []*Element
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && c != n {
			if el := d.wrap(c); sel.Match(el) {
				out = append(out, el)
			}
		}
		return true
	})
	return out
}
