package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/views"
)

// ActiveClass marks the navbar icon of the displayed view
const ActiveClass = "active-icon"

// RenderFunc renders a view into root. A returned error replaces the view
// with the error page showing the error message.
type RenderFunc func(ctx context.Context, root *dom.Element) error

// Route binds a logical path to its view
type Route struct {
	Path string
	// Icon is the data-testid of the navbar icon highlighted for this path
	Icon   string
	Render RenderFunc
}

// Router renders logical paths into a document
type Router struct {
	doc     *dom.Document
	routes  map[string]Route
	icons   []string
	current string
}

// New creates a Router over doc with the given routes
func New(doc *dom.Document, routes ...Route) *Router {
	r := &Router{
		doc:    doc,
		routes: make(map[string]Route),
	}
	for _, route := range routes {
		r.Register(route)
	}
	return r
}

// Register adds or replaces a route
func (r *Router) Register(route Route) {
	r.routes[route.Path] = route
	if route.Icon == "" {
		return
	}
	for _, icon := range r.icons {
		if icon == route.Icon {
			return
		}
	}
	r.icons = append(r.icons, route.Icon)
}

// Current returns the last path navigated to
func (r *Router) Current() string {
	return r.current
}

// Navigate replaces the content of #root with the view of path. Unknown
// paths show the 404 page and failures show the error page; Navigate itself
// never fails.
func (r *Router) Navigate(ctx context.Context, path string) {
	r.current = path

	root := r.doc.Root()
	if root == nil {
		slog.Error("Document has no root element", "path", path)
		return
	}
	r.doc.ClearBindings()

	route, ok := r.routes[path]
	if !ok {
		slog.Warn("Unknown path", "path", path)
		r.show(root, views.NotFound)
		r.markActive("")
		return
	}

	if err := r.render(ctx, route, root); err != nil {
		slog.Error("Error rendering view", "path", path, "error", err)
		r.doc.ClearBindings()
		r.show(root, func() (string, error) { return views.Error(err.Error()) })
	}
	r.markActive(route.Icon)
}

func (r *Router) render(ctx context.Context, route Route, root *dom.Element) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rendering %s: %v", route.Path, p)
		}
	}()
	return route.Render(ctx, root)
}

func (r *Router) show(root *dom.Element, view func() (string, error)) {
	out, err := view()
	if err != nil {
		slog.Error("Error rendering fallback view", "error", err)
		out = ""
	}
	if err := root.SetInnerHTML(out); err != nil {
		slog.Error("Error mounting fallback view", "error", err)
	}
}

// markActive moves ActiveClass onto icon and off every other navbar icon
func (r *Router) markActive(icon string) {
	for _, id := range r.icons {
		for _, el := range r.doc.GetAllByTestID(id) {
			if id == icon {
				el.AddClass(ActiveClass)
			} else {
				el.RemoveClass(ActiveClass)
			}
		}
	}
}
