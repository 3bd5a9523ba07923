package app

import (
	"context"
	"sync"
	"time"

	"github.com/zombor/billed/internal/containers"
	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/router"
	"github.com/zombor/billed/internal/routes"
	"github.com/zombor/billed/internal/session"
	"github.com/zombor/billed/internal/store"
)

// Navbar icons highlighted by the router
const (
	IconWindow = "icon-window"
	IconMail   = "icon-mail"
)

// Config holds the collaborators shared by every view of a tab
type Config struct {
	Store   store.Store
	Storage session.Storage

	UpdateTimeout time.Duration
	OnUpdateError containers.UpdateErrorFunc
}

// App is one employee tab: a document, its router and the controller of
// the displayed view
type App struct {
	doc    *dom.Document
	router *router.Router
	config Config

	pending sync.WaitGroup
}

// New creates an App rendering into doc and registers the employee routes
func New(doc *dom.Document, config Config) *App {
	a := &App{
		doc:    doc,
		config: config,
	}
	a.router = router.New(doc,
		router.Route{Path: routes.Bills, Icon: IconWindow, Render: a.renderBills},
		router.Route{Path: routes.NewBill, Icon: IconMail, Render: a.renderNewBill},
	)
	return a
}

// Document returns the document of the tab
func (a *App) Document() *dom.Document {
	return a.doc
}

// Navigate renders the view of path
func (a *App) Navigate(ctx context.Context, path string) {
	a.router.Navigate(ctx, path)
}

// Current returns the displayed path
func (a *App) Current() string {
	return a.router.Current()
}

// Wait blocks until every bill save started from this tab is done
func (a *App) Wait() {
	a.pending.Wait()
}

func (a *App) controllerContext() containers.Context {
	return containers.Context{
		Document:      a.doc,
		Navigate:      a.router.Navigate,
		Store:         a.config.Store,
		Storage:       a.config.Storage,
		UpdateTimeout: a.config.UpdateTimeout,
		OnUpdateError: a.config.OnUpdateError,
		Pending:       &a.pending,
	}
}

func (a *App) renderBills(ctx context.Context, root *dom.Element) error {
	return containers.NewBillsController(a.controllerContext()).Render(ctx, root)
}

func (a *App) renderNewBill(ctx context.Context, root *dom.Element) error {
	c, err := containers.NewNewBillController(a.controllerContext())
	if err != nil {
		return err
	}
	return c.Render(ctx, root)
}
