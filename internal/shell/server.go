package shell

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/zombor/billed/internal/app"
	"github.com/zombor/billed/internal/routes"
)

// Server exposes one employee tab to a browser. Every request runs alone
// against the tab.
type Server struct {
	app       *app.App
	basicAuth BasicAuth
	mux       *http.ServeMux

	mu    sync.Mutex
	flash string
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(a *app.App, basicAuth BasicAuth) *Server {
	return NewServerWithMux(a, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(a *app.App, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		app:       a,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	return ok &&
		subtle.ConstantTimeCompare([]byte(username), []byte(s.basicAuth.Username)) == 1 &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.basicAuth.Password)) == 1
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Billed"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers the page and event routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /events/{generation}/{binding}/{element}", s.requireAuth(s.handleEvent))
	s.mux.HandleFunc("POST /events/{generation}/{binding}/{element}", s.requireAuth(s.handleEvent))
	s.mux.HandleFunc("GET /favicon.ico", http.NotFound)
	s.mux.HandleFunc("GET /{$}", s.requireAuth(s.handleHome))
	s.mux.HandleFunc("GET /", s.requireAuth(s.handlePage))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// keepParam marks a page load that must show the tab as the last event left it
const keepParam = "keep"

// redirectToCurrent sends the browser to the page the tab displays, asking
// to keep its state
func (s *Server) redirectToCurrent(w http.ResponseWriter, r *http.Request) {
	current := s.app.Current()
	if current == "" {
		current = routes.Bills
	}
	http.Redirect(w, r, routes.Href(current)+"?"+keepParam+"=1", http.StatusSeeOther)
}
