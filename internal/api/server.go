package api

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
)

// Server handles HTTP requests for bills
type Server struct {
	service *Service
	auth    Auth
	mux     *http.ServeMux
}

// Auth holds the accepted credentials. Requests pass with either basic
// credentials or the bearer token; nothing is required when all are empty.
type Auth struct {
	Username string
	Password string
	Token    string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, auth Auth) *Server {
	return NewServerWithMux(service, auth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, auth Auth, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		auth:    auth,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// authenticate checks basic auth credentials or the bearer token
func (s *Server) authenticate(r *http.Request) bool {
	basic := s.auth.Username != "" || s.auth.Password != ""
	if !basic && s.auth.Token == "" {
		return true
	}

	header := r.Header.Get("Authorization")
	switch {
	case s.auth.Token != "" && strings.HasPrefix(header, "Bearer "):
		return equal(strings.TrimPrefix(header, "Bearer "), s.auth.Token)
	case basic && strings.HasPrefix(header, "Basic "):
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
		if err != nil {
			return false
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		return ok && equal(username, s.auth.Username) && equal(password, s.auth.Password)
	default:
		return false
	}
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Billed"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /bills", s.requireAuth(s.handleListBills))
	s.mux.HandleFunc("POST /bills", s.requireAuth(s.handleCreateBill))
	s.mux.HandleFunc("PATCH /bills/{id}", s.requireAuth(s.handleUpdateBill))

	// Receipts are linked from <img> tags, which cannot send credentials
	s.mux.HandleFunc("GET /files/{name}", s.handleGetFile)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting API server", "address", addr)
	return http.ListenAndServe(addr, s.corsMiddleware(s.mux))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
