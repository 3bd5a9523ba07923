package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/billed/internal/app"
	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/containers"
	"github.com/zombor/billed/internal/dom"
	"github.com/zombor/billed/internal/routes"
	"github.com/zombor/billed/internal/session"
	"github.com/zombor/billed/internal/shell"
	"github.com/zombor/billed/internal/store"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("billed")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		apiURL        = fs.StringLong("api-url", "http://localhost:5678", "Billed API base URL")
		email         = fs.StringLong("email", "", "Email of the signed-in employee")
		userType      = fs.StringLong("user-type", string(session.TypeEmployee), "Role of the signed-in user: 'Employee' or 'Admin'")
		token         = fs.StringLong("token", "", "Bearer token sent to the API (optional)")
		updateTimeout = fs.DurationLong("update-timeout", containers.DefaultUpdateTimeout, "Time allowed for a bill save after submission")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILLED"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *email == "" {
		slog.Error("Email is required. Set --email flag or BILLED_EMAIL environment variable")
		os.Exit(1)
	}
	role := session.Type(*userType)
	if role != session.TypeEmployee && role != session.TypeAdmin {
		slog.Error("Invalid user type", "type", *userType, "valid", "Employee or Admin")
		os.Exit(1)
	}

	// Seed the session the controllers read
	storage := session.NewMemoryStorage()
	if err := session.Write(storage, session.Session{Type: role, Email: *email}); err != nil {
		slog.Error("Failed to store session", "error", err)
		os.Exit(1)
	}

	opts := []store.Option{store.WithUser(*email, *userType)}
	if *token != "" {
		opts = append(opts, store.WithToken(*token))
	}
	api := store.NewAPI(*apiURL, opts...)

	tab := app.New(dom.NewDocument(), app.Config{
		Store:         api,
		Storage:       storage,
		UpdateTimeout: *updateTimeout,
		OnUpdateError: func(b bill.Bill, err error) {
			slog.Warn("Submitted bill was not saved", "id", b.ID, "name", b.Name, "status", store.StatusCode(err))
		},
	})
	tab.Navigate(context.Background(), routes.Bills)

	basicAuth := shell.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := shell.NewServer(tab, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "api", *apiURL, "email", *email)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	waitForSaves(tab, *updateTimeout)
}

// waitForSaves gives bills submitted just before shutdown a chance to reach
// the API
func waitForSaves(tab *app.App, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		tab.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("Bill saves still running at shutdown")
	}
}
