package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/zombor/billed/internal/bill"
)

const (
	// HeaderUserEmail carries the session email to the API
	HeaderUserEmail = "X-User-Email"

	// HeaderUserType carries the session role to the API
	HeaderUserType = "X-User-Type"
)

// API implements Store over the Billed REST API
type API struct {
	baseURL  string
	client   *http.Client
	token    string
	email    string
	userType string
}

// Option configures an API
type Option func(*API)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) {
		a.client = c
	}
}

// WithToken sends token as a bearer credential on every request
func WithToken(token string) Option {
	return func(a *API) {
		a.token = token
	}
}

// WithUser identifies the session on every request so the API can scope lists
func WithUser(email, userType string) Option {
	return func(a *API) {
		a.email = email
		a.userType = userType
	}
}

// NewAPI creates a new API client rooted at baseURL
func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Bills returns the bill endpoints
func (a *API) Bills() Bills {
	return a
}

// List returns every bill visible to the current session
func (a *API) List(ctx context.Context) ([]bill.Bill, error) {
	req, err := a.newRequest(ctx, http.MethodGet, "/bills", nil)
	if err != nil {
		return nil, err
	}

	bills := make([]bill.Bill, 0)
	if err := a.do(req, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Create uploads a receipt as multipart form data
func (a *API) Create(ctx context.Context, upload Upload) (*Receipt, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("email", upload.Email); err != nil {
		return nil, fmt.Errorf("writing email field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(upload.FileName)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("writing file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := a.newRequest(ctx, http.MethodPost, "/bills", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var receipt Receipt
	if err := a.do(req, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Update persists b with a PATCH on its id
func (a *API) Update(ctx context.Context, b bill.Bill) (*bill.Bill, error) {
	if b.ID == "" {
		return nil, ErrMissingID
	}

	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshaling bill: %w", err)
	}

	req, err := a.newRequest(ctx, http.MethodPatch, "/bills/"+url.PathEscape(b.ID), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var updated bill.Bill
	if err := a.do(req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (a *API) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	if a.email != "" {
		req.Header.Set(HeaderUserEmail, a.email)
	}
	if a.userType != "" {
		req.Header.Set(HeaderUserType, a.userType)
	}
	return req, nil
}

// do sends req and decodes a successful JSON answer into out
func (a *API) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling billed API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
