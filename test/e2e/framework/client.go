package framework

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"
)

// Client talks to the API the way a browser or script would.
type Client struct {
	t     testing.TB
	base  string
	http  *http.Client
	Token string
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewClient creates an anonymous client.
func NewClient(t testing.TB, base string) *Client {
	return &Client{
		t:    t,
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Anonymous returns a copy of c without a token.
func (c *Client) Anonymous() *Client {
	return NewClient(c.t, c.base)
}

// Do sends body as JSON (nil for none) and reads the whole response.
func (c *Client) Do(method, path string, body any, header ...string) *Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("Failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("X-Token", c.Token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("Failed to read response body: %v", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}
}

// JSON decodes the body into v.
func (r *Response) JSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("Failed to decode %q: %v", r.Body, err)
	}
}

// Expect fails the test unless the status matches.
func (r *Response) Expect(t testing.TB, status int) *Response {
	t.Helper()
	if r.Status != status {
		t.Fatalf("Expected status %d, got %d: %s", status, r.Status, r.Body)
	}
	return r
}

// SignUp registers a user and connects, keeping the token on c.
func (c *Client) SignUp(email, password string) {
	c.t.Helper()
	c.Do(http.MethodPost, "/users", map[string]string{"email": email, "password": password}).
		Expect(c.t, http.StatusCreated)
	c.Connect(email, password)
}

// Connect exchanges Basic credentials for a token and keeps it on c.
func (c *Client) Connect(email, password string) {
	c.t.Helper()
	credentials := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))

	var out struct {
		Token string `json:"token"`
	}
	c.Do(http.MethodGet, "/connect", nil, "Authorization", "Basic "+credentials).
		Expect(c.t, http.StatusOK).
		JSON(c.t, &out)
	if out.Token == "" {
		c.t.Fatal("Expected a token from /connect")
	}
	c.Token = out.Token
}

// CreateFile posts req and returns the created record.
func (c *Client) CreateFile(req map[string]any) map[string]any {
	c.t.Helper()
	var out map[string]any
	c.Do(http.MethodPost, "/files", req).Expect(c.t, http.StatusCreated).JSON(c.t, &out)
	return out
}
