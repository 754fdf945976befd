// Package api is a typed HTTP client for the storefront REST API.
//
// All persistence and business rules live behind this API; the client only
// shuttles JSON and surfaces failures. The bearer credential is held on the
// Client and attached to every request until cleared.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vitrine-app/vitrine/internal/model"
)

// Error is a failure reported by the API itself (as opposed to a transport
// failure). Message is the human-readable reason from the response body.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

// Client talks to the storefront API at BaseURL. The token field is shared
// between the session (which writes it) and every outgoing call, so access
// goes through the mutex.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer credential attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer credential.
func (c *Client) ClearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Token returns the currently attached credential ("" if none).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type meResponse struct {
	User model.User `json:"user"`
}

type listResponse struct {
	Data []model.Product `json:"data"`
}

// Login exchanges credentials for a token and the user it belongs to.
func (c *Client) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", nil, err
	}
	return resp.Token, &resp.User, nil
}

// Register creates an account and returns its token and user.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, *model.User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return "", nil, err
	}
	return resp.Token, &resp.User, nil
}

// Me resolves the user behind the attached credential.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateProduct creates a product from a draft.
func (c *Client) CreateProduct(ctx context.Context, draft model.ProductDraft) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPost, "/products", draft, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct replaces a product's fields from a draft.
func (c *Client) UpdateProduct(ctx context.Context, id int64, draft model.ProductDraft) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), draft, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil)
}

// UploadProductImage uploads a prepared JPEG as the product's image.
func (c *Client) UploadProductImage(ctx context.Context, id int64, image []byte) error {
	url := fmt.Sprintf("%s/products/%d/image", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	return c.send(req, nil)
}

// do performs one JSON round-trip against path.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes a request, decodes the response into out (if non-nil), and
// turns non-2xx statuses into *Error with the server's message.
func (c *Client) send(req *http.Request, out any) error {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// decodeError extracts the {"error": "..."} message from a failed response.
func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
