// Package client is the state layer consumed by the mobile and dashboard
// frontends: an HTTP client for the platform services, a session holding the
// current user and token, and an in-memory report cache with derived views.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"

	authmodels "onspace/services/auth-service/models"
	reportmodels "onspace/services/report-service/models"

	"onspace/pkg/response"
)

// APIError carries the HTTP status and the localized message the backend
// returned.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Session is the locally persisted authentication state. Signing out only
// clears this; there is no server-side revocation.
type Session struct {
	User  *authmodels.User
	Token string
}

type Config struct {
	AuthURL    string
	ReportURL  string
	MediaURL   string
	HTTPClient *http.Client
}

type Client struct {
	authURL   string
	reportURL string
	mediaURL  string
	http      *http.Client

	mu      sync.RWMutex
	session Session
}

func New(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = "http://localhost:8081"
	}
	if cfg.ReportURL == "" {
		cfg.ReportURL = "http://localhost:8082"
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = "http://localhost:8083"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{
		authURL:   cfg.AuthURL,
		reportURL: cfg.ReportURL,
		mediaURL:  cfg.MediaURL,
		http:      cfg.HTTPClient,
	}
}

// Session returns a copy of the current authentication state.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SignOut clears the locally persisted token and user.
func (c *Client) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Session{}
}

// do performs a JSON request, attaching the bearer token when present and
// decoding error envelopes into *APIError.
func (c *Client) do(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Session().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody response.ErrorBody
		if derr := json.NewDecoder(resp.Body).Decode(&errBody); derr != nil || errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	CPF      string `json:"cpf,omitempty"`
}

type authPayload struct {
	User  *authmodels.User `json:"user"`
	Token string           `json:"token"`
}

// SignUp registers a new account and stores the returned session.
func (c *Client) SignUp(ctx context.Context, input SignUpInput) (*authmodels.User, error) {
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, c.authURL+"/api/auth/signup", input, &payload); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = Session{User: payload.User, Token: payload.Token}
	c.mu.Unlock()
	return payload.User, nil
}

// SignIn authenticates and stores the returned session. No session state is
// touched on failure.
func (c *Client) SignIn(ctx context.Context, email, password string) (*authmodels.User, error) {
	body := map[string]string{"email": email, "password": password}

	var payload authPayload
	if err := c.do(ctx, http.MethodPost, c.authURL+"/api/auth/login", body, &payload); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = Session{User: payload.User, Token: payload.Token}
	c.mu.Unlock()
	return payload.User, nil
}

type CreateReportInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity,omitempty"`
	IsAnonymous bool     `json:"isAnonymous"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     string   `json:"address,omitempty"`
	UserEmail   string   `json:"userEmail,omitempty"`
	UserName    string   `json:"userName,omitempty"`
}

func (c *Client) CreateReport(ctx context.Context, input CreateReportInput) (*reportmodels.Report, error) {
	var report reportmodels.Report
	if err := c.do(ctx, http.MethodPost, c.reportURL+"/api/reports", input, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Reports fetches the full feed, newest first.
func (c *Client) Reports(ctx context.Context) ([]reportmodels.Report, error) {
	var reports []reportmodels.Report
	if err := c.do(ctx, http.MethodGet, c.reportURL+"/api/reports", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *Client) ReportsByOwner(ctx context.Context, ownerID string) ([]reportmodels.Report, error) {
	var reports []reportmodels.Report
	if err := c.do(ctx, http.MethodGet, c.reportURL+"/api/reports/user/"+ownerID, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *Client) Report(ctx context.Context, id string) (*reportmodels.Report, error) {
	var report reportmodels.Report
	if err := c.do(ctx, http.MethodGet, c.reportURL+"/api/reports/"+id, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// UploadPhoto streams a photo to the media service and returns the stored
// object's URL for use as a report's imageUrl.
func (c *Client) UploadPhoto(ctx context.Context, filename, contentType string, photo io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.mediaURL+"/api/uploads", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token := c.Session().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody response.ErrorBody
		if derr := json.NewDecoder(resp.Body).Decode(&errBody); derr != nil || errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.ImageURL, nil
}

type ReportPatch struct {
	Status     *string `json:"status,omitempty"`
	Department *string `json:"department,omitempty"`
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// UpdateReport applies a moderation patch; the backend rejects non-moderators.
func (c *Client) UpdateReport(ctx context.Context, id string, patch ReportPatch) (*reportmodels.Report, error) {
	var report reportmodels.Report
	if err := c.do(ctx, http.MethodPut, c.reportURL+"/api/reports/"+id, patch, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
