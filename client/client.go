// Package client is the Go counterpart of the browser frontend's service
// layer: a thin typed API client plus the pure session, wizard, and routing
// helpers the pages are built on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rciconnect/internal/models"
)

// APIError carries the HTTP status and the server's parsed error message,
// falling back to the status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// ErrCancelled is returned when a destructive operation is declined at the
// confirmation dialog; no request is issued in that case.
var ErrCancelled = errors.New("operation cancelled")

// Client talks to the REST API. The access token is read from Storage on
// every request, mirroring how the browser reads local storage.
type Client struct {
	baseURL string
	http    *http.Client
	storage Storage
}

func New(baseURL string, storage Storage) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		storage: storage,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.storage.Get(KeyAccessToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var parsed struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &parsed) == nil {
			apiErr.Message = parsed.Error
		}
		return apiErr
	}

	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

func (c *Client) doForm(ctx context.Context, path string, fields map[string]string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, &buf, writer.FormDataContentType(), out)
}

// LoginResult is the login response persisted into storage by the caller.
type LoginResult struct {
	User           json.RawMessage `json:"user"`
	AccessToken    string          `json:"access_token"`
	RefreshToken   string          `json:"refresh_token"`
	TokenExpiresAt int64           `json:"token_expires_at"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, &result)
	if err != nil {
		return nil, err
	}

	c.storage.Set(KeyUser, string(result.User))
	c.storage.Set(KeyAccessToken, result.AccessToken)
	c.storage.Set(KeyRefreshToken, result.RefreshToken)
	c.storage.Set(KeyTokenExpiresAt, fmt.Sprintf("%d", result.TokenExpiresAt))
	return &result, nil
}

func (c *Client) Logout(ctx context.Context) error {
	refresh, _ := c.storage.Get(KeyRefreshToken)
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/logout",
		map[string]string{"refresh_token": refresh}, nil)
	ClearSession(c.storage)
	return err
}

// SubmitSection1 posts the first wizard step and returns the application id
// the applicant resumes with.
func (c *Client) SubmitSection1(ctx context.Context, fields map[string]string) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.doForm(ctx, "/api/v1/consultant-applications/section1", fields, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// ResumeApplication re-hydrates the wizard from the shareable link's email
// and application id.
func (c *Client) ResumeApplication(ctx context.Context, email, applicationID string) (map[string]any, error) {
	var loaded map[string]any
	path := "/api/v1/consultant-applications?" + url.Values{
		"email":          {email},
		"application_id": {applicationID},
	}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &loaded); err != nil {
		return nil, err
	}
	return loaded, nil
}

// Subscribe returns the server's status string: "subscribed" or
// "already_subscribed". The caller clears the input only on "subscribed".
func (c *Client) Subscribe(ctx context.Context, email string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/newsletter/subscribe",
		map[string]string{"email": email}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) ListBlockedTimes(ctx context.Context) ([]models.BlockedTime, error) {
	var resp struct {
		BlockedTimes []models.BlockedTime `json:"blocked_times"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/availability/blocked-times", nil, &resp); err != nil {
		return nil, err
	}
	return resp.BlockedTimes, nil
}

// DeleteBlockedTime consults the confirmer first: declined means no request
// at all, confirmed means exactly one DELETE followed by one refetch.
func (c *Client) DeleteBlockedTime(ctx context.Context, id int64, confirm Confirmer) ([]models.BlockedTime, error) {
	if !confirm.Confirm("Delete this blocked time?") {
		return nil, ErrCancelled
	}
	path := fmt.Sprintf("/api/v1/availability/blocked-times/%d", id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return nil, err
	}
	return c.ListBlockedTimes(ctx)
}

func (c *Client) ListSlots(ctx context.Context) (*models.WeeklySchedule, error) {
	var schedule models.WeeklySchedule
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/availability/slots", nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteSlot follows the same confirm-then-delete-then-refetch contract as
// DeleteBlockedTime.
func (c *Client) DeleteSlot(ctx context.Context, id int64, confirm Confirmer) (*models.WeeklySchedule, error) {
	if !confirm.Confirm("Delete this availability slot?") {
		return nil, ErrCancelled
	}
	path := fmt.Sprintf("/api/v1/availability/slots/%d", id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return nil, err
	}
	return c.ListSlots(ctx)
}

// DeleteDocument removes an admin-visible additional document after
// confirmation and refetches the document list.
func (c *Client) DeleteDocument(ctx context.Context, applicationID string, docID int64, confirm Confirmer) ([]models.ApplicationDocument, error) {
	if !confirm.Confirm("Delete this document?") {
		return nil, ErrCancelled
	}
	path := fmt.Sprintf("/api/v1/consultant-applications/%s/additional-documents/%d", applicationID, docID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return nil, err
	}

	var resp struct {
		Documents []models.ApplicationDocument `json:"documents"`
	}
	listPath := fmt.Sprintf("/api/v1/consultant-applications/%s/additional-documents", applicationID)
	if err := c.doJSON(ctx, http.MethodGet, listPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// Confirmer is the blocking confirmation dialog in front of destructive
// actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
