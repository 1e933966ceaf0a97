package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TestClient is a thin HTTP client for the codeassist API.
type TestClient struct {
	baseURL string
	http    *http.Client
}

// NewTestClient creates a client for the given base URL.
func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SessionInfo mirrors the API's session representation.
type SessionInfo struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivity   time.Time `json:"lastActivity"`
	MessageCount   int       `json:"messageCount"`
	Files          []string  `json:"files"`
	PrimaryFile    string    `json:"primaryFile"`
	RecentMentions []string  `json:"recentMentions"`
}

// APIError carries a decoded API error response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

func (c *TestClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{
			Status:  resp.StatusCode,
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
		}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// CreateSession creates a session.
func (c *TestClient) CreateSession() (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do("POST", "/session", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetSession fetches a session summary.
func (c *TestClient) GetSession(id string) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do("GET", "/session/"+id, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteSession ends a session.
func (c *TestClient) DeleteSession(id string) error {
	return c.do("DELETE", "/session/"+id, nil, nil)
}

// SendMessage sends a chat message and returns the assistant reply.
func (c *TestClient) SendMessage(id, message string) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	body := map[string]string{"message": message}
	if err := c.do("POST", "/session/"+id+"/message", body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// AttachFile attaches an inline project file.
func (c *TestClient) AttachFile(id, filename, content string) error {
	body := map[string]string{"filename": filename, "content": content}
	return c.do("POST", "/session/"+id+"/file", body, nil)
}

// DetachFile removes a project file.
func (c *TestClient) DetachFile(id, filename string) error {
	return c.do("DELETE", "/session/"+id+"/file/"+filename, nil, nil)
}

// ModelStatus fetches the model lifecycle state.
func (c *TestClient) ModelStatus() (map[string]any, error) {
	var resp map[string]any
	if err := c.do("GET", "/model/status", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// InitializeModel triggers a model load and waits for the outcome.
func (c *TestClient) InitializeModel() error {
	return c.do("POST", "/model/initialize", nil, nil)
}

// Health fetches the liveness probe.
func (c *TestClient) Health() (map[string]any, error) {
	var resp map[string]any
	if err := c.do("GET", "/health", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
