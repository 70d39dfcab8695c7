package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client talks to the /api/v1 surface of a running server
type Client struct {
	baseURL    string
	token      string
	verbose    bool
	httpClient *http.Client
}

// NewClient creates a client for baseURL that authenticates with token when set
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetVerbose enables request tracing on stderr
func (c *Client) SetVerbose(verbose bool) {
	c.verbose = verbose
}

// APIError is the error envelope returned by the server
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Get decodes the JSON body of GET path into result
func (c *Client) Get(path string, result any) error {
	return c.doJSON(http.MethodGet, path, nil, result)
}

// Post sends body as JSON and decodes the reply into result
func (c *Client) Post(path string, body, result any) error {
	return c.doJSON(http.MethodPost, path, body, result)
}

// Delete decodes the JSON body of DELETE path into result
func (c *Client) Delete(path string, result any) error {
	return c.doJSON(http.MethodDelete, path, nil, result)
}

// GetRaw returns the undecoded body of GET path and its content type
func (c *Client) GetRaw(path string) ([]byte, string, error) {
	body, header, err := c.send(http.MethodGet, path, nil, "")
	if err != nil {
		return nil, "", err
	}
	return body, header.Get("Content-Type"), nil
}

func (c *Client) doJSON(method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	respBody, _, err := c.send(method, path, payload, "application/json")
	if err != nil {
		return err
	}
	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// send performs one request and turns 4xx/5xx replies into *APIError
func (c *Client) send(method, path string, payload []byte, accept string) ([]byte, http.Header, error) {
	url := c.baseURL + path

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.trace("> %s %s", method, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.trace("< %s", resp.Status)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, decodeError(resp.StatusCode, respBody)
	}
	return respBody, resp.Header, nil
}

func (c *Client) trace(format string, args ...any) {
	if c.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func decodeError(status int, body []byte) *APIError {
	var envelope struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		envelope.Error.Status = status
		return &envelope.Error
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
}
