package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the automation backend's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	// DefaultAPIURL is used when no api_url is configured.
	DefaultAPIURL    = "http://127.0.0.1:8000/api"
	defaultUserAgent = "deckhand/0.1"
	requestTimeout   = 10 * time.Second
)

// envelope mirrors the backend's standard response wrapper.
type envelope struct {
	Success   *bool           `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Detail    string          `json:"detail"`
	Timestamp string          `json:"timestamp"`
}

// NewClient builds a Client rooted at apiURL.
func NewClient(apiURL string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return &Error{Kind: KindRequest, Op: path, Err: fmt.Errorf("client is nil")}
	}
	op := method + " " + path

	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindRequest, Op: op, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return &Error{Kind: KindRequest, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindStatus, Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
		// Not wrapped; the whole body is the payload.
		if dest == nil {
			return nil
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return &Error{Kind: KindDecode, Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}
	if !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request not accepted"
		}
		return &Error{Kind: KindRejected, Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if dest == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return &Error{Kind: KindDecode, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Detail != "" {
			return env.Detail
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = DefaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
