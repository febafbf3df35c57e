package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type createSessionRequest struct {
	Model string `json:"model"`
}

type createSessionResponse struct {
	SessionId string `json:"session_id"`
}

type completionRequest struct {
	Model   string `json:"model"`
	History []Turn `json:"history,omitempty"`
	Message string `json:"message"`
}

type completionResponse struct {
	Reply string `json:"reply"`
}

// Client talks to the upstream generative backend over HTTP. Completion calls
// retry a bounded number of times with exponential backoff while the upstream
// session is still warming up; the caller's message is never dropped on
// failure, only answered with an error.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
	retryBase   time.Duration
	http        *http.Client
}

func NewClient(baseURL, apiKey, model string, maxAttempts int, retryBase time.Duration) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var res createSessionResponse
	err := c.post(ctx, "/v1/sessions", createSessionRequest{Model: c.model}, &res)
	if err != nil {
		return "", err
	}
	if res.SessionId == "" {
		return "", fmt.Errorf("assistant: empty session id in response")
	}
	return res.SessionId, nil
}

func (c *Client) Complete(ctx context.Context, sessionRef string, history []Turn, message string) (string, error) {
	path := fmt.Sprintf("/v1/sessions/%s/completions", sessionRef)
	payload := completionRequest{Model: c.model, History: history, Message: message}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.retryBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		var res completionResponse
		err := c.post(ctx, path, payload, &res)
		if err == nil {
			return res.Reply, nil
		}
		if err == ErrSessionInvalid {
			// Retrying the same ref cannot help.
			return "", err
		}
		lastErr = err
		if err != ErrNotReady {
			// Network blips are retried the same way as a cold session.
			continue
		}
	}

	return "", lastErr
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	switch res.StatusCode {
	case http.StatusOK:
		return json.Unmarshal(resBody, out)
	case http.StatusNotFound, http.StatusGone:
		return ErrSessionInvalid
	case http.StatusConflict, http.StatusTooEarly, http.StatusServiceUnavailable:
		return ErrNotReady
	default:
		return fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}
}
