// Package remote invokes hosted functions over HTTP.
//
// Hosted functions sometimes report failures as an "errorMessage" string in a
// 200 response. Invoke folds that case, transport errors and non-2xx statuses
// into the Err side of a retry.Result, so callers never look at payload shape.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/retry"
)

// Client calls functions hosted under baseURL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the function host at baseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// envelope is the error field a hosted function may embed in a success body.
type envelope struct {
	ErrorMessage *string `json:"errorMessage"`
}

// Invoke POSTs body as JSON to the named function and decodes the response into T.
func Invoke[T any](ctx context.Context, c *Client, name string, body any) retry.Result[T] {
	payload, err := json.Marshal(body)
	if err != nil {
		return retry.Fail[T](retry.Permanent(fmt.Errorf("marshal %s request: %w", name, err)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(payload))
	if err != nil {
		return retry.Fail[T](retry.Permanent(fmt.Errorf("create %s request: %w", name, err)))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Fail[T](fmt.Errorf("invoke %s: %w", name, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Fail[T](fmt.Errorf("read %s response: %w", name, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return retry.Fail[T](&model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s: %s", name, strings.TrimSpace(string(raw))),
		})
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.ErrorMessage != nil {
		return retry.Fail[T](&model.RemoteError{Function: name, Message: *env.ErrorMessage})
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return retry.Fail[T](fmt.Errorf("parse %s response: %w", name, err))
	}
	return retry.Ok(out)
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
