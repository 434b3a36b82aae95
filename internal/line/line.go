// Package line talks to the LINE Messaging API: pushing text to subscribers,
// replying to webhook events and verifying webhook signatures.
package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/retry"
	"github.com/deusflow/newsbot/internal/textutil"
)

const (
	DefaultBaseURL = "https://api.line.me"

	// maxTextLength is the LINE limit for a single text message.
	maxTextLength = 5000
)

// ErrInvalidSignature is returned for webhook bodies that fail verification.
var ErrInvalidSignature = errors.New("invalid signature")

// APIError is a non-2xx answer from the Messaging API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("LINE API error: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	accessToken   string
	channelSecret string
	baseURL       string
	httpClient    *http.Client
	retry         retry.RetryConfig
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRetry(cfg retry.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

func NewClient(accessToken, channelSecret string, opts ...Option) *Client {
	c := &Client{
		accessToken:   accessToken,
		channelSecret: channelSecret,
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		retry:         retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "line" }

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func newText(text string) []textMessage {
	return []textMessage{{Type: "text", Text: textutil.Truncate(text, maxTextLength)}}
}

// Push sends text to every recipient with one multicast call.
func (c *Client) Push(ctx context.Context, to []string, text string) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	payload := struct {
		To       []string      `json:"to"`
		Messages []textMessage `json:"messages"`
	}{To: to, Messages: newText(text)}

	if err := c.post(ctx, "/v2/bot/message/multicast", payload); err != nil {
		return fmt.Errorf("multicast: %w", err)
	}
	logger.Info("LINE multicast sent", "recipients", len(to))
	return nil
}

// Reply answers a webhook event.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	payload := struct {
		ReplyToken string        `json:"replyToken"`
		Messages   []textMessage `json:"messages"`
	}{ReplyToken: replyToken, Messages: newText(text)}

	if err := c.post(ctx, "/v2/bot/message/reply", payload); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	return retry.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(msg)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(apiErr)
		}
		return apiErr
	})
}

// VerifySignature checks X-Line-Signature against the raw request body.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.channelSecret == "" || signature == "" {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.channelSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign computes the signature LINE would send for body.
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
