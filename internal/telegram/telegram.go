package telegram

import (
	"bytes"
	"context"
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
	DefaultBaseURL = "https://api.telegram.org"
	maxTextLength  = 4096
)

// Client sends plain-text messages through the Bot API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retry      retry.RetryConfig
}

func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true},
	}
}

func (c *Client) Name() string { return "telegram" }

// Push sends text to each chat in turn. All chats are attempted; the
// returned error joins the failures.
func (c *Client) Push(ctx context.Context, chatIDs []string, text string) error {
	if len(chatIDs) == 0 {
		return errors.New("no recipients")
	}
	var errs []error
	for _, id := range chatIDs {
		if err := c.SendMessage(ctx, id, text); err != nil {
			errs = append(errs, fmt.Errorf("chat %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// SendMessage sends text message to Telegram chat/channel with retry logic
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	attempt := 0
	err := retry.WithRetry(ctx, c.retry, func() error {
		attempt++
		err := c.sendMessageOnce(ctx, chatID, text)
		if err != nil {
			logger.Warn("Error send to Telegram", "attempt", attempt, "max", c.retry.MaxAttempts, "error", err)
		}
		return err
	})
	if err != nil {
		return err
	}
	logger.Info("Message sent to Telegram", "chat_id", chatID, "attempt", attempt)
	return nil
}

// sendMessageOnce does one try to send message
func (c *Client) sendMessageOnce(ctx context.Context, chatID, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     textutil.Truncate(text, maxTextLength),
		"disable_web_page_preview": false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("error make JSON: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("telegram API error: status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	return nil
}
