package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the Evolution URL or key is missing from
// the app configuration.
var ErrNotConfigured = errors.New("Evolution API not configured")

// Gateway is the messaging collaborator used by the webhook pipeline. Failures
// here never fail the webhook response; they are logged and reported.
type Gateway interface {
	SendText(ctx context.Context, instance, number, text string) error
	MarkAsRead(ctx context.Context, instance, messageID, remoteJid string) bool
}

// Credentials locates the Evolution API for one call. They come from the
// app_config row, read at call time so settings changes apply immediately.
type Credentials struct {
	APIURL string
	APIKey string
}

// CredentialsSource supplies Evolution credentials per call.
type CredentialsSource interface {
	EvolutionCredentials(ctx context.Context) (Credentials, error)
}

// Client is an HTTP client for the Evolution WhatsApp gateway.
type Client struct {
	creds  CredentialsSource
	client *http.Client
	logger *zap.Logger
}

// NewClient creates an Evolution client that reads credentials from creds on
// each call.
func NewClient(creds CredentialsSource, logger *zap.Logger) *Client {
	return &Client{
		creds:  creds,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

var _ Gateway = (*Client)(nil)

// SendText delivers a text message to number through the given instance.
func (c *Client) SendText(ctx context.Context, instance, number, text string) error {
	creds, err := c.credentials(ctx)
	if err != nil {
		return err
	}

	payload := map[string]string{"number": number, "text": text}
	status, respBody, err := c.post(ctx, creds,
		fmt.Sprintf("%s/message/sendText/%s", creds.APIURL, instance), payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("Evolution API error: %d - %s", status, respBody)
	}
	return nil
}

// MarkAsRead marks an inbound message as read. Best effort: failures are
// logged and reported as false, never as an error.
func (c *Client) MarkAsRead(ctx context.Context, instance, messageID, remoteJid string) bool {
	creds, err := c.credentials(ctx)
	if err != nil {
		c.logger.Warn("mark as read skipped", zap.Error(err))
		return false
	}

	payload := map[string]interface{}{
		"read_messages": []map[string]interface{}{
			{"id": messageID, "fromMe": false, "remoteJid": remoteJid},
		},
	}
	status, _, err := c.post(ctx, creds,
		fmt.Sprintf("%s/chat/markMessageAsRead/%s", creds.APIURL, instance), payload)
	if err != nil {
		c.logger.Warn("mark as read failed", zap.Error(err))
		return false
	}
	if status < 200 || status > 299 {
		c.logger.Warn("mark as read rejected", zap.Int("status", status))
		return false
	}
	return true
}

func (c *Client) credentials(ctx context.Context) (Credentials, error) {
	creds, err := c.creds.EvolutionCredentials(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("load Evolution credentials: %w", err)
	}
	if creds.APIURL == "" || creds.APIKey == "" {
		return Credentials{}, ErrNotConfigured
	}
	creds.APIURL = strings.TrimRight(creds.APIURL, "/")
	return creds, nil
}

func (c *Client) post(ctx context.Context, creds Credentials, url string, payload interface{}) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", creds.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(respBody), nil
}
