// Package provider talks to supplier group-chat webhooks (WeCom-style
// markdown bots). Delivery is bounded: up to three attempts with linearly
// increasing backoff, and terminal provider error codes stop the loop early
// instead of burning the retry budget.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/pkg/logger"
)

// Known provider error codes, mapped to operator-actionable messages.
const (
	CodeOK                = 0
	CodeRateLimited       = 45009
	CodeIPRestricted      = 60020
	CodeInvalidCredential = 93000
	CodeWebhookDisabled   = 93008
)

var knownErrors = map[int]string{
	CodeRateLimited:       "provider rate limit reached, delivery will be retried",
	CodeIPRestricted:      "server IP is not in the webhook allowlist; update the bot's IP whitelist",
	CodeInvalidCredential: "webhook key is invalid or expired; re-create the bot and update the supplier settings",
	CodeWebhookDisabled:   "webhook has been disabled in the group chat; re-enable the bot",
}

// terminal codes cannot succeed on retry within this call.
var terminalCodes = map[int]bool{
	CodeIPRestricted:      true,
	CodeInvalidCredential: true,
	CodeWebhookDisabled:   true,
}

// Response is the provider's reply payload. errcode 0 is the only success
// signal; HTTP 200 alone means nothing.
type Response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	MsgID   string `json:"msgid,omitempty"`
}

type markdownPayload struct {
	MsgType  string          `json:"msgtype"`
	Markdown markdownContent `json:"markdown"`
}

type markdownContent struct {
	Content string `json:"content"`
}

// Result reports one full delivery sequence, retries included.
type Result struct {
	Success      bool
	Attempts     int
	Response     *Response
	RawBody      string
	ErrorMessage string
}

// Describe maps a provider error code to an operator-readable message,
// falling back to the provider's own text for unrecognized codes.
func Describe(code int, errMsg string) string {
	if msg, ok := knownErrors[code]; ok {
		return msg
	}
	return fmt.Sprintf("provider error %d: %s", code, errMsg)
}

// IsTerminal reports whether a provider error code cannot succeed on retry.
func IsTerminal(code int) bool {
	return terminalCodes[code]
}

type Client struct {
	httpClient  *resty.Client
	maxAttempts int
	baseDelay   time.Duration
}

func NewClient(cfg environments.ProviderConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient:  client,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.RetryBaseDelay,
	}
}

// SendMarkdown delivers one rendered message to a supplier webhook.
func (c *Client) SendMarkdown(ctx context.Context, webhookURL, content string) Result {
	payload := markdownPayload{
		MsgType:  "markdown",
		Markdown: markdownContent{Content: content},
	}

	result := Result{}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result.Attempts = attempt

		retryable, done := c.attempt(ctx, webhookURL, payload, &result)
		if done {
			return result
		}
		if !retryable || attempt == c.maxAttempts {
			return result
		}

		// Linear backoff: 1x, 2x, 3x the base delay.
		wait := time.Duration(attempt) * c.baseDelay
		logger.Warnf("Delivery attempt %d/%d failed (%s), retrying in %v",
			attempt, c.maxAttempts, result.ErrorMessage, wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			result.ErrorMessage = ctx.Err().Error()
			return result
		}
	}

	return result
}

// attempt performs one POST. done=true means the sequence is finished
// (success or terminal failure); otherwise retryable says whether another
// attempt makes sense.
func (c *Client) attempt(ctx context.Context, url string, payload markdownPayload, result *Result) (retryable, done bool) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("request failed: %v", err)
		return true, false
	}

	result.RawBody = resp.String()

	if resp.StatusCode() >= 500 {
		result.ErrorMessage = fmt.Sprintf("provider returned status %d", resp.StatusCode())
		return true, false
	}

	var providerResp Response
	if err := json.Unmarshal(resp.Body(), &providerResp); err != nil {
		result.ErrorMessage = fmt.Sprintf("unreadable provider response (status %d)", resp.StatusCode())
		return false, false
	}
	result.Response = &providerResp

	if providerResp.ErrCode == CodeOK {
		result.Success = true
		result.ErrorMessage = ""
		return false, true
	}

	result.ErrorMessage = Describe(providerResp.ErrCode, providerResp.ErrMsg)
	if IsTerminal(providerResp.ErrCode) {
		return false, true
	}
	return true, false
}
