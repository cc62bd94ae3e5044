// Package redis wraps a Valkey client used for two advisory concerns:
// deduplicating inbound provider message ids and suppressing repeat
// reminders. The service runs fine without it; callers must tolerate a nil
// client.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const (
	inboundDedupKeyPrefix = "inbound_msg:"
	inboundDedupTTL       = 7 * 24 * time.Hour

	reminderKeyPrefix = "reminder:"
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// MarkInboundSeen records a provider message id and reports whether it was
// already seen. The SET NX either claims the key (first delivery) or leaves
// it untouched (duplicate).
func (c *Client) MarkInboundSeen(ctx context.Context, providerMsgID string) (bool, error) {
	key := inboundDedupKeyPrefix + providerMsgID

	result := c.client.Do(ctx, c.client.B().Set().Key(key).Value("1").Nx().Ex(inboundDedupTTL).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			// NX did not set: the key already existed.
			return true, nil
		}
		return false, fmt.Errorf("failed to mark inbound message: %w", result.Error())
	}

	return false, nil
}

// MarkReminderSent suppresses repeat reminders of one kind to one order for
// the given cooldown. Returns true when a reminder was already sent inside
// the window.
func (c *Client) MarkReminderSent(ctx context.Context, orderID int64, kind string, cooldown time.Duration) (bool, error) {
	key := fmt.Sprintf("%s%d:%s", reminderKeyPrefix, orderID, kind)

	result := c.client.Do(ctx, c.client.B().Set().Key(key).Value("1").Nx().Ex(cooldown).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return true, nil
		}
		return false, fmt.Errorf("failed to mark reminder: %w", result.Error())
	}

	return false, nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
