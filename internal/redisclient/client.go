package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Session holds the customer identity resolved from a session token.
type Session struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

// GetSession resolves a session token to a customer session, or nil if the
// token is unknown or expired.
func (c *Client) GetSession(ctx context.Context, token string) (*Session, error) {
	val, err := c.rdb.Get(ctx, "session:"+token).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("malformed session payload: %w", err)
	}
	return &sess, nil
}

// MarkEventSeen atomically records a webhook event id, returning false if it
// was already recorded. The TTL bounds the dedup window.
func (c *Client) MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, "webhook:event:"+eventID, "1", ttl).Result()
}

// UnmarkEventSeen drops a dedup marker so the provider's retry is processed.
func (c *Client) UnmarkEventSeen(ctx context.Context, eventID string) error {
	return c.rdb.Del(ctx, "webhook:event:"+eventID).Err()
}

// CacheRates stores a serialized shipping-rate response under a request hash.
func (c *Client) CacheRates(ctx context.Context, key string, rates interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(rates)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, "rates:"+key, payload, ttl).Err()
}

// GetCachedRates loads a cached shipping-rate response into dest, reporting
// whether the key was present.
func (c *Client) GetCachedRates(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.rdb.Get(ctx, "rates:"+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}
