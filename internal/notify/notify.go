// Package notify publishes dashboard refresh hints over Redis pub/sub.
// Subscribers (the dashboard frontend bridge, or any other listener) reload
// their views when a battle or the catalog changes.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/obslog"
)

// RefreshChannel carries refresh reasons as plain strings.
const RefreshChannel = "arena:refresh"

// Notifier is nil-safe: a nil Notifier drops every publish, so callers wire
// it unconditionally and running without Redis stays supported.
type Notifier struct {
	rdb *redis.Client
}

// New connects to Redis and pings it. An empty URL yields a nil Notifier.
func New(redisURL string) (*Notifier, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, nil
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Notifier{rdb: rdb}, nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends a refresh reason. Failures are logged, never surfaced; a
// missed refresh only delays the dashboard until its next poll.
func (n *Notifier) Publish(ctx context.Context, reason string) {
	if n == nil || n.rdb == nil {
		return
	}
	if err := n.rdb.Publish(ctx, RefreshChannel, reason).Err(); err != nil {
		obslog.L().Warn("notify_publish_failed",
			zap.String("reason", reason),
			zap.Error(err))
	}
}

func (n *Notifier) Close() error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Close()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
