// Package redisdirectory is the primary directory.Gateway implementation:
// users, groups and their memberships live in Redis hashes and sets, with
// WATCH/MULTI guarding the id-allocation and uniqueness invariants the
// coherence layer relies on (spec §4.3, §7). It also owns the pub/sub
// notifier a second cache node subscribes to in order to repair its local
// state after a write made on this node (spec's "outside notification
// path").
package redisdirectory

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Config holds the Redis connection parameters, matching the shape of the
// teacher's pkg/cache/redis.Config.
type Config struct {
	Host     string
	Port     string
	Database int
	Username string
	Password string

	// KeyPrefix namespaces every key this Gateway touches, so one Redis
	// instance can back multiple deployments without collision.
	KeyPrefix string

	// NotifyChannel is the pub/sub channel cross-node cache-repair events
	// are published to. Defaults to "<KeyPrefix>:events".
	NotifyChannel string
}

func (c Config) withDefaults() Config {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "dircache"
	}
	if c.NotifyChannel == "" {
		c.NotifyChannel = c.KeyPrefix + ":events"
	}
	return c
}

// Gateway is a directory.Gateway backed by Redis.
type Gateway struct {
	client redis.UniversalClient
	cfg    Config
}

// New dials Redis and instruments the client with OpenTelemetry tracing and
// metrics, exactly as the teacher's pkg/cache/redis.NewCache does.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	cfg = cfg.withDefaults()

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("redisdirectory: instrument tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		return nil, fmt.Errorf("redisdirectory: instrument metrics: %w", err)
	}

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redisdirectory: ping: %w", err)
	}

	return &Gateway{client: client, cfg: cfg}, nil
}

// NewWithClient wraps an already-constructed client, the entry point
// directory_test.go uses to point a Gateway at a miniredis instance.
func NewWithClient(client redis.UniversalClient, cfg Config) *Gateway {
	cfg = cfg.withDefaults()
	return &Gateway{client: client, cfg: cfg}
}

// Close releases the underlying connection pool.
func (g *Gateway) Close() error {
	return g.client.Close()
}

func (g *Gateway) key(parts ...string) string {
	key := g.cfg.KeyPrefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (g *Gateway) usersByNameKey() string         { return g.key("users", "byname") }
func (g *Gateway) usersByIDKey() string           { return g.key("users", "byid") }
func (g *Gateway) usersCounterKey() string        { return g.key("users", "counter") }
func (g *Gateway) groupsByNameKey() string        { return g.key("groups", "byname") }
func (g *Gateway) groupsByIDKey() string          { return g.key("groups", "byid") }
func (g *Gateway) groupsCounterKey() string       { return g.key("groups", "counter") }
func (g *Gateway) userGroupsKey(id string) string { return g.key("membership", "user", id) }
func (g *Gateway) groupUsersKey(id string) string { return g.key("membership", "group", id) }
