package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/config"
)

// redisTopology selects which go-redis client backs the queue.
type redisTopology string

const (
	redisDirect   redisTopology = "direct"
	redisSentinel redisTopology = "sentinel"
	redisCluster  redisTopology = "cluster"
)

// ConnectRedis builds the queue's Redis client for the configured topology and
// pings it before returning.
//
//nolint:ireturn // the topology decides between single, failover and cluster clients.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	topo, opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := newRedisClient(topo, opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis (%s): %w", describeRedis(topo, opts), pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected", "topology", string(topo), "addr", describeRedis(topo, opts))
	}
	return client, nil
}

// redisOptions resolves the configuration into one set of universal options.
func redisOptions(cfg config.RedisConfig) (redisTopology, *redis.UniversalOptions, error) {
	switch {
	case cfg.UseCluster:
		opts, err := clusterOptions(cfg)
		return redisCluster, opts, err
	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return redisSentinel, nil, errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return redisSentinel, &redis.UniversalOptions{
			Addrs:            nodes,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		}, nil
	default:
		opts, err := directOptions(cfg)
		return redisDirect, opts, err
	}
}

func directOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	target := strings.TrimSpace(cfg.URI)
	if target == "" {
		host := strings.TrimSpace(cfg.Host)
		if host == "" {
			return nil, errors.New("redis direct configuration requires a URI or host")
		}
		target = net.JoinHostPort(host, strconv.Itoa(cfg.Port))
	}
	if !isRedisURL(target) {
		return &redis.UniversalOptions{Addrs: []string{target}, Password: cfg.Password, DB: cfg.DB}, nil
	}

	parsed, err := redis.ParseURL(target)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &redis.UniversalOptions{
		Addrs:     []string{parsed.Addr},
		Username:  parsed.Username,
		Password:  firstNonEmpty(parsed.Password, cfg.Password),
		DB:        parsed.DB,
		TLSConfig: parsed.TLSConfig,
	}, nil
}

// clusterOptions uses CLUSTER_NODES, falling back to the single seed in URI.
func clusterOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	if nodes := normalizeAddrs(cfg.ClusterNodes); len(nodes) > 0 {
		return &redis.UniversalOptions{Addrs: nodes, Password: cfg.Password}, nil
	}

	seed := strings.TrimSpace(cfg.URI)
	if seed == "" {
		return nil, errors.New("redis cluster configuration requires at least one address")
	}
	if !isRedisURL(seed) {
		return &redis.UniversalOptions{Addrs: []string{seed}, Password: cfg.Password}, nil
	}
	parsed, err := redis.ParseURL(seed)
	if err != nil {
		return nil, fmt.Errorf("parse redis cluster url: %w", err)
	}
	return &redis.UniversalOptions{
		Addrs:     []string{parsed.Addr},
		Username:  parsed.Username,
		Password:  firstNonEmpty(parsed.Password, cfg.Password),
		TLSConfig: parsed.TLSConfig,
	}, nil
}

//nolint:ireturn // see ConnectRedis.
func newRedisClient(topo redisTopology, opts *redis.UniversalOptions) redis.UniversalClient {
	switch topo {
	case redisCluster:
		return redis.NewClusterClient(opts.Cluster())
	case redisSentinel:
		return redis.NewFailoverClient(opts.Failover())
	default:
		return redis.NewClient(opts.Simple())
	}
}

// describeRedis names the endpoint for logs; credentials are never part of it.
func describeRedis(topo redisTopology, opts *redis.UniversalOptions) string {
	if topo == redisSentinel {
		return opts.MasterName + "@" + strings.Join(opts.Addrs, ",")
	}
	return strings.Join(opts.Addrs, ",")
}

func normalizeAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
