package probes

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/healthwatch/health"
)

// RedisClient is the subset of *redis.Client the probe uses.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Info(ctx context.Context, section ...string) *redis.StringCmd
}

// Redis checks a Redis server and reports its keyspace hit rate.
type Redis struct {
	component string
	client    RedisClient
}

// NewRedis creates a probe for client.
func NewRedis(component string, client RedisClient) *Redis {
	if component == "" {
		component = "cache"
	}
	return &Redis{component: component, client: client}
}

// Name returns the component name.
func (r *Redis) Name() string { return r.component }

// Check pings the server and samples INFO stats.
func (r *Redis) Check(ctx context.Context) health.CheckResult {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return health.Critical("redis ping failed", err)
	}

	info, err := r.client.Info(ctx, "stats").Result()
	if err != nil {
		return health.Warning("redis reachable, stats unavailable: " + err.Error())
	}

	stats := parseInfo(info)
	hits, okHits := stats["keyspace_hits"]
	misses, okMisses := stats["keyspace_misses"]

	result := health.Healthy("redis reachable").WithDetails(map[string]any{
		"keyspace_hits":   hits,
		"keyspace_misses": misses,
	})
	if okHits && okMisses && hits+misses > 0 {
		result = result.WithMetric(MetricHitRatePercent, hits/(hits+misses)*100)
	}
	return result
}

// parseInfo extracts numeric fields from an INFO reply.
func parseInfo(info string) map[string]float64 {
	out := make(map[string]float64)
	sc := bufio.NewScanner(strings.NewReader(info))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			out[key] = v
		}
	}
	return out
}
