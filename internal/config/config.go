package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"provenant/internal/domain"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RPCURL          string
	RegistryAddress string
	ChainTargets    string
	RPCTimeoutSecs  int

	IPFSGatewayURL   string
	FetchTimeoutSecs int

	QueueWorkers          int
	JobMaxAttempts        int
	JobRetryBaseSecs      int
	JobRetainCompletedMin int
	JobRetainFailedMin    int

	BindingCacheTTLSecs  int
	ManifestCacheTTLSecs int

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		RPCURL:                 os.Getenv("RPC_URL"),
		RegistryAddress:        os.Getenv("REGISTRY_ADDRESS"),
		ChainTargets:           os.Getenv("CHAIN_TARGETS"),
		RPCTimeoutSecs:         envIntDefault("RPC_TIMEOUT_SECONDS", 10),
		IPFSGatewayURL:         envDefault("IPFS_GATEWAY_URL", "https://ipfs.io/ipfs"),
		FetchTimeoutSecs:       envIntDefault("FETCH_TIMEOUT_SECONDS", 15),
		QueueWorkers:           envIntDefault("QUEUE_WORKERS", 3),
		JobMaxAttempts:         envIntDefault("JOB_MAX_ATTEMPTS", 3),
		JobRetryBaseSecs:       envIntDefault("JOB_RETRY_BASE_SECONDS", 2),
		JobRetainCompletedMin:  envIntDefault("JOB_RETAIN_COMPLETED_MINUTES", 60),
		JobRetainFailedMin:     envIntDefault("JOB_RETAIN_FAILED_MINUTES", 1440),
		BindingCacheTTLSecs:    envIntDefault("BINDING_CACHE_TTL_SECONDS", 300),
		ManifestCacheTTLSecs:   envIntDefault("MANIFEST_CACHE_TTL_SECONDS", 300),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

func (c Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSecs) * time.Second
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.JobRetryBaseSecs) * time.Second
}

func (c Config) CompletedRetention() time.Duration {
	return time.Duration(c.JobRetainCompletedMin) * time.Minute
}

func (c Config) FailedRetention() time.Duration {
	return time.Duration(c.JobRetainFailedMin) * time.Minute
}

func (c Config) BindingCacheTTL() time.Duration {
	return time.Duration(c.BindingCacheTTLSecs) * time.Second
}

func (c Config) ManifestCacheTTL() time.Duration {
	return time.Duration(c.ManifestCacheTTLSecs) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// ParseChainTargets parses the ordered cross-chain table from
// CHAIN_TARGETS: comma-separated "chainId=registryAddress@rpcUrl" entries,
// highest priority first. Entries without an rpc url are kept in the table
// but skipped at resolution time.
func (c Config) ParseChainTargets() []domain.ChainTarget {
	raw := strings.TrimSpace(c.ChainTargets)
	if raw == "" {
		return nil
	}
	var targets []domain.ChainTarget
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.Index(part, "=")
		if eq <= 0 {
			continue
		}
		chainID, err := strconv.ParseInt(part[:eq], 10, 64)
		if err != nil {
			continue
		}
		rest := part[eq+1:]
		registry := rest
		rpcURL := ""
		if at := strings.Index(rest, "@"); at >= 0 {
			registry = rest[:at]
			rpcURL = rest[at+1:]
		}
		targets = append(targets, domain.ChainTarget{
			ChainID:         chainID,
			RegistryAddress: registry,
			RPCURL:          rpcURL,
		})
	}
	return targets
}
