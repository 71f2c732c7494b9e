package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "IPFS_GATEWAY_URL", "QUEUE_WORKERS", "JOB_MAX_ATTEMPTS", "RATE_LIMIT_REQUESTS"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if cfg.IPFSGatewayURL != "https://ipfs.io/ipfs" {
		t.Fatalf("IPFSGatewayURL = %s", cfg.IPFSGatewayURL)
	}
	if cfg.QueueWorkers != 3 || cfg.JobMaxAttempts != 3 {
		t.Fatalf("queue defaults = %d workers, %d attempts", cfg.QueueWorkers, cfg.JobMaxAttempts)
	}
	if cfg.RetryBaseDelay() != 2*time.Second {
		t.Fatalf("RetryBaseDelay = %v", cfg.RetryBaseDelay())
	}
	if cfg.FetchTimeout() != 15*time.Second || cfg.RPCTimeout() != 10*time.Second {
		t.Fatalf("timeouts = %v, %v", cfg.FetchTimeout(), cfg.RPCTimeout())
	}
	if cfg.RateLimitRequests != 0 {
		t.Fatal("rate limiting should be off by default")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("QUEUE_WORKERS", "5")
	t.Setenv("JOB_RETRY_BASE_SECONDS", "1")
	t.Setenv("RATE_LIMIT_FAIL_CLOSED", "true")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if cfg.QueueWorkers != 5 {
		t.Fatalf("QueueWorkers = %d", cfg.QueueWorkers)
	}
	if cfg.RetryBaseDelay() != time.Second {
		t.Fatalf("RetryBaseDelay = %v", cfg.RetryBaseDelay())
	}
	if !cfg.RateLimitFailClosed {
		t.Fatal("RateLimitFailClosed not parsed")
	}
}

func TestFromEnv_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("QUEUE_WORKERS", "lots")
	t.Setenv("JOB_MAX_ATTEMPTS", "-2")

	cfg := FromEnv()
	if cfg.QueueWorkers != 3 {
		t.Fatalf("QueueWorkers = %d, want default", cfg.QueueWorkers)
	}
	if cfg.JobMaxAttempts != 3 {
		t.Fatalf("JobMaxAttempts = %d, want default", cfg.JobMaxAttempts)
	}
}

func TestParseChainTargets(t *testing.T) {
	cfg := Config{ChainTargets: "1=0xEth@https://rpc.eth, 137=0xPoly@https://rpc.poly,8453=0xBase"}

	targets := cfg.ParseChainTargets()
	if len(targets) != 3 {
		t.Fatalf("targets = %d, want 3", len(targets))
	}
	if targets[0].ChainID != 1 || targets[0].RegistryAddress != "0xEth" || targets[0].RPCURL != "https://rpc.eth" {
		t.Fatalf("first target = %+v", targets[0])
	}
	if targets[1].ChainID != 137 {
		t.Fatalf("order not preserved: %+v", targets[1])
	}
	// No rpc url: listed but unqueryable.
	if targets[2].RPCURL != "" || targets[2].Configured() {
		t.Fatalf("third target = %+v, want unconfigured", targets[2])
	}
}

func TestParseChainTargets_SkipsMalformedEntries(t *testing.T) {
	cfg := Config{ChainTargets: "notanumber=0xA@rpc,=0xB@rpc,10=0xC@rpc,,"}

	targets := cfg.ParseChainTargets()
	if len(targets) != 1 {
		t.Fatalf("targets = %+v, want only the valid entry", targets)
	}
	if targets[0].ChainID != 10 {
		t.Fatalf("target = %+v", targets[0])
	}
}

func TestParseChainTargets_Empty(t *testing.T) {
	if targets := (Config{}).ParseChainTargets(); targets != nil {
		t.Fatalf("targets = %+v, want nil", targets)
	}
}
