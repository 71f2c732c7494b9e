package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"provenant/internal/config"
	"provenant/internal/domain"
	"provenant/internal/infra/cachemem"
	"provenant/internal/infra/cacheredis"
	"provenant/internal/infra/chain"
	"provenant/internal/infra/db"
	"provenant/internal/infra/hasher"
	"provenant/internal/infra/jobmem"
	"provenant/internal/infra/manifest"
	"provenant/internal/infra/queue"
	"provenant/internal/infra/ratelimit"
	"provenant/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	pipeline *queue.Pipeline
	ledger   usecase.Ledger
	resolver *usecase.CrossChainResolver

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.routes()
	return s
}

type ServerDeps struct {
	Pipeline    *queue.Pipeline
	Ledger      usecase.Ledger
	Resolver    *usecase.CrossChainResolver
	RateLimiter domain.RateLimiter
}

// NewServerWithDeps wires explicit collaborators; tests use it to drop in
// stubs without touching env config.
func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		r:        r,
		pipeline: deps.Pipeline,
		ledger:   deps.Ledger,
		resolver: deps.Resolver,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	hashSvc := hasher.Service{}
	fetcher := manifest.NewFetcher(s.cfg.IPFSGatewayURL, s.cfg.FetchTimeout())
	chainClient := chain.NewClient(s.cfg.RPCURL, s.cfg.RPCTimeout())

	var jobs queue.JobStore
	var ledger usecase.Ledger
	if s.store != nil && s.store.DB != nil {
		jobs = db.NewJobRepository(s.store.DB)
		ledger = db.NewLedgerRepository(s.store.DB)
	} else {
		jobs = jobmem.New()
	}

	var q queue.Queue
	var cache domain.KVCache
	if s.cfg.RedisAddr != "" {
		if redisQueue, err := queue.NewRedisQueue(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			pingErr := redisQueue.Ping(ctx)
			cancel()
			if pingErr == nil {
				q = redisQueue
				cache = cacheredis.NewWithClient(redisQueue.Client())
			} else {
				log.Printf("redis unreachable, running synchronous: %v", pingErr)
			}
		}
	}
	if cache == nil {
		cache = cachemem.New()
	}
	fetcher.Cache = cache
	fetcher.CacheTTL = s.cfg.ManifestCacheTTL()

	if targets := s.cfg.ParseChainTargets(); len(targets) > 0 {
		s.resolver = &usecase.CrossChainResolver{
			Targets:    targets,
			Registry:   chainClient,
			Cache:      cache,
			BindingTTL: s.cfg.BindingCacheTTL(),
		}
	}

	verifyUC := &usecase.VerifyContent{
		Hasher:   hashSvc,
		Fetcher:  fetcher,
		Signer:   chain.Recoverer{},
		Registry: chainClient,
		Resolver: s.resolver,
		Ledger:   ledger,
	}
	proofUC := &usecase.GenerateProof{
		Verify:   verifyUC,
		Registry: chainClient,
	}

	s.ledger = ledger
	s.pipeline = &queue.Pipeline{
		Queue:              q,
		Jobs:               jobs,
		Verify:             verifyUC,
		Proof:              proofUC,
		Workers:            s.cfg.QueueWorkers,
		MaxAttempts:        s.cfg.JobMaxAttempts,
		RetryBaseDelay:     s.cfg.RetryBaseDelay(),
		CompletedRetention: s.cfg.CompletedRetention(),
		FailedRetention:    s.cfg.FailedRetention(),
	}

	s.initRateLimit(nil)
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(s.cfg.RateLimitMaxKeys)
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

// Pipeline exposes the job pipeline so main can start the worker pool.
func (s *Server) Pipeline() *queue.Pipeline {
	return s.pipeline
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		queueMode := "sync"
		if s.pipeline != nil && s.pipeline.Async() {
			queueMode = "queued"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbMode, "queue": queueMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/verify", s.handleVerify)
		v1.POST("/proof", s.handleProof)
		v1.GET("/jobs/:job_id", s.handleJob)
		v1.GET("/resolve/:platform/:platform_id", s.handleResolveBinding)
		v1.GET("/history/:content_hash", s.handleHistory)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the gin engine for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.r
}
