// ABOUTME: Development REST backend implementing the admin API contract for every catalog resource
// ABOUTME: Gin router with CORS, request ids, zap request logs, Prometheus metrics and JWT auth
package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/models"
)

// Options configures a Server.
type Options struct {
	JWTSecret   []byte
	TokenTTL    time.Duration
	CORSOrigins []string
	Logger      *zap.Logger
	// BcryptCost overrides the hashing cost (tests use bcrypt.MinCost).
	BcryptCost int
	Now        func() time.Time
	// UploadDir holds avatar uploads served under /files.
	UploadDir string
}

// Server serves the REST contract over a SQLite record store.
type Server struct {
	records *db.RecordsRepository
	creds   *db.CredentialsRepository
	logger  *zap.Logger
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	origins []string
	uploads string

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	resetMu sync.Mutex
	resets  map[string]passwordReset
}

type passwordReset struct {
	userID  string
	expires time.Time
}

// New creates a server over an opened database.
func New(database *sql.DB, opts Options) (*Server, error) {
	if len(opts.JWTSecret) == 0 {
		return nil, errors.New("devserver: JWT secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UploadDir == "" {
		opts.UploadDir = filepath.Join(os.TempDir(), "bolha-uploads")
	}

	s := &Server{
		records:  db.NewRecordsRepository(database),
		creds:    db.NewCredentialsRepository(database, opts.BcryptCost),
		logger:   opts.Logger,
		secret:   opts.JWTSecret,
		ttl:      opts.TokenTTL,
		now:      opts.Now,
		origins:  opts.CORSOrigins,
		uploads:  opts.UploadDir,
		registry: prometheus.NewRegistry(),
		resets:   map[string]passwordReset{},
	}

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bolha_http_requests_total",
		Help: "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})
	s.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bolha_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	if err := s.registry.Register(s.requests); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := s.registry.Register(s.latency); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return s, nil
}

// Records exposes the record store (seeding).
func (s *Server) Records() *db.RecordsRepository { return s.records }

// Credentials exposes the credentials store (seeding).
func (s *Server) Credentials() *db.CredentialsRepository { return s.creds }

// Router builds the HTTP handler.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), s.accessLog(), s.metrics(), gin.Recovery(), s.corsMiddleware())

	if err := r.SetTrustedProxies(nil); err != nil {
		s.logger.Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "route not found")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	r.POST("/sessions", s.signIn)
	r.POST("/password/forgot", s.forgotPassword)
	r.POST("/password/reset", s.resetPassword)
	r.Static("/files", s.uploads)

	private := r.Group("/", s.requireAuth())
	private.GET("/users/profile", s.getProfile)
	private.PATCH("/users/profile", s.updateProfile)
	private.PATCH("/users/avatar", s.uploadAvatar)
	private.POST("/menu-options/all", s.allMenuOptions)
	private.POST("/users-security/get-menu", s.userMenu)

	for _, res := range models.Resources() {
		s.mountResource(private.Group("/"+res.Segment), res)
	}

	return r
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	allowAll := len(s.origins) == 0
	for _, o := range s.origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	return cors.New(cfg)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("dev server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// respondError writes the error envelope the console reads: {data: {name}}.
func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"data": gin.H{"name": msg}})
}
