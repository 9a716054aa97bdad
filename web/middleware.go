package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/deemkeen/mammut/domain"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	ctxAuthor = "author"
	ctxNode   = "node"
)

// RateLimiter holds rate limiters for different IP addresses
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
// r is requests per second, b is burst size
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = limiter
	}

	return limiter
}

// cleanupOldLimiters keeps the per-IP map from growing without bound.
func (rl *RateLimiter) cleanupOldLimiters() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		if len(rl.limiters) > 10000 {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware creates a Gin middleware for rate limiting
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	go rl.cleanupOldLimiters()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := rl.getLimiter(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// MaxBytesMiddleware limits the size of request bodies
func MaxBytesMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
			})
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// NodeAuthMiddleware authenticates a federation peer via Basic credentials
// stored in the node registry.
func (s *Server) NodeAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="mammut"`)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Node credentials required"})
			c.Abort()
			return
		}
		node, err := s.registry.VerifyNodeCredentials(username, password)
		if err != nil {
			node = s.sharedNodeCredentials(username, password)
		}
		if node == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid node credentials"})
			c.Abort()
			return
		}
		c.Set(ctxNode, node)
		c.Next()
	}
}

// sharedNodeCredentials checks the node-wide credentials from the config,
// the ones this node hands out to a peer before it has its own registry
// row. Returns a synthetic record without a URL on match.
func (s *Server) sharedNodeCredentials(username, password string) *domain.RemoteNode {
	confUser := s.conf.Conf.NodeUsername
	confPass := s.conf.Conf.NodePassword
	if confUser == "" || confPass == "" {
		return nil
	}
	userOk := subtle.ConstantTimeCompare([]byte(username), []byte(confUser)) == 1
	passOk := subtle.ConstantTimeCompare([]byte(password), []byte(confPass)) == 1
	if !userOk || !passOk {
		return nil
	}
	return &domain.RemoteNode{Username: confUser, Active: true}
}

// AuthorAuthMiddleware authenticates a local author by api token.
func (s *Server) AuthorAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		author := s.viewer(c)
		if author == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Author token required"})
			c.Abort()
			return
		}
		c.Set(ctxAuthor, author)
		c.Next()
	}
}

// AdminAuthMiddleware gates administrative endpoints behind the configured
// admin token.
func (s *Server) AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")
		if token == "" || token != s.conf.Conf.AdminToken {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin token required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	for _, scheme := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimPrefix(header, scheme)
		}
	}
	return ""
}
