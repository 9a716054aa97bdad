package web

import (
	"fmt"
	"log"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Router wires up the HTTP surface and blocks serving it.
func Router(s *Server) error {
	log.Printf("Starting HTTP server on %s:%d", s.conf.Conf.Host, s.conf.Conf.HttpPort)
	g := NewRouter(s)
	return g.Run(fmt.Sprintf("%s:%d", s.conf.Conf.Host, s.conf.Conf.HttpPort))
}

// NewRouter builds the gin engine without starting it, which is what the
// tests use.
func NewRouter(s *Server) *gin.Engine {
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Stricter rate limit for federation endpoints: 5 req/sec per IP
	fedLimiter := NewRateLimiter(rate.Limit(5), 10)

	// Max 1MB request body size for inbox deliveries
	maxBodySize := MaxBytesMiddleware(1 * 1024 * 1024)

	nodeAuth := s.NodeAuthMiddleware()
	authorAuth := s.AuthorAuthMiddleware()
	adminAuth := s.AdminAuthMiddleware()

	// RSS feed
	g.GET("/feed", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")
		rss, err := s.GetRSS(c.Query("username"))
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	g.GET("/feed/:id", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")
		feedId, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Render(404, render.String{Format: ""})
			return
		}
		rssItem, err := s.GetRSSItem(feedId)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rssItem})
		}
	})

	api := g.Group("/api")
	{
		// Peer handshake
		api.POST("/login/", nodeAuth, s.HandleNodeLogin)

		// Node-wide public feed, also paged by peers during sync
		api.GET("/posts/", s.HandlePublicPosts)

		// Authors
		api.POST("/authors/", adminAuth, s.HandleSignup)
		api.GET("/authors/", s.HandleListAuthors)
		api.GET("/authors/:author", s.HandleGetAuthor)
		api.PUT("/authors/:author", authorAuth, s.HandleUpdateProfile)

		// Inbox, peers only
		api.POST("/authors/:author/inbox", nodeAuth, RateLimitMiddleware(fedLimiter), maxBodySize, s.HandleInbox)

		// Posts
		api.GET("/authors/:author/posts/", s.HandleAuthorPosts)
		api.POST("/authors/:author/posts/", authorAuth, s.HandleCreatePost)
		api.GET("/authors/:author/posts/:post", s.HandleGetPost)
		api.PUT("/authors/:author/posts/:post", authorAuth, s.HandleUpdatePost)
		api.DELETE("/authors/:author/posts/:post", authorAuth, s.HandleDeletePost)
		api.POST("/authors/:author/posts/:post/share", authorAuth, s.HandleSharePost)
		api.POST("/authors/:author/github", authorAuth, s.HandleGithubActivity)

		// Comments and likes
		api.GET("/authors/:author/posts/:post/comments", s.HandleListComments)
		api.POST("/authors/:author/posts/:post/comments", authorAuth, s.HandleCreateComment)
		api.GET("/authors/:author/posts/:post/likes", s.HandleListLikes)
		api.POST("/authors/:author/posts/:post/likes", authorAuth, s.HandleCreateLike)

		// Relationship graph
		api.GET("/authors/:author/followers", s.HandleListFollowers)
		api.GET("/authors/:author/following", s.HandleListFollowing)
		api.GET("/authors/:author/friends", s.HandleListFriends)
		api.GET("/authors/:author/follow-requests", authorAuth, s.HandleListFollowRequests)
		api.POST("/authors/:author/followers", authorAuth, s.HandleRequestFollow)
		api.PUT("/authors/:author/followers/:follower", authorAuth, s.HandleAcceptFollow)
		api.DELETE("/authors/:author/followers/:follower", authorAuth, s.HandleRemoveFollow)

		// Stream
		api.GET("/stream/", authorAuth, s.HandleStream)

		// Node registry, admin only
		api.GET("/nodes/", adminAuth, s.HandleListNodes)
		api.POST("/nodes/", adminAuth, s.HandleRegisterNode)
		api.PUT("/nodes/", adminAuth, s.HandleSetNodeActive)
		api.POST("/nodes/sync", adminAuth, s.HandleSync)
	}

	return g
}
