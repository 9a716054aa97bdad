package web

import (
	"net/http"

	"github.com/deemkeen/mammut/domain"
	"github.com/gin-gonic/gin"
)

// HandleStream serves the authenticated author's home stream: posts by
// others, scoped to what the relationship graph lets them see.
func (s *Server) HandleStream(c *gin.Context) {
	viewer := c.MustGet(ctxAuthor).(*domain.Author)
	pageNo, size := s.pageParams(c)

	posts, count, err := s.assembler.AssembleStream(viewer, true, pageNo, size)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := s.toPostViews(posts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.paginate(c, count, pageNo, size, views))
}

// HandlePublicPosts serves the node-wide public feed. This is also the
// endpoint peers page through during pull sync.
func (s *Server) HandlePublicPosts(c *gin.Context) {
	pageNo, size := s.pageParams(c)

	posts, count, err := s.assembler.AssembleStream(nil, false, pageNo, size)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := s.toPostViews(posts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.paginate(c, count, pageNo, size, views))
}

// HandleAuthorPosts lists one author's posts through the visibility ladder:
// owner sees all live posts, friends add FRIENDS, followers add UNLISTED,
// everyone else gets PUBLIC only.
func (s *Server) HandleAuthorPosts(c *gin.Context) {
	author, err := s.lookupAuthor(c.Param("author"))
	if err != nil {
		respondError(c, err)
		return
	}
	pageNo, size := s.pageParams(c)

	posts, err := s.assembler.AssembleAuthorFeed(s.viewer(c), author, pageNo, size)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := s.toPostViews(posts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "posts", "posts": views})
}
