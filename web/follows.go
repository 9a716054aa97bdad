package web

import (
	"net/http"

	"github.com/deemkeen/mammut/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HandleRequestFollow lets the authenticated author ask to follow :author.
// Asking twice changes nothing and reports 200 instead of 201.
func (s *Server) HandleRequestFollow(c *gin.Context) {
	follower := c.MustGet(ctxAuthor).(*domain.Author)
	target, err := s.lookupAuthor(c.Param("author"))
	if err != nil {
		respondError(c, err)
		return
	}

	follow, created, err := s.graph.RequestFollow(target.Id, follower.Id)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"type": "follow", "status": follow.Status})
}

// HandleAcceptFollow promotes a pending request. Only the followed author
// may accept, and accepting twice is a 404 because nothing is pending.
func (s *Server) HandleAcceptFollow(c *gin.Context) {
	target := c.MustGet(ctxAuthor).(*domain.Author)
	follower, err := s.lookupAuthor(c.Param("follower"))
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Param("author") != target.Id.String() && c.Param("author") != target.Username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Can only accept your own follow requests"})
		return
	}
	if err := s.graph.AcceptFollow(target.Id, follower.Id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "follow", "status": domain.FollowAccepted})
}

// HandleRemoveFollow deletes a follow edge in either state. Removing it
// also ends any friendship built on it.
func (s *Server) HandleRemoveFollow(c *gin.Context) {
	target := c.MustGet(ctxAuthor).(*domain.Author)
	follower, err := s.lookupAuthor(c.Param("follower"))
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Param("author") != target.Id.String() && c.Param("author") != target.Username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Can only manage your own followers"})
		return
	}
	if err := s.graph.RemoveFollow(target.Id, follower.Id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) HandleListFollowers(c *gin.Context) {
	s.listRelated(c, s.graph.Followers, "followers")
}

func (s *Server) HandleListFollowing(c *gin.Context) {
	s.listRelated(c, s.graph.Following, "following")
}

func (s *Server) HandleListFriends(c *gin.Context) {
	s.listRelated(c, s.graph.FriendsOf, "friends")
}

func (s *Server) HandleListFollowRequests(c *gin.Context) {
	author, err := s.lookupAuthor(c.Param("author"))
	if err != nil {
		respondError(c, err)
		return
	}
	caller := c.MustGet(ctxAuthor).(*domain.Author)
	if caller.Id != author.Id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Can only view your own follow requests"})
		return
	}
	authors, err := s.graph.FollowRequests(author.Id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "authors", "authors": toAuthorViews(&authors)})
}

func (s *Server) listRelated(c *gin.Context, read func(uuid.UUID) ([]domain.Author, error), kind string) {
	author, err := s.lookupAuthor(c.Param("author"))
	if err != nil {
		respondError(c, err)
		return
	}
	authors, err := read(author.Id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": kind, kind: toAuthorViews(&authors)})
}
