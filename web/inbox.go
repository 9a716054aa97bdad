package web

import (
	"net/http"

	"github.com/deemkeen/mammut/domain"
	"github.com/gin-gonic/gin"
)

// HandleInbox accepts a typed delivery from an authenticated peer node and
// feeds it through the ingestion pipeline. Repeated deliveries of posts,
// follows and likes come back 200 instead of 201.
func (s *Server) HandleInbox(c *gin.Context) {
	target, err := s.lookupAuthor(c.Param("author"))
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	env, err := domain.ParseEnvelope(body)
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := s.pipeline.Deliver(target, env)
	if err != nil {
		respondError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"type": env.Type, "created": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": env.Type, "created": false})
}
