package web

import (
	"net/http"

	"github.com/deemkeen/mammut/domain"
	"github.com/deemkeen/mammut/util"
	"github.com/gin-gonic/gin"
)

type nodeRequest struct {
	URL      string `json:"url" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type nodeView struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// HandleRegisterNode registers or re-credentials a federation peer. The
// peer must answer the handshake, an unreachable peer is rejected with 503
// and nothing is stored.
func (s *Server) HandleRegisterNode(c *gin.Context) {
	var req nodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url, username and password are required"})
		return
	}

	node, created, err := s.registry.RegisterOrUpdateNode(req.URL, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toNodeView(node))
}

func (s *Server) HandleListNodes(c *gin.Context) {
	err, nodes := s.db.ReadAllNodes()
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]nodeView, 0, len(*nodes))
	for i := range *nodes {
		views = append(views, toNodeView(&(*nodes)[i]))
	}
	c.JSON(http.StatusOK, gin.H{"type": "nodes", "nodes": views})
}

type nodeActiveRequest struct {
	URL    string `json:"url" binding:"required"`
	Active *bool  `json:"active" binding:"required"`
}

// HandleSetNodeActive flips a peer in or out of the federation without
// losing its credentials. Inactive peers fail auth and are skipped by sync.
func (s *Server) HandleSetNodeActive(c *gin.Context) {
	var req nodeActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and active are required"})
		return
	}
	err, node := s.db.ReadNodeByURL(req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.db.SetNodeActive(node.URL, *req.Active); err != nil {
		respondError(c, err)
		return
	}
	node.Active = *req.Active
	c.JSON(http.StatusOK, toNodeView(node))
}

// HandleSync pulls the public feed of every active peer once and reports
// the per-peer outcome.
func (s *Server) HandleSync(c *gin.Context) {
	outcomes, err := s.syncer.PullPublicPosts()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "sync", "nodes": outcomes})
}

// HandleNodeLogin answers a peer's handshake. A fresh advisory token is
// issued on every login.
func (s *Server) HandleNodeLogin(c *gin.Context) {
	node := c.MustGet(ctxNode).(*domain.RemoteNode)
	token := util.RandomString(32)
	// A peer on the shared node credentials has no registry row yet, its
	// token stays purely advisory.
	if node.URL != "" {
		if err := s.db.UpdateNodeToken(node.URL, token); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func toNodeView(n *domain.RemoteNode) nodeView {
	return nodeView{Type: "node", URL: n.URL, Username: n.Username, Active: n.Active}
}
