package web

import (
	"net/http"

	"github.com/deemkeen/mammut/domain"
	"github.com/deemkeen/mammut/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type signupRequest struct {
	Username     string `json:"username" binding:"required"`
	DisplayName  string `json:"displayName"`
	Github       string `json:"github"`
	ProfileImage string `json:"profileImage"`
}

type profileRequest struct {
	DisplayName  string `json:"displayName"`
	Github       string `json:"github"`
	ProfileImage string `json:"profileImage"`
}

// HandleSignup creates a local author. The id is allocated and the fqid
// computed before anything is written, then the row is persisted once.
func (s *Server) HandleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	author := domain.NewLocalAuthor(s.conf.ApiBase(), req.Username, req.DisplayName)
	author.Github = req.Github
	author.ProfileImage = req.ProfileImage
	author.ApiToken = util.RandomString(40)

	if err := s.db.CreateAuthor(author); err != nil {
		respondError(c, err)
		return
	}

	view := toAuthorView(author)
	c.JSON(http.StatusCreated, gin.H{
		"type":        view.Type,
		"id":          view.Id,
		"host":        view.Host,
		"displayName": view.DisplayName,
		"page":        view.Page,
		"apiToken":    author.ApiToken,
	})
}

func (s *Server) HandleListAuthors(c *gin.Context) {
	pageNo, size := s.pageParams(c)
	err, authors := s.db.ReadAllAuthors(size, (pageNo-1)*size)
	if err != nil {
		respondError(c, err)
		return
	}
	err, count := s.db.CountAuthors()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.paginate(c, count, pageNo, size, toAuthorViews(authors)))
}

func (s *Server) HandleGetAuthor(c *gin.Context) {
	author, err := s.lookupAuthor(c.Param("author"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuthorView(author))
}

// HandleUpdateProfile lets an author edit their own profile fields. The
// fqid and username are immutable.
func (s *Server) HandleUpdateProfile(c *gin.Context) {
	author, err := s.lookupAuthor(c.Param("author"))
	if err != nil {
		respondError(c, err)
		return
	}
	caller := c.MustGet(ctxAuthor).(*domain.Author)
	if caller.Id != author.Id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your profile"})
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile payload"})
		return
	}
	author.DisplayName = req.DisplayName
	author.Github = req.Github
	author.ProfileImage = req.ProfileImage
	if err := s.db.UpdateAuthorProfile(author); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuthorView(author))
}

// lookupAuthor resolves a path segment that is either a local author id or
// a username.
func (s *Server) lookupAuthor(param string) (*domain.Author, error) {
	if id, err := uuid.Parse(param); err == nil {
		err, author := s.db.ReadAuthorById(id)
		return author, err
	}
	err, author := s.db.ReadAuthorByUsername(param)
	return author, err
}
