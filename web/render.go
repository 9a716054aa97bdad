package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/deemkeen/mammut/domain"
	"github.com/gin-gonic/gin"
)

// authorView is the wire representation of an author, local or shadow.
type authorView struct {
	Type         string `json:"type"`
	Id           string `json:"id"`
	Host         string `json:"host"`
	DisplayName  string `json:"displayName"`
	Github       string `json:"github,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	Page         string `json:"page"`
}

type postView struct {
	Type        string     `json:"type"`
	Id          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ContentType string     `json:"contentType"`
	Content     string     `json:"content"`
	Author      authorView `json:"author"`
	Visibility  string     `json:"visibility"`
	Published   string     `json:"published"`
	Shared      bool       `json:"shared"`
}

type commentView struct {
	Type        string     `json:"type"`
	Id          string     `json:"id"`
	Author      authorView `json:"author"`
	Comment     string     `json:"comment"`
	ContentType string     `json:"contentType"`
	Post        string     `json:"post"`
	Published   string     `json:"published"`
}

type likeView struct {
	Type      string     `json:"type"`
	Id        string     `json:"id"`
	Author    authorView `json:"author"`
	Object    string     `json:"object"`
	Published string     `json:"published"`
}

// page is the common list envelope: total count plus absolute links to the
// neighbouring pages.
type page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func toAuthorView(a *domain.Author) authorView {
	return authorView{
		Type:         "author",
		Id:           a.Fqid,
		Host:         a.Host,
		DisplayName:  a.DisplayName,
		Github:       a.Github,
		ProfileImage: a.ProfileImage,
		Page:         a.Page,
	}
}

func (s *Server) toPostView(p *domain.Post) (postView, error) {
	err, author := s.db.ReadAuthorById(p.AuthorId)
	if err != nil {
		return postView{}, err
	}
	return postView{
		Type:        "post",
		Id:          p.Fqid,
		Title:       p.Title,
		Description: p.Description,
		ContentType: p.ContentType,
		Content:     p.Content,
		Author:      toAuthorView(author),
		Visibility:  p.Visibility,
		Published:   p.Published.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Shared:      p.IsShared,
	}, nil
}

func (s *Server) toPostViews(posts *[]domain.Post) ([]postView, error) {
	views := make([]postView, 0, len(*posts))
	for i := range *posts {
		v, err := s.toPostView(&(*posts)[i])
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func toAuthorViews(authors *[]domain.Author) []authorView {
	views := make([]authorView, 0, len(*authors))
	for i := range *authors {
		views = append(views, toAuthorView(&(*authors)[i]))
	}
	return views
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAuth):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPeerUnreachable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("Web: Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// pageParams reads ?page and ?size with the configured defaults.
func (s *Server) pageParams(c *gin.Context) (int, int) {
	pageNo, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || pageNo < 1 {
		pageNo = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(s.conf.Conf.PageSize)))
	if err != nil || size < 1 || size > 100 {
		size = s.conf.Conf.PageSize
	}
	return pageNo, size
}

func (s *Server) paginate(c *gin.Context, count, pageNo, size int, results any) page {
	base := fmt.Sprintf("%s%s", s.conf.ApiBase(), c.Request.URL.Path[len("/api/"):])
	link := func(p int) *string {
		u := fmt.Sprintf("%s?page=%d&size=%d", base, p, size)
		return &u
	}
	out := page{Count: count, Results: results}
	if pageNo*size < count {
		out.Next = link(pageNo + 1)
	}
	if pageNo > 1 {
		out.Previous = link(pageNo - 1)
	}
	return out
}

// viewer resolves the optional author token on a request; nil means an
// anonymous or peer caller.
func (s *Server) viewer(c *gin.Context) *domain.Author {
	token := bearerToken(c)
	if token == "" {
		return nil
	}
	err, author := s.db.ReadAuthorByToken(token)
	if err != nil {
		return nil
	}
	return author
}
