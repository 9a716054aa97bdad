package web

import (
	"fmt"
	"net/http"

	"github.com/deemkeen/mammut/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type postRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ContentType string `json:"contentType"`
	Content     string `json:"content" binding:"required"`
	Visibility  string `json:"visibility"`
}

type commentRequest struct {
	Comment     string `json:"comment" binding:"required"`
	ContentType string `json:"contentType"`
}

// HandleCreatePost creates a local post. Construction is two-phase: the id
// is allocated and the fqid computed up front, then the row is written once.
func (s *Server) HandleCreatePost(c *gin.Context) {
	author := c.MustGet(ctxAuthor).(*domain.Author)
	if c.Param("author") != author.Id.String() && c.Param("author") != author.Username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Can only post as yourself"})
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and content are required"})
		return
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	switch visibility {
	case domain.VisibilityPublic, domain.VisibilityUnlisted, domain.VisibilityFriends:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid visibility %q", visibility)})
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	post := domain.NewPost(author, req.Title, req.Description, contentType, req.Content, visibility)
	if err := s.db.CreatePost(post); err != nil {
		respondError(c, err)
		return
	}
	view, err := s.toPostView(post)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) HandleGetPost(c *gin.Context) {
	post, err := s.lookupPost(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.authorizePostRead(s.viewer(c), post); err != nil {
		respondError(c, err)
		return
	}
	view, err := s.toPostView(post)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) HandleUpdatePost(c *gin.Context) {
	post, err := s.ownPost(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and content are required"})
		return
	}
	post.Title = req.Title
	post.Description = req.Description
	post.Content = req.Content
	if req.ContentType != "" {
		post.ContentType = req.ContentType
	}
	if req.Visibility != "" {
		switch req.Visibility {
		case domain.VisibilityPublic, domain.VisibilityUnlisted, domain.VisibilityFriends:
			post.Visibility = req.Visibility
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid visibility %q", req.Visibility)})
			return
		}
	}
	if err := s.db.UpdatePost(post); err != nil {
		respondError(c, err)
		return
	}
	view, err := s.toPostView(post)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandleDeletePost tombstones a post. The row survives so the fqid stays
// claimed, but the post disappears from every listing. Shares of it are
// tombstoned along with it.
func (s *Server) HandleDeletePost(c *gin.Context) {
	post, err := s.ownPost(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.db.TombstonePost(post.Id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleSharePost re-publishes somebody's public post under the caller's
// identity. Only public posts are shareable and a share is always public.
func (s *Server) HandleSharePost(c *gin.Context) {
	author := c.MustGet(ctxAuthor).(*domain.Author)
	post, err := s.lookupPost(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if post.Visibility != domain.VisibilityPublic || post.IsDeleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only public posts can be shared"})
		return
	}

	share := domain.NewSharedPost(author, post)
	if err := s.db.CreatePost(share); err != nil {
		respondError(c, err)
		return
	}
	view, err := s.toPostView(share)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) HandleListComments(c *gin.Context) {
	post, err := s.lookupPost(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.authorizePostRead(s.viewer(c), post); err != nil {
		respondError(c, err)
		return
	}
	err, comments := s.db.ReadCommentsByPost(post.Id)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]commentView, 0, len(*comments))
	for i := range *comments {
		v, err := s.toCommentView(&(*comments)[i], post)
		if err != nil {
			respondError(c, err)
			return
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"type": "comments", "comments": views})
}

func (s *Server) HandleCreateComment(c *gin.Context) {
	author := c.MustGet(ctxAuthor).(*domain.Author)
	post, err := s.lookupPost(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.authorizePostRead(author, post); err != nil {
		respondError(c, err)
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment text is required"})
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	comment := domain.NewComment(author, post, req.Comment, contentType)
	if err := s.db.CreateComment(comment); err != nil {
		respondError(c, err)
		return
	}
	view, err := s.toCommentView(comment, post)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) HandleListLikes(c *gin.Context) {
	post, err := s.lookupPost(c)
	if err != nil {
		respondError(c, err)
		return
	}
	err, likes := s.db.ReadLikesOfObject(post.Fqid)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]likeView, 0, len(*likes))
	for i := range *likes {
		v, err := s.toLikeView(&(*likes)[i])
		if err != nil {
			respondError(c, err)
			return
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"type": "likes", "likes": views})
}

// HandleCreateLike records the caller's like on a post. Liking twice is a
// no-op reported as 200 instead of 201.
func (s *Server) HandleCreateLike(c *gin.Context) {
	author := c.MustGet(ctxAuthor).(*domain.Author)
	post, err := s.lookupPost(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.authorizePostRead(author, post); err != nil {
		respondError(c, err)
		return
	}

	like := domain.NewLike(author, post.Fqid)
	err, like, created := s.db.GetOrCreateLike(like)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := s.toLikeView(like)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, view)
}

func (s *Server) toCommentView(comment *domain.Comment, post *domain.Post) (commentView, error) {
	err, author := s.db.ReadAuthorById(comment.AuthorId)
	if err != nil {
		return commentView{}, err
	}
	return commentView{
		Type:        "comment",
		Id:          comment.Fqid,
		Author:      toAuthorView(author),
		Comment:     comment.Comment,
		ContentType: comment.ContentType,
		Post:        post.Fqid,
		Published:   comment.Published.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func (s *Server) toLikeView(like *domain.Like) (likeView, error) {
	err, author := s.db.ReadAuthorById(like.AuthorId)
	if err != nil {
		return likeView{}, err
	}
	return likeView{
		Type:      "like",
		Id:        like.Fqid,
		Author:    toAuthorView(author),
		Object:    like.Object,
		Published: like.Published.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// lookupPost resolves the :post path segment, a local post id.
func (s *Server) lookupPost(c *gin.Context) (*domain.Post, error) {
	id, err := uuid.Parse(c.Param("post"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid post id", domain.ErrValidation)
	}
	err, post := s.db.ReadPostById(id)
	return post, err
}

// ownPost resolves the :post segment and checks the caller owns it.
func (s *Server) ownPost(c *gin.Context) (*domain.Post, error) {
	author := c.MustGet(ctxAuthor).(*domain.Author)
	post, err := s.lookupPost(c)
	if err != nil {
		return nil, err
	}
	if post.AuthorId != author.Id {
		return nil, fmt.Errorf("%w: not your post", domain.ErrAuth)
	}
	return post, nil
}

// authorizePostRead enforces the read ladder on a single post. Tombstoned
// posts are gone for everyone, unlisted posts are reachable by direct link,
// friends-only posts require friendship.
func (s *Server) authorizePostRead(viewer *domain.Author, post *domain.Post) error {
	if post.IsDeleted {
		return fmt.Errorf("%w: post", domain.ErrNotFound)
	}
	switch post.Visibility {
	case domain.VisibilityPublic, domain.VisibilityUnlisted:
		return nil
	case domain.VisibilityFriends:
		if viewer == nil {
			return fmt.Errorf("%w: friends only", domain.ErrAuth)
		}
		if viewer.Id == post.AuthorId {
			return nil
		}
		err, friends := s.db.AreFriends(viewer.Id, post.AuthorId)
		if err != nil {
			return err
		}
		if !friends {
			return fmt.Errorf("%w: friends only", domain.ErrAuth)
		}
		return nil
	default:
		return fmt.Errorf("%w: post", domain.ErrNotFound)
	}
}
