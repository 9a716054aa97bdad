package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Post visibility values. DELETED never appears on a stored row, it is the
// tombstone signal used by inbound delivery payloads only.
const (
	VisibilityPublic   = "PUBLIC"
	VisibilityUnlisted = "UNLISTED"
	VisibilityFriends  = "FRIENDS"
	VisibilityDeleted  = "DELETED"
)

type Post struct {
	Id           uuid.UUID
	Fqid         string
	AuthorId     uuid.UUID
	Title        string
	Description  string
	ContentType  string
	Content      string
	Visibility   string
	IsDeleted    bool
	IsShared     bool
	OriginalPost *uuid.UUID
	Published    time.Time
}

// NewPost builds a fully-formed local post with its fqid derived from the
// author fqid and the fresh post id.
func NewPost(author *Author, title, description, contentType, content, visibility string) *Post {
	id := uuid.New()
	return &Post{
		Id:          id,
		Fqid:        PostFqid(author.Fqid, id),
		AuthorId:    author.Id,
		Title:       title,
		Description: description,
		ContentType: contentType,
		Content:     content,
		Visibility:  visibility,
		Published:   time.Now(),
	}
}

// NewSharedPost builds a repost of an original. Shares are always public.
func NewSharedPost(author *Author, original *Post) *Post {
	id := uuid.New()
	return &Post{
		Id:           id,
		Fqid:         PostFqid(author.Fqid, id),
		AuthorId:     author.Id,
		Title:        original.Title,
		Description:  original.Description,
		ContentType:  original.ContentType,
		Content:      original.Content,
		Visibility:   VisibilityPublic,
		IsShared:     true,
		OriginalPost: &original.Id,
		Published:    time.Now(),
	}
}

func (p *Post) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tFqid: %s \n\tTitle: %s \n\tVisibility: %s", p.Id, p.Fqid, p.Title, p.Visibility)
}

type Comment struct {
	Id          uuid.UUID
	Fqid        string
	PostId      uuid.UUID
	AuthorId    uuid.UUID
	Comment     string
	ContentType string
	Published   time.Time
}

// NewComment builds a fully-formed comment on a post.
func NewComment(author *Author, post *Post, text, contentType string) *Comment {
	id := uuid.New()
	if contentType == "" {
		contentType = "text/plain"
	}
	return &Comment{
		Id:          id,
		Fqid:        CommentFqid(author.Fqid, id),
		PostId:      post.Id,
		AuthorId:    author.Id,
		Comment:     text,
		ContentType: contentType,
		Published:   time.Now(),
	}
}

// Like marks an author's reaction to a likeable object, addressed by its
// full object URL. At most one like per (author, object).
type Like struct {
	Id        uuid.UUID
	Fqid      string
	AuthorId  uuid.UUID
	Object    string
	Published time.Time
}

func NewLike(author *Author, object string) *Like {
	id := uuid.New()
	return &Like{
		Id:        id,
		Fqid:      LikeFqid(author.Fqid, id),
		AuthorId:  author.Id,
		Object:    object,
		Published: time.Now(),
	}
}

// PostFqid derives the global post identifier from the owning author's fqid.
func PostFqid(authorFqid string, id uuid.UUID) string {
	return fmt.Sprintf("%s/posts/%s", authorFqid, id)
}

func CommentFqid(authorFqid string, id uuid.UUID) string {
	return fmt.Sprintf("%s/commented/%s", authorFqid, id)
}

func LikeFqid(authorFqid string, id uuid.UUID) string {
	return fmt.Sprintf("%s/liked/%s", authorFqid, id)
}
