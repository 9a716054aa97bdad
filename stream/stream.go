package stream

import (
	"errors"
	"fmt"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// PostSource is the slice of storage the assembler reads posts from.
type PostSource interface {
	ReadStreamPosts(viewerId, excludeAuthorId uuid.UUID, authed bool, limit, offset int) (error, *[]domain.Post)
	CountStreamPosts(viewerId, excludeAuthorId uuid.UUID, authed bool) (error, int)
	ReadPublicPosts(limit, offset int) (error, *[]domain.Post)
	CountPublicPosts() (error, int)
	ReadPostsByAuthor(authorId uuid.UUID, visibilities []string, limit, offset int) (error, *[]domain.Post)
}

type RelationSource interface {
	AreFriends(a, b uuid.UUID) (error, bool)
	ReadFollow(userId, followerId uuid.UUID) (error, *domain.Follow)
}

// Assembler builds visibility-scoped post listings. Tombstoned posts never
// appear anywhere, regardless of who asks.
type Assembler struct {
	posts   PostSource
	follows RelationSource
}

func NewAssembler(posts PostSource, follows RelationSource) *Assembler {
	return &Assembler{posts: posts, follows: follows}
}

// AssembleStream returns one page of the viewer's stream plus the total
// count across all pages. A nil viewer gets the anonymous public stream.
// When excludeOwn is set the viewer's own posts are filtered out, which is
// how the home stream behaves.
func (a *Assembler) AssembleStream(viewer *domain.Author, excludeOwn bool, page, size int) (*[]domain.Post, int, error) {
	if page < 1 || size < 1 {
		return nil, 0, fmt.Errorf("%w: page and size must be positive", domain.ErrValidation)
	}
	offset := (page - 1) * size

	if viewer == nil {
		err, posts := a.posts.ReadPublicPosts(size, offset)
		if err != nil {
			return nil, 0, err
		}
		err, count := a.posts.CountPublicPosts()
		if err != nil {
			return nil, 0, err
		}
		return posts, count, nil
	}

	exclude := uuid.Nil
	if excludeOwn {
		exclude = viewer.Id
	}
	err, posts := a.posts.ReadStreamPosts(viewer.Id, exclude, true, size, offset)
	if err != nil {
		return nil, 0, err
	}
	err, count := a.posts.CountStreamPosts(viewer.Id, exclude, true)
	if err != nil {
		return nil, 0, err
	}
	return posts, count, nil
}

// AssembleAuthorFeed lists one author's posts as seen by the viewer. The
// visibility ladder: the owner sees everything live, a friend sees public,
// friends-only and unlisted, a follower sees public and unlisted, anyone
// else sees public only.
func (a *Assembler) AssembleAuthorFeed(viewer, author *domain.Author, page, size int) (*[]domain.Post, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("%w: page and size must be positive", domain.ErrValidation)
	}
	visibilities, err := a.visibleScopes(viewer, author)
	if err != nil {
		return nil, err
	}
	err, posts := a.posts.ReadPostsByAuthor(author.Id, visibilities, size, (page-1)*size)
	return posts, err
}

func (a *Assembler) visibleScopes(viewer, author *domain.Author) ([]string, error) {
	if viewer == nil {
		return []string{domain.VisibilityPublic}, nil
	}
	if viewer.Id == author.Id {
		return []string{domain.VisibilityPublic, domain.VisibilityFriends, domain.VisibilityUnlisted}, nil
	}

	err, friends := a.follows.AreFriends(viewer.Id, author.Id)
	if err != nil {
		return nil, err
	}
	if friends {
		return []string{domain.VisibilityPublic, domain.VisibilityFriends, domain.VisibilityUnlisted}, nil
	}

	err, follow := a.follows.ReadFollow(author.Id, viewer.Id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if follow != nil && follow.Status == domain.FollowAccepted {
		return []string{domain.VisibilityPublic, domain.VisibilityUnlisted}, nil
	}
	return []string{domain.VisibilityPublic}, nil
}
