package federation

import (
	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// Store interfaces kept narrow per component, all satisfied by *db.DB.
// Components receive their stores at construction instead of reaching for
// the database singleton.

type AuthorStore interface {
	CreateAuthor(author *domain.Author) error
	ReadAuthorByFqid(fqid string) (error, *domain.Author)
	ReadAuthorById(id uuid.UUID) (error, *domain.Author)
	ReadAuthorByUsername(username string) (error, *domain.Author)
}

type FollowStore interface {
	GetOrCreateFollow(userId, followerId uuid.UUID) (error, *domain.Follow, bool)
	ReadFollow(userId, followerId uuid.UUID) (error, *domain.Follow)
	AcceptFollow(userId, followerId uuid.UUID) error
	DeleteFollow(userId, followerId uuid.UUID) error
	AreFriends(a, b uuid.UUID) (error, bool)
	ReadFriendsOf(a uuid.UUID) (error, *[]domain.Author)
	ReadFollowers(userId uuid.UUID) (error, *[]domain.Author)
	ReadFollowing(followerId uuid.UUID) (error, *[]domain.Author)
	ReadFollowRequests(userId uuid.UUID) (error, *[]domain.Author)
	CountFollowers(userId uuid.UUID) (error, int)
	CountFollowing(followerId uuid.UUID) (error, int)
}

type PostStore interface {
	ReadPostByFqid(fqid string) (error, *domain.Post)
	UpdatePostContent(fqid, title, description, contentType, content string) error
	TombstonePost(id uuid.UUID) error
}

// IngestStore groups the transactional create-with-shadow-author operations
// used by the inbox pipeline and pull sync.
type IngestStore interface {
	CreatePostWithAuthor(shadow *domain.Author, post *domain.Post) error
	GetOrCreateFollowWithAuthor(shadow *domain.Author, follow *domain.Follow) (error, *domain.Follow, bool)
	GetOrCreateLikeWithAuthor(shadow *domain.Author, like *domain.Like) (error, *domain.Like, bool)
	CreateCommentWithAuthor(shadow *domain.Author, comment *domain.Comment) error
}

type NodeStore interface {
	UpsertRemoteNode(node *domain.RemoteNode) (error, bool)
	ReadNodeByURL(url string) (error, *domain.RemoteNode)
	ReadNodeByUsername(username string) (error, *domain.RemoteNode)
	ReadActiveNodes() (error, *[]domain.RemoteNode)
	UpdateNodeToken(url, token string) error
}
