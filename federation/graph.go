package federation

import (
	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// Graph maintains the directed follow edges and the friendship relation
// derived from them. Friendship is mutual FOLLOWED edges at depth one,
// nothing transitive.
type Graph struct {
	follows FollowStore
}

func NewGraph(follows FollowStore) *Graph {
	return &Graph{follows: follows}
}

// RequestFollow records that follower wants to follow user. Get-or-create:
// repeating the request is a no-op on the existing edge.
func (g *Graph) RequestFollow(user, follower uuid.UUID) (*domain.Follow, bool, error) {
	err, follow, created := g.follows.GetOrCreateFollow(user, follower)
	if err != nil {
		return nil, false, err
	}
	return follow, created, nil
}

// AcceptFollow transitions the pending request into a standing follow.
func (g *Graph) AcceptFollow(user, follower uuid.UUID) error {
	return g.follows.AcceptFollow(user, follower)
}

// RemoveFollow deletes the edge, whether it was a request or accepted.
// Removing a missing edge succeeds.
func (g *Graph) RemoveFollow(user, follower uuid.UUID) error {
	return g.follows.DeleteFollow(user, follower)
}

func (g *Graph) AreFriends(a, b uuid.UUID) (bool, error) {
	err, friends := g.follows.AreFriends(a, b)
	return friends, err
}

func (g *Graph) FriendsOf(a uuid.UUID) ([]domain.Author, error) {
	err, friends := g.follows.ReadFriendsOf(a)
	if err != nil {
		return nil, err
	}
	return *friends, nil
}

func (g *Graph) Followers(a uuid.UUID) ([]domain.Author, error) {
	err, followers := g.follows.ReadFollowers(a)
	if err != nil {
		return nil, err
	}
	return *followers, nil
}

func (g *Graph) Following(a uuid.UUID) ([]domain.Author, error) {
	err, following := g.follows.ReadFollowing(a)
	if err != nil {
		return nil, err
	}
	return *following, nil
}

func (g *Graph) FollowRequests(a uuid.UUID) ([]domain.Author, error) {
	err, requests := g.follows.ReadFollowRequests(a)
	if err != nil {
		return nil, err
	}
	return *requests, nil
}

// IsFollowing reports whether follower has an accepted edge towards user.
func (g *Graph) IsFollowing(user, follower uuid.UUID) (bool, error) {
	err, follow := g.follows.ReadFollow(user, follower)
	if err == domain.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return follow.Status == domain.FollowAccepted, nil
}

func (g *Graph) FollowerCount(a uuid.UUID) (int, error) {
	err, count := g.follows.CountFollowers(a)
	return count, err
}

func (g *Graph) FollowingCount(a uuid.UUID) (int, error) {
	err, count := g.follows.CountFollowing(a)
	return count, err
}
