package domain

import (
	"time"

	"github.com/google/uuid"
)

// Follow states. There is no third state.
const (
	FollowRequested = "REQUESTED"
	FollowAccepted  = "FOLLOWED"
)

// Follow is a directed edge: Follower wants to (or does) follow User.
// At most one edge exists per ordered (User, Follower) pair.
type Follow struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	FollowerId uuid.UUID
	Status     string
	CreatedAt  time.Time
}

func NewFollow(userId, followerId uuid.UUID) *Follow {
	return &Follow{
		Id:         uuid.New(),
		UserId:     userId,
		FollowerId: followerId,
		Status:     FollowRequested,
		CreatedAt:  time.Now(),
	}
}
