package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RemoteNode is a registry record for a federation peer. Credentials are
// used both for outbound requests and to verify inbound Basic auth.
type RemoteNode struct {
	Id        uuid.UUID
	URL       string
	Username  string
	Password  string
	Token     string
	Active    bool
	CreatedAt time.Time
}

func NewRemoteNode(url, username, password string) *RemoteNode {
	return &RemoteNode{
		Id:        uuid.New(),
		URL:       url,
		Username:  username,
		Password:  password,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func (n *RemoteNode) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tURL: %s \n\tUsername: %s \n\tActive: %v", n.Id, n.URL, n.Username, n.Active)
}

// SyncOutcome is the per-peer result of a pull synchronization run.
type SyncOutcome struct {
	NodeURL string `json:"node"`
	Posts   int    `json:"posts"`
	Error   string `json:"error,omitempty"`
}
