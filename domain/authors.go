package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Author is an identity record, local or a shadow copy of a remote identity.
// The Fqid is computed once at construction and never changes afterwards.
type Author struct {
	Id           uuid.UUID
	Fqid         string
	Host         string
	Username     string
	DisplayName  string
	Github       string
	ProfileImage string
	Page         string
	ApiToken     string
	CreatedAt    time.Time
}

// NewLocalAuthor builds a fully-formed local author. The fqid is derived from
// the configured host and the freshly allocated id, so the record is never
// observable without its identity.
func NewLocalAuthor(host, username, displayName string) *Author {
	id := uuid.New()
	if displayName == "" {
		displayName = username
	}
	return &Author{
		Id:          id,
		Fqid:        AuthorFqid(host, id),
		Host:        host,
		Username:    username,
		DisplayName: displayName,
		Page:        fmt.Sprintf("%sauthors/%s", host, id),
		ApiToken:    uuid.NewString(),
		CreatedAt:   time.Now(),
	}
}

// IsRemote reports whether the author originates from another node.
func (a *Author) IsRemote(localHost string) bool {
	return !SameOrigin(a.Fqid, localHost)
}

func (a *Author) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tFqid: %s \n\tUsername: %s \n\tHost: %s", a.Id, a.Fqid, a.Username, a.Host)
}

// AuthorFqid derives the globally unique author identifier.
// Example: "http://nodeone/api/" + id -> "http://nodeone/api/authors/<id>"
func AuthorFqid(host string, id uuid.UUID) string {
	return fmt.Sprintf("%sauthors/%s", host, id)
}

// FqidHost extracts the host part of a fqid for origin comparison.
// Example: "http://nodeone/api/authors/42" -> "nodeone"
func FqidHost(fqid string) string {
	parsed, err := url.Parse(fqid)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// SameOrigin reports whether a fqid belongs to the given node base URL.
func SameOrigin(fqid, host string) bool {
	fh := FqidHost(fqid)
	return fh != "" && fh == FqidHost(host)
}

// UsernameFromFqid derives a synthetic local username for a shadow author.
// Example: "http://nodetwo/api/authors/77" -> "77@nodetwo"
func UsernameFromFqid(fqid string) string {
	trimmed := strings.TrimSuffix(fqid, "/")
	parts := strings.Split(trimmed, "/")
	last := parts[len(parts)-1]
	if host := FqidHost(fqid); host != "" {
		return fmt.Sprintf("%s@%s", last, host)
	}
	return last
}
