package federation

import (
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/mammut/domain"
	"github.com/deemkeen/mammut/util"
	"github.com/google/uuid"
)

// Resolver maps fqids to local author records, materializing shadow copies
// of remote identities on first reference. Shadow fields are first-write-wins:
// a later sighting never overwrites them.
type Resolver struct {
	authors   AuthorStore
	localHost string
}

func NewResolver(authors AuthorStore, localHost string) *Resolver {
	return &Resolver{authors: authors, localHost: localHost}
}

// ResolveOrCreateAuthor returns the author for the descriptor's fqid,
// creating and persisting a shadow record when none exists yet.
func (r *Resolver) ResolveOrCreateAuthor(desc domain.AuthorDescriptor) (*domain.Author, error) {
	author, pending, err := r.resolve(desc)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return author, nil
	}
	if err := r.authors.CreateAuthor(pending); err != nil {
		if err == domain.ErrConflict {
			// Lost the race against a concurrent first sighting, the
			// existing record wins.
			err, existing := r.authors.ReadAuthorByFqid(desc.Id)
			if err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, err
	}
	log.Printf("Resolver: Created shadow author %s", pending.Fqid)
	return pending, nil
}

// resolve looks the descriptor up by fqid. When unknown it builds, but does
// not persist, the shadow record; the caller decides which transaction the
// insert joins.
func (r *Resolver) resolve(desc domain.AuthorDescriptor) (*domain.Author, *domain.Author, error) {
	if desc.Id == "" {
		return nil, nil, fmt.Errorf("%w: author descriptor missing fqid", domain.ErrValidation)
	}

	err, existing := r.authors.ReadAuthorByFqid(desc.Id)
	if err == nil && existing != nil {
		return existing, nil, nil
	}
	if err != domain.ErrNotFound {
		return nil, nil, err
	}

	return nil, r.buildShadow(desc), nil
}

// rejectLocalOrigin guards inbound deliveries against impersonation of
// local identities: a remote peer may never speak for an fqid this node
// minted.
func (r *Resolver) rejectLocalOrigin(desc domain.AuthorDescriptor) error {
	if domain.SameOrigin(desc.Id, r.localHost) {
		return fmt.Errorf("%w: delivery claims local author %s", domain.ErrAuth, desc.Id)
	}
	return nil
}

func (r *Resolver) buildShadow(desc domain.AuthorDescriptor) *domain.Author {
	username := domain.UsernameFromFqid(desc.Id)
	if err, taken := r.authors.ReadAuthorByUsername(username); err == nil && taken != nil {
		// Synthetic username collision, disambiguate with a random suffix.
		username = fmt.Sprintf("%s-%s", username, util.RandomString(6))
	}
	displayName := desc.DisplayName
	if displayName == "" {
		displayName = username
	}
	page := desc.Page
	if page == "" {
		page = desc.Id
	}
	return &domain.Author{
		Id:           uuid.New(),
		Fqid:         desc.Id,
		Host:         desc.Host,
		Username:     username,
		DisplayName:  displayName,
		Github:       desc.Github,
		ProfileImage: desc.ProfileImage,
		Page:         page,
		CreatedAt:    time.Now(),
	}
}
