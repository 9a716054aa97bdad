package federation

import (
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// Pipeline ingests typed deliveries pushed by remote nodes and merges them
// idempotently into local storage. Sender authentication happens at the
// boundary before anything reaches Deliver.
type Pipeline struct {
	authors  AuthorStore
	posts    PostStore
	ingest   IngestStore
	resolver *Resolver
}

func NewPipeline(authors AuthorStore, posts PostStore, ingest IngestStore, resolver *Resolver) *Pipeline {
	return &Pipeline{
		authors:  authors,
		posts:    posts,
		ingest:   ingest,
		resolver: resolver,
	}
}

// Deliver dispatches an envelope to the target author's inbox. The returned
// flag reports whether a new record was created (201) as opposed to an
// update or idempotent repeat (200).
func (p *Pipeline) Deliver(target *domain.Author, env *domain.Envelope) (bool, error) {
	switch env.Type {
	case domain.EnvelopePost:
		return p.deliverPost(env.Post)
	case domain.EnvelopeFollow:
		return p.deliverFollow(target, env.Follow)
	case domain.EnvelopeLike:
		return p.deliverLike(env.Like)
	case domain.EnvelopeComment:
		return p.deliverComment(env.Comment)
	default:
		return false, fmt.Errorf("%w: unknown envelope type %q", domain.ErrValidation, env.Type)
	}
}

func (p *Pipeline) deliverPost(env *domain.PostEnvelope) (bool, error) {
	err, existing := p.posts.ReadPostByFqid(env.Id)
	if err != nil && err != domain.ErrNotFound {
		return false, err
	}

	if existing != nil {
		if env.Visibility == domain.VisibilityDeleted {
			// Tombstone only, content fields stay untouched.
			log.Printf("Inbox: Tombstoning post %s", env.Id)
			return false, p.posts.TombstonePost(existing.Id)
		}
		// Redelivery of a known fqid is an edit. Author and visibility are
		// never altered by it; the sender passed node auth, that is trust
		// enough.
		log.Printf("Inbox: Updating post %s", env.Id)
		return false, p.posts.UpdatePostContent(env.Id, env.Title, env.Description, env.ContentType, env.Content)
	}

	if env.Visibility == domain.VisibilityDeleted {
		return false, fmt.Errorf("%w: post %s", domain.ErrNotFound, env.Id)
	}

	if err := p.resolver.rejectLocalOrigin(env.Author); err != nil {
		return false, err
	}
	author, shadow, err := p.resolver.resolve(env.Author)
	if err != nil {
		return false, err
	}
	if shadow != nil {
		author = shadow
	}

	post := &domain.Post{
		Id:          uuid.New(),
		Fqid:        env.Id,
		AuthorId:    author.Id,
		Title:       env.Title,
		Description: env.Description,
		ContentType: env.ContentType,
		Content:     env.Content,
		Visibility:  env.Visibility,
		Published:   publishedOrNow(env.Published),
	}
	if post.Visibility == "" {
		post.Visibility = domain.VisibilityPublic
	}

	if err := p.ingest.CreatePostWithAuthor(shadow, post); err != nil {
		if err != domain.ErrConflict {
			return false, err
		}
		// Either the post fqid or the shadow author lost a concurrent
		// first-sighting race. Only treat it as an edit when the post row
		// actually exists; otherwise retry against the committed author.
		err, raced := p.posts.ReadPostByFqid(env.Id)
		if err != nil && err != domain.ErrNotFound {
			return false, err
		}
		if raced != nil {
			log.Printf("Inbox: Post %s raced, falling back to update", env.Id)
			return false, p.posts.UpdatePostContent(env.Id, env.Title, env.Description, env.ContentType, env.Content)
		}
		author, err = p.resolver.ResolveOrCreateAuthor(env.Author)
		if err != nil {
			return false, err
		}
		post.AuthorId = author.Id
		if err := p.ingest.CreatePostWithAuthor(nil, post); err != nil {
			if err == domain.ErrConflict {
				log.Printf("Inbox: Post %s raced, falling back to update", env.Id)
				return false, p.posts.UpdatePostContent(env.Id, env.Title, env.Description, env.ContentType, env.Content)
			}
			return false, err
		}
	}
	log.Printf("Inbox: Created post %s by %s", env.Id, author.Fqid)
	return true, nil
}

func (p *Pipeline) deliverFollow(target *domain.Author, env *domain.FollowEnvelope) (bool, error) {
	if err := p.resolver.rejectLocalOrigin(env.Actor); err != nil {
		return false, err
	}

	// The envelope object names the local author being followed; fall back
	// to the inbox owner when absent.
	if env.Object.Id != "" {
		err, resolved := p.authors.ReadAuthorByFqid(env.Object.Id)
		if err == domain.ErrNotFound {
			return false, fmt.Errorf("%w: follow target %s", domain.ErrNotFound, env.Object.Id)
		}
		if err != nil {
			return false, err
		}
		target = resolved
	}

	actor, shadow, err := p.resolver.resolve(env.Actor)
	if err != nil {
		return false, err
	}
	if shadow != nil {
		actor = shadow
	}

	follow := domain.NewFollow(target.Id, actor.Id)
	err, _, created := p.ingest.GetOrCreateFollowWithAuthor(shadow, follow)
	if err == domain.ErrConflict {
		// Shadow author raced, retry against the committed record.
		actor, err = p.resolver.ResolveOrCreateAuthor(env.Actor)
		if err != nil {
			return false, err
		}
		err, _, created = p.ingest.GetOrCreateFollowWithAuthor(nil, domain.NewFollow(target.Id, actor.Id))
	}
	if err != nil {
		return false, err
	}
	if created {
		log.Printf("Inbox: Follow request from %s to %s", actor.Fqid, target.Fqid)
	}
	return created, nil
}

func (p *Pipeline) deliverLike(env *domain.LikeEnvelope) (bool, error) {
	if err := p.resolver.rejectLocalOrigin(env.Author); err != nil {
		return false, err
	}

	author, shadow, err := p.resolver.resolve(env.Author)
	if err != nil {
		return false, err
	}
	if shadow != nil {
		author = shadow
	}

	like := buildLike(author, env)
	err, _, created := p.ingest.GetOrCreateLikeWithAuthor(shadow, like)
	if err == domain.ErrConflict {
		author, err = p.resolver.ResolveOrCreateAuthor(env.Author)
		if err != nil {
			return false, err
		}
		err, _, created = p.ingest.GetOrCreateLikeWithAuthor(nil, buildLike(author, env))
	}
	if err != nil {
		return false, err
	}
	if created {
		log.Printf("Inbox: Like by %s on %s", author.Fqid, env.Object)
	}
	return created, nil
}

func (p *Pipeline) deliverComment(env *domain.CommentEnvelope) (bool, error) {
	if err := p.resolver.rejectLocalOrigin(env.Author); err != nil {
		return false, err
	}

	err, post := p.posts.ReadPostByFqid(env.Post)
	if err == domain.ErrNotFound {
		return false, fmt.Errorf("%w: post %s", domain.ErrNotFound, env.Post)
	}
	if err != nil {
		return false, err
	}

	author, shadow, err := p.resolver.resolve(env.Author)
	if err != nil {
		return false, err
	}
	if shadow != nil {
		author = shadow
	}

	comment := buildComment(author, post, env)
	if err := p.ingest.CreateCommentWithAuthor(shadow, comment); err != nil {
		if err == domain.ErrConflict {
			author, err = p.resolver.ResolveOrCreateAuthor(env.Author)
			if err != nil {
				return false, err
			}
			if err := p.ingest.CreateCommentWithAuthor(nil, buildComment(author, post, env)); err != nil {
				return false, err
			}
			return true, nil
		}
		return false, err
	}
	log.Printf("Inbox: Comment by %s on %s", author.Fqid, post.Fqid)
	return true, nil
}

func buildLike(author *domain.Author, env *domain.LikeEnvelope) *domain.Like {
	like := &domain.Like{
		Id:        uuid.New(),
		Fqid:      env.Id,
		AuthorId:  author.Id,
		Object:    env.Object,
		Published: publishedOrNow(env.Published),
	}
	if like.Fqid == "" {
		like.Fqid = domain.LikeFqid(author.Fqid, like.Id)
	}
	return like
}

func buildComment(author *domain.Author, post *domain.Post, env *domain.CommentEnvelope) *domain.Comment {
	contentType := env.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}
	// The fqid is always derived from the fresh local id, so redelivery of
	// the same comment payload appends another row. Post, follow and like
	// delivery are idempotent; comment delivery deliberately is not.
	id := uuid.New()
	return &domain.Comment{
		Id:          id,
		Fqid:        domain.CommentFqid(author.Fqid, id),
		PostId:      post.Id,
		AuthorId:    author.Id,
		Comment:     env.Comment,
		ContentType: contentType,
		Published:   publishedOrNow(env.Published),
	}
}

func publishedOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now()
}
