package federation

import (
	"errors"
	"testing"

	"github.com/deemkeen/mammut/db"
	"github.com/deemkeen/mammut/domain"
)

func newTestPipeline(t *testing.T) (*Pipeline, *db.DB) {
	database := setupTestDB(t)
	resolver := NewResolver(database, testHost)
	return NewPipeline(database, database, database, resolver), database
}

func localAuthor(t *testing.T, database *db.DB, username string) *domain.Author {
	author := domain.NewLocalAuthor(testHost, username, "")
	if err := database.CreateAuthor(author); err != nil {
		t.Fatalf("Failed to create local author: %v", err)
	}
	return author
}

func postEnvelope(fqid string) *domain.Envelope {
	return &domain.Envelope{
		Type: domain.EnvelopePost,
		Post: &domain.PostEnvelope{
			Id:          fqid,
			Title:       "remote title",
			ContentType: "text/plain",
			Content:     "remote body",
			Author:      remoteDescriptor("7"),
			Visibility:  domain.VisibilityPublic,
		},
	}
}

func TestDeliverPostCreatesThenUpdates(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	fqid := "http://nodetwo/api/authors/7/posts/1"
	created, err := pipeline.Deliver(target, postEnvelope(fqid))
	if err != nil {
		t.Fatalf("First delivery failed: %v", err)
	}
	if !created {
		t.Fatal("First delivery should create the post")
	}

	err, post := database.ReadPostByFqid(fqid)
	if err != nil {
		t.Fatalf("Post not stored: %v", err)
	}
	if post.Visibility != domain.VisibilityPublic {
		t.Errorf("Unexpected visibility %q", post.Visibility)
	}

	// redelivery with edited content
	env := postEnvelope(fqid)
	env.Post.Content = "edited body"
	env.Post.Visibility = domain.VisibilityFriends
	created, err = pipeline.Deliver(target, env)
	if err != nil {
		t.Fatalf("Redelivery failed: %v", err)
	}
	if created {
		t.Error("Redelivery should not create a second post")
	}

	err, post = database.ReadPostByFqid(fqid)
	if err != nil {
		t.Fatalf("ReadPostByFqid failed: %v", err)
	}
	if post.Content != "edited body" {
		t.Error("Redelivery should apply the edit")
	}
	if post.Visibility != domain.VisibilityPublic {
		t.Error("Redelivery must never change visibility")
	}
}

func TestDeliverPostTombstone(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	fqid := "http://nodetwo/api/authors/7/posts/1"
	pipeline.Deliver(target, postEnvelope(fqid))

	env := postEnvelope(fqid)
	env.Post.Visibility = domain.VisibilityDeleted
	created, err := pipeline.Deliver(target, env)
	if err != nil {
		t.Fatalf("Tombstone delivery failed: %v", err)
	}
	if created {
		t.Error("Tombstoning is never a create")
	}

	err, post := database.ReadPostByFqid(fqid)
	if err != nil {
		t.Fatalf("ReadPostByFqid failed: %v", err)
	}
	if !post.IsDeleted {
		t.Error("Post not tombstoned")
	}
	if post.Content != "remote body" {
		t.Error("Tombstoning must not clear content")
	}
}

func TestDeliverTombstoneForUnknownPost(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	env := postEnvelope("http://nodetwo/api/authors/7/posts/404")
	env.Post.Visibility = domain.VisibilityDeleted
	_, err := pipeline.Deliver(target, env)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// staleAuthorReads hides committed authors from the first fqid lookups,
// reproducing the window where a concurrent delivery commits the shadow
// author between our resolve and our insert.
type staleAuthorReads struct {
	AuthorStore
	misses int
}

func (s *staleAuthorReads) ReadAuthorByFqid(fqid string) (error, *domain.Author) {
	if s.misses > 0 {
		s.misses--
		return domain.ErrNotFound, nil
	}
	return s.AuthorStore.ReadAuthorByFqid(fqid)
}

func TestDeliverPostRetriesWhenShadowAuthorRaces(t *testing.T) {
	database := setupTestDB(t)
	target := localAuthor(t, database, "alice")

	// The author record a concurrent delivery already committed.
	committed, err := NewResolver(database, testHost).ResolveOrCreateAuthor(remoteDescriptor("7"))
	if err != nil {
		t.Fatalf("Failed to seed shadow author: %v", err)
	}

	stale := &staleAuthorReads{AuthorStore: database, misses: 1}
	pipeline := NewPipeline(database, database, database, NewResolver(stale, testHost))

	fqid := "http://nodetwo/api/authors/7/posts/9"
	created, err := pipeline.Deliver(target, postEnvelope(fqid))
	if err != nil {
		t.Fatalf("Delivery failed: %v", err)
	}
	if !created {
		t.Error("Delivery should still create the post after the author race")
	}

	err, post := database.ReadPostByFqid(fqid)
	if err != nil {
		t.Fatalf("Post was dropped: %v", err)
	}
	if post.AuthorId != committed.Id {
		t.Error("Post should belong to the committed author record")
	}
	if post.Content != "remote body" {
		t.Errorf("Unexpected content %q", post.Content)
	}
}

func TestDeliverPostRejectsLocalOrigin(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	env := postEnvelope("http://nodetwo/api/authors/7/posts/1")
	env.Post.Author = domain.AuthorDescriptor{Id: testHost + "authors/42"}
	_, err := pipeline.Deliver(target, env)
	if !errors.Is(err, domain.ErrAuth) {
		t.Errorf("Expected ErrAuth, got %v", err)
	}
}

func TestDeliverFollowLifecycle(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	env := &domain.Envelope{
		Type: domain.EnvelopeFollow,
		Follow: &domain.FollowEnvelope{
			Actor:  remoteDescriptor("7"),
			Object: domain.AuthorDescriptor{Id: target.Fqid},
		},
	}

	created, err := pipeline.Deliver(target, env)
	if err != nil {
		t.Fatalf("Follow delivery failed: %v", err)
	}
	if !created {
		t.Fatal("First follow delivery should create the edge")
	}

	// redelivery is a no-op
	created, err = pipeline.Deliver(target, env)
	if err != nil {
		t.Fatalf("Follow redelivery failed: %v", err)
	}
	if created {
		t.Error("Follow redelivery should not create a second edge")
	}

	err, actor := database.ReadAuthorByFqid(env.Follow.Actor.Id)
	if err != nil {
		t.Fatalf("Shadow actor not created: %v", err)
	}
	err, follow := database.ReadFollow(target.Id, actor.Id)
	if err != nil {
		t.Fatalf("Follow edge not stored: %v", err)
	}
	if follow.Status != domain.FollowRequested {
		t.Errorf("Expected REQUESTED, got %q", follow.Status)
	}

	// accept, then follow back both ways accepted makes friends
	if err := database.AcceptFollow(target.Id, actor.Id); err != nil {
		t.Fatalf("AcceptFollow failed: %v", err)
	}
	database.GetOrCreateFollow(actor.Id, target.Id)
	database.AcceptFollow(actor.Id, target.Id)

	err, friends := database.AreFriends(target.Id, actor.Id)
	if err != nil {
		t.Fatalf("AreFriends failed: %v", err)
	}
	if !friends {
		t.Error("Mutual accepted follows should make friends")
	}
}

func TestDeliverFollowToUnknownTarget(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	inboxOwner := localAuthor(t, database, "alice")

	env := &domain.Envelope{
		Type: domain.EnvelopeFollow,
		Follow: &domain.FollowEnvelope{
			Actor:  remoteDescriptor("7"),
			Object: domain.AuthorDescriptor{Id: testHost + "authors/00000000-0000-0000-0000-000000000000"},
		},
	}
	_, err := pipeline.Deliver(inboxOwner, env)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown target, got %v", err)
	}
}

func TestDeliverFollowFallsBackToInboxOwner(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	env := &domain.Envelope{
		Type:   domain.EnvelopeFollow,
		Follow: &domain.FollowEnvelope{Actor: remoteDescriptor("7")},
	}
	created, err := pipeline.Deliver(target, env)
	if err != nil {
		t.Fatalf("Follow delivery failed: %v", err)
	}
	if !created {
		t.Fatal("Expected the edge to be created")
	}

	err, actor := database.ReadAuthorByFqid(env.Follow.Actor.Id)
	if err != nil {
		t.Fatalf("Shadow actor not created: %v", err)
	}
	if err, _ := database.ReadFollow(target.Id, actor.Id); err != nil {
		t.Errorf("Edge should target the inbox owner: %v", err)
	}
}

func TestDeliverLikeIsIdempotent(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")
	post := domain.NewPost(target, "mine", "", "text/plain", "body", domain.VisibilityPublic)
	if err := database.CreatePost(post); err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}

	env := &domain.Envelope{
		Type: domain.EnvelopeLike,
		Like: &domain.LikeEnvelope{
			Id:     "http://nodetwo/api/authors/7/liked/1",
			Author: remoteDescriptor("7"),
			Object: post.Fqid,
		},
	}

	created, err := pipeline.Deliver(target, env)
	if err != nil {
		t.Fatalf("Like delivery failed: %v", err)
	}
	if !created {
		t.Fatal("First like delivery should create")
	}

	created, err = pipeline.Deliver(target, env)
	if err != nil {
		t.Fatalf("Like redelivery failed: %v", err)
	}
	if created {
		t.Error("Like redelivery should be a no-op")
	}

	err, count := database.CountLikesOfObject(post.Fqid)
	if err != nil {
		t.Fatalf("CountLikesOfObject failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one like, got %d", count)
	}
}

func TestDeliverCommentAppendsEveryTime(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")
	post := domain.NewPost(target, "mine", "", "text/plain", "body", domain.VisibilityPublic)
	if err := database.CreatePost(post); err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}

	env := &domain.Envelope{
		Type: domain.EnvelopeComment,
		Comment: &domain.CommentEnvelope{
			Id:      "http://nodetwo/api/authors/7/commented/1",
			Author:  remoteDescriptor("7"),
			Comment: "same text",
			Post:    post.Fqid,
		},
	}

	for i := 0; i < 2; i++ {
		created, err := pipeline.Deliver(target, env)
		if err != nil {
			t.Fatalf("Comment delivery %d failed: %v", i+1, err)
		}
		if !created {
			t.Errorf("Comment delivery %d should append a new row", i+1)
		}
	}

	err, comments := database.ReadCommentsByPost(post.Id)
	if err != nil {
		t.Fatalf("ReadCommentsByPost failed: %v", err)
	}
	if len(*comments) != 2 {
		t.Errorf("Expected two comment rows, got %d", len(*comments))
	}
}

func TestDeliverCommentForUnknownPost(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	env := &domain.Envelope{
		Type: domain.EnvelopeComment,
		Comment: &domain.CommentEnvelope{
			Author:  remoteDescriptor("7"),
			Comment: "hello",
			Post:    "http://nodeone/api/authors/1/posts/404",
		},
	}
	_, err := pipeline.Deliver(target, env)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeliverUnknownEnvelopeType(t *testing.T) {
	pipeline, database := newTestPipeline(t)
	target := localAuthor(t, database, "alice")

	_, err := pipeline.Deliver(target, &domain.Envelope{Type: "poke"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}
