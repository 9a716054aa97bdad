package db

import (
	"errors"
	"testing"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// shadowAuthor builds an unpersisted remote author record
func shadowAuthor(username string) *domain.Author {
	id := uuid.New()
	return &domain.Author{
		Id:          id,
		Fqid:        "http://nodetwo/api/authors/" + id.String(),
		Host:        "http://nodetwo/api/",
		Username:    username,
		DisplayName: username,
		Page:        "http://nodetwo/api/authors/" + id.String(),
	}
}

func TestCreatePostWithAuthorIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	shadow := shadowAuthor("7@nodetwo")

	post := domain.NewPost(shadow, "remote post", "", "text/plain", "hello", domain.VisibilityPublic)
	if err := db.CreatePostWithAuthor(shadow, post); err != nil {
		t.Fatalf("CreatePostWithAuthor failed: %v", err)
	}

	err, storedAuthor := db.ReadAuthorByFqid(shadow.Fqid)
	if err != nil {
		t.Fatalf("Shadow author not committed: %v", err)
	}
	if storedAuthor.Id != shadow.Id {
		t.Error("Wrong shadow author committed")
	}
	err, storedPost := db.ReadPostByFqid(post.Fqid)
	if err != nil {
		t.Fatalf("Post not committed: %v", err)
	}
	if storedPost.AuthorId != shadow.Id {
		t.Error("Post not linked to the shadow author")
	}
}

func TestCreatePostWithAuthorRollsBackOnConflict(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	existing := createTestPost(t, db, alice, "first", domain.VisibilityPublic)

	// Same post fqid arrives attributed to a brand-new shadow author. The
	// conflict must leave no trace of the shadow either.
	shadow := shadowAuthor("7@nodetwo")
	dup := domain.NewPost(shadow, "dup", "", "text/plain", "dup", domain.VisibilityPublic)
	dup.Fqid = existing.Fqid

	if err := db.CreatePostWithAuthor(shadow, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	if err, _ := db.ReadAuthorByFqid(shadow.Fqid); !errors.Is(err, domain.ErrNotFound) {
		t.Error("Shadow author leaked out of the failed transaction")
	}
}

func TestGetOrCreateFollowWithAuthor(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	shadow := shadowAuthor("7@nodetwo")

	follow := domain.NewFollow(alice.Id, shadow.Id)
	err, stored, created := db.GetOrCreateFollowWithAuthor(shadow, follow)
	if err != nil {
		t.Fatalf("GetOrCreateFollowWithAuthor failed: %v", err)
	}
	if !created {
		t.Fatal("First delivery should create the edge")
	}
	if stored.Status != domain.FollowRequested {
		t.Errorf("Expected REQUESTED, got %q", stored.Status)
	}

	// redelivery, shadow already committed so none is passed
	err, again, created := db.GetOrCreateFollowWithAuthor(nil, domain.NewFollow(alice.Id, shadow.Id))
	if err != nil {
		t.Fatalf("Redelivery failed: %v", err)
	}
	if created {
		t.Error("Redelivery should not create a second edge")
	}
	if again.Id != stored.Id {
		t.Error("Redelivery should return the original edge")
	}
}

func TestGetOrCreateLikeWithAuthorIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	post := createTestPost(t, db, alice, "first", domain.VisibilityPublic)
	shadow := shadowAuthor("7@nodetwo")

	like := domain.NewLike(shadow, post.Fqid)
	err, stored, created := db.GetOrCreateLikeWithAuthor(shadow, like)
	if err != nil {
		t.Fatalf("GetOrCreateLikeWithAuthor failed: %v", err)
	}
	if !created {
		t.Fatal("First delivery should create the like")
	}

	err, again, created := db.GetOrCreateLikeWithAuthor(nil, domain.NewLike(shadow, post.Fqid))
	if err != nil {
		t.Fatalf("Redelivery failed: %v", err)
	}
	if created {
		t.Error("Redelivery should not create a second like")
	}
	if again.Id != stored.Id {
		t.Error("Redelivery should return the original like")
	}

	err, count := db.CountLikesOfObject(post.Fqid)
	if err != nil {
		t.Fatalf("CountLikesOfObject failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one like, got %d", count)
	}
}

func TestCreateCommentWithAuthorAlwaysAppends(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	post := createTestPost(t, db, alice, "first", domain.VisibilityPublic)
	shadow := shadowAuthor("7@nodetwo")

	first := domain.NewComment(shadow, post, "same text", "text/plain")
	if err := db.CreateCommentWithAuthor(shadow, first); err != nil {
		t.Fatalf("First comment failed: %v", err)
	}

	second := domain.NewComment(shadow, post, "same text", "text/plain")
	if err := db.CreateCommentWithAuthor(nil, second); err != nil {
		t.Fatalf("Second comment failed: %v", err)
	}

	err, comments := db.ReadCommentsByPost(post.Id)
	if err != nil {
		t.Fatalf("ReadCommentsByPost failed: %v", err)
	}
	if len(*comments) != 2 {
		t.Errorf("Expected two comment rows, got %d", len(*comments))
	}
}
