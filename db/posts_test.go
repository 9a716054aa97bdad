package db

import (
	"errors"
	"testing"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

func TestCreateAndReadPost(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	post := createTestPost(t, db, alice, "first", domain.VisibilityPublic)

	err, byFqid := db.ReadPostByFqid(post.Fqid)
	if err != nil {
		t.Fatalf("ReadPostByFqid failed: %v", err)
	}
	if byFqid.Id != post.Id || byFqid.Title != "first" {
		t.Errorf("Read back the wrong post: %s", byFqid.ToString())
	}

	err, byId := db.ReadPostById(post.Id)
	if err != nil {
		t.Fatalf("ReadPostById failed: %v", err)
	}
	if byId.Fqid != post.Fqid {
		t.Errorf("Expected fqid %q, got %q", post.Fqid, byId.Fqid)
	}
}

func TestReadPostNotFound(t *testing.T) {
	db := setupTestDB(t)

	err, _ := db.ReadPostByFqid("http://nodetwo/api/authors/7/posts/404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	err, _ = db.ReadPostById(uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDuplicatePostFqidConflicts(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	post := createTestPost(t, db, alice, "first", domain.VisibilityPublic)

	dup := domain.NewPost(alice, "other", "", "text/plain", "other", domain.VisibilityPublic)
	dup.Fqid = post.Fqid
	if err := db.CreatePost(dup); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Expected ErrConflict on duplicate fqid, got %v", err)
	}
}

func TestUpdatePostContentKeepsAuthorAndVisibility(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	post := createTestPost(t, db, alice, "first", domain.VisibilityFriends)

	if err := db.UpdatePostContent(post.Fqid, "edited", "desc", "text/markdown", "new body"); err != nil {
		t.Fatalf("UpdatePostContent failed: %v", err)
	}

	err, updated := db.ReadPostByFqid(post.Fqid)
	if err != nil {
		t.Fatalf("ReadPostByFqid failed: %v", err)
	}
	if updated.Title != "edited" || updated.Content != "new body" {
		t.Error("Content fields not updated")
	}
	if updated.Visibility != domain.VisibilityFriends {
		t.Errorf("Visibility changed to %q", updated.Visibility)
	}
	if updated.AuthorId != alice.Id {
		t.Error("Author changed")
	}
}

func TestTombstonePostCascadesToShares(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	bob := createTestAuthor(t, db, "bob")

	original := createTestPost(t, db, alice, "original", domain.VisibilityPublic)
	share := domain.NewSharedPost(bob, original)
	if err := db.CreatePost(share); err != nil {
		t.Fatalf("Failed to create share: %v", err)
	}

	if err := db.TombstonePost(original.Id); err != nil {
		t.Fatalf("TombstonePost failed: %v", err)
	}

	err, deadOriginal := db.ReadPostById(original.Id)
	if err != nil {
		t.Fatalf("ReadPostById failed: %v", err)
	}
	if !deadOriginal.IsDeleted {
		t.Error("Original not tombstoned")
	}
	if deadOriginal.Content != original.Content {
		t.Error("Tombstoning should not clear content")
	}

	err, deadShare := db.ReadPostById(share.Id)
	if err != nil {
		t.Fatalf("ReadPostById failed: %v", err)
	}
	if !deadShare.IsDeleted {
		t.Error("Share not tombstoned with its original")
	}

	err, public := db.ReadPublicPosts(10, 0)
	if err != nil {
		t.Fatalf("ReadPublicPosts failed: %v", err)
	}
	if len(*public) != 0 {
		t.Errorf("Tombstoned posts still listed: %d", len(*public))
	}
}

func TestStreamVisibilityRules(t *testing.T) {
	db := setupTestDB(t)
	viewer := createTestAuthor(t, db, "viewer")
	friend := createTestAuthor(t, db, "friend")
	followed := createTestAuthor(t, db, "followed")
	stranger := createTestAuthor(t, db, "stranger")

	// viewer and friend are mutual friends
	db.GetOrCreateFollow(friend.Id, viewer.Id)
	db.AcceptFollow(friend.Id, viewer.Id)
	db.GetOrCreateFollow(viewer.Id, friend.Id)
	db.AcceptFollow(viewer.Id, friend.Id)

	// viewer follows followed, one direction only
	db.GetOrCreateFollow(followed.Id, viewer.Id)
	db.AcceptFollow(followed.Id, viewer.Id)

	friendPublic := createTestPost(t, db, friend, "friend-public", domain.VisibilityPublic)
	friendFriends := createTestPost(t, db, friend, "friend-friends", domain.VisibilityFriends)
	friendUnlisted := createTestPost(t, db, friend, "friend-unlisted", domain.VisibilityUnlisted)
	followedUnlisted := createTestPost(t, db, followed, "followed-unlisted", domain.VisibilityUnlisted)
	followedFriends := createTestPost(t, db, followed, "followed-friends", domain.VisibilityFriends)
	strangerPublic := createTestPost(t, db, stranger, "stranger-public", domain.VisibilityPublic)
	strangerUnlisted := createTestPost(t, db, stranger, "stranger-unlisted", domain.VisibilityUnlisted)
	ownPost := createTestPost(t, db, viewer, "own", domain.VisibilityPublic)

	err, posts := db.ReadStreamPosts(viewer.Id, viewer.Id, true, 50, 0)
	if err != nil {
		t.Fatalf("ReadStreamPosts failed: %v", err)
	}

	got := map[uuid.UUID]bool{}
	for _, p := range *posts {
		got[p.Id] = true
	}

	for _, want := range []*domain.Post{friendPublic, friendFriends, friendUnlisted, followedUnlisted, strangerPublic} {
		if !got[want.Id] {
			t.Errorf("Expected %q in stream", want.Title)
		}
	}
	for _, dontWant := range []*domain.Post{followedFriends, strangerUnlisted, ownPost} {
		if got[dontWant.Id] {
			t.Errorf("Did not expect %q in stream", dontWant.Title)
		}
	}

	err, count := db.CountStreamPosts(viewer.Id, viewer.Id, true)
	if err != nil {
		t.Fatalf("CountStreamPosts failed: %v", err)
	}
	if count != len(*posts) {
		t.Errorf("Count %d does not match listing %d", count, len(*posts))
	}

	// anonymous viewers only get the public rule
	err, anon := db.ReadStreamPosts(uuid.Nil, uuid.Nil, false, 50, 0)
	if err != nil {
		t.Fatalf("ReadStreamPosts anonymous failed: %v", err)
	}
	for _, p := range *anon {
		if p.Visibility != domain.VisibilityPublic {
			t.Errorf("Anonymous stream leaked %q post %q", p.Visibility, p.Title)
		}
	}
}

func TestReadPostsByAuthorFiltersVisibility(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")

	createTestPost(t, db, alice, "pub", domain.VisibilityPublic)
	createTestPost(t, db, alice, "unl", domain.VisibilityUnlisted)
	createTestPost(t, db, alice, "fri", domain.VisibilityFriends)

	err, posts := db.ReadPostsByAuthor(alice.Id, []string{domain.VisibilityPublic}, 10, 0)
	if err != nil {
		t.Fatalf("ReadPostsByAuthor failed: %v", err)
	}
	if len(*posts) != 1 || (*posts)[0].Title != "pub" {
		t.Errorf("Expected only the public post, got %d", len(*posts))
	}

	err, posts = db.ReadPostsByAuthor(alice.Id,
		[]string{domain.VisibilityPublic, domain.VisibilityUnlisted, domain.VisibilityFriends}, 10, 0)
	if err != nil {
		t.Fatalf("ReadPostsByAuthor failed: %v", err)
	}
	if len(*posts) != 3 {
		t.Errorf("Expected all three posts, got %d", len(*posts))
	}
}

func TestReadSharesOfPost(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestAuthor(t, db, "alice")
	bob := createTestAuthor(t, db, "bob")

	original := createTestPost(t, db, alice, "original", domain.VisibilityPublic)
	share := domain.NewSharedPost(bob, original)
	if err := db.CreatePost(share); err != nil {
		t.Fatalf("Failed to create share: %v", err)
	}

	err, shares := db.ReadSharesOfPost(original.Id)
	if err != nil {
		t.Fatalf("ReadSharesOfPost failed: %v", err)
	}
	if len(*shares) != 1 || (*shares)[0].Id != share.Id {
		t.Errorf("Expected exactly the one share, got %d", len(*shares))
	}
}
