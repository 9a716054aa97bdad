package stream

import (
	"errors"
	"testing"

	"github.com/deemkeen/mammut/db"
	"github.com/deemkeen/mammut/domain"
)

const testHost = "http://nodeone/api/"

func setupAssembler(t *testing.T) (*Assembler, *db.DB) {
	database, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewAssembler(database, database), database
}

func author(t *testing.T, database *db.DB, username string) *domain.Author {
	a := domain.NewLocalAuthor(testHost, username, "")
	if err := database.CreateAuthor(a); err != nil {
		t.Fatalf("Failed to create author %s: %v", username, err)
	}
	return a
}

func post(t *testing.T, database *db.DB, by *domain.Author, title, visibility string) *domain.Post {
	p := domain.NewPost(by, title, "", "text/plain", "body", visibility)
	if err := database.CreatePost(p); err != nil {
		t.Fatalf("Failed to create post %s: %v", title, err)
	}
	return p
}

func follow(t *testing.T, database *db.DB, user, follower *domain.Author) {
	if err, _, _ := database.GetOrCreateFollow(user.Id, follower.Id); err != nil {
		t.Fatalf("GetOrCreateFollow failed: %v", err)
	}
	if err := database.AcceptFollow(user.Id, follower.Id); err != nil {
		t.Fatalf("AcceptFollow failed: %v", err)
	}
}

func titles(posts *[]domain.Post) map[string]bool {
	set := map[string]bool{}
	for _, p := range *posts {
		set[p.Title] = true
	}
	return set
}

func TestAssembleStreamForViewer(t *testing.T) {
	assembler, database := setupAssembler(t)
	viewer := author(t, database, "viewer")
	friend := author(t, database, "friend")
	stranger := author(t, database, "stranger")

	follow(t, database, friend, viewer)
	follow(t, database, viewer, friend)

	post(t, database, friend, "friend-friends", domain.VisibilityFriends)
	post(t, database, friend, "friend-unlisted", domain.VisibilityUnlisted)
	post(t, database, stranger, "stranger-public", domain.VisibilityPublic)
	post(t, database, stranger, "stranger-friends", domain.VisibilityFriends)
	post(t, database, viewer, "own-public", domain.VisibilityPublic)

	posts, count, err := assembler.AssembleStream(viewer, true, 1, 50)
	if err != nil {
		t.Fatalf("AssembleStream failed: %v", err)
	}

	got := titles(posts)
	for _, want := range []string{"friend-friends", "friend-unlisted", "stranger-public"} {
		if !got[want] {
			t.Errorf("Expected %q in stream", want)
		}
	}
	for _, dontWant := range []string{"stranger-friends", "own-public"} {
		if got[dontWant] {
			t.Errorf("Did not expect %q in stream", dontWant)
		}
	}
	if count != len(*posts) {
		t.Errorf("Count %d does not match listing %d", count, len(*posts))
	}
}

func TestAssembleStreamAnonymous(t *testing.T) {
	assembler, database := setupAssembler(t)
	alice := author(t, database, "alice")

	post(t, database, alice, "pub", domain.VisibilityPublic)
	post(t, database, alice, "unl", domain.VisibilityUnlisted)
	post(t, database, alice, "fri", domain.VisibilityFriends)

	posts, count, err := assembler.AssembleStream(nil, false, 1, 50)
	if err != nil {
		t.Fatalf("AssembleStream failed: %v", err)
	}
	if len(*posts) != 1 || (*posts)[0].Title != "pub" {
		t.Errorf("Anonymous stream should hold only the public post, got %d", len(*posts))
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
}

func TestAssembleStreamPaging(t *testing.T) {
	assembler, database := setupAssembler(t)
	alice := author(t, database, "alice")

	for _, title := range []string{"one", "two", "three"} {
		post(t, database, alice, title, domain.VisibilityPublic)
	}

	posts, count, err := assembler.AssembleStream(nil, false, 1, 2)
	if err != nil {
		t.Fatalf("AssembleStream failed: %v", err)
	}
	if len(*posts) != 2 {
		t.Errorf("Expected 2 posts on page 1, got %d", len(*posts))
	}
	if count != 3 {
		t.Errorf("Expected total count 3, got %d", count)
	}

	posts, _, err = assembler.AssembleStream(nil, false, 2, 2)
	if err != nil {
		t.Fatalf("AssembleStream page 2 failed: %v", err)
	}
	if len(*posts) != 1 {
		t.Errorf("Expected 1 post on page 2, got %d", len(*posts))
	}
}

func TestAssembleStreamRejectsBadPaging(t *testing.T) {
	assembler, _ := setupAssembler(t)
	if _, _, err := assembler.AssembleStream(nil, false, 0, 10); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestAssembleAuthorFeedLadder(t *testing.T) {
	assembler, database := setupAssembler(t)
	owner := author(t, database, "owner")
	friend := author(t, database, "friend")
	follower := author(t, database, "follower")
	stranger := author(t, database, "stranger")

	// friend is mutual, follower follows one way
	follow(t, database, owner, friend)
	follow(t, database, friend, owner)
	follow(t, database, owner, follower)

	post(t, database, owner, "pub", domain.VisibilityPublic)
	post(t, database, owner, "unl", domain.VisibilityUnlisted)
	post(t, database, owner, "fri", domain.VisibilityFriends)
	deleted := post(t, database, owner, "gone", domain.VisibilityPublic)
	if err := database.TombstonePost(deleted.Id); err != nil {
		t.Fatalf("TombstonePost failed: %v", err)
	}

	cases := []struct {
		name   string
		viewer *domain.Author
		want   []string
	}{
		{"owner sees all live posts", owner, []string{"pub", "unl", "fri"}},
		{"friend sees public, friends and unlisted", friend, []string{"pub", "unl", "fri"}},
		{"follower sees public and unlisted", follower, []string{"pub", "unl"}},
		{"stranger sees public only", stranger, []string{"pub"}},
		{"anonymous sees public only", nil, []string{"pub"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			posts, err := assembler.AssembleAuthorFeed(tc.viewer, owner, 1, 50)
			if err != nil {
				t.Fatalf("AssembleAuthorFeed failed: %v", err)
			}
			got := titles(posts)
			if len(got) != len(tc.want) {
				t.Errorf("Expected %d posts, got %d", len(tc.want), len(got))
			}
			for _, want := range tc.want {
				if !got[want] {
					t.Errorf("Expected %q in feed", want)
				}
			}
			if got["gone"] {
				t.Error("Tombstoned post leaked into the feed")
			}
		})
	}
}
