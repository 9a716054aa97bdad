package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deemkeen/mammut/domain"
)

const githubEventsBody = `[
	{
		"type": "IssuesEvent",
		"id": "12345",
		"repo": {"name": "testrepo"},
		"payload": {"action": "opened", "issue": {"title": "Test Issue", "html_url": "http://github.com/issue/123"}},
		"created_at": "2024-01-01T12:00:00Z"
	},
	{
		"type": "WatchEvent",
		"id": "777",
		"repo": {"name": "testrepo"}
	}
]`

func githubPeer(t *testing.T, body string) *httptest.Server {
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(peer.Close)
	return peer
}

func TestGithubActivityWithoutProfile(t *testing.T) {
	router, server, database := setupTestServer(t)
	author := testAuthor(t, server, database, "alice")

	w := doJSON(router, "POST", "/api/authors/"+author.Id.String()+"/github", "", authorHeader(author))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 without a github profile, got %d", w.Code)
	}

	err, count := database.CountPublicPosts()
	if err != nil {
		t.Fatalf("CountPublicPosts failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no posts, got %d", count)
	}
}

func TestGithubActivityImportsOncePerEvent(t *testing.T) {
	router, server, database := setupTestServer(t)
	peer := githubPeer(t, githubEventsBody)
	server.githubAPI = peer.URL

	author := testAuthor(t, server, database, "alice")
	author.Github = "http://github.com/testuser"
	if err := database.UpdateAuthorProfile(author); err != nil {
		t.Fatalf("Failed to set github profile: %v", err)
	}

	w := doJSON(router, "POST", "/api/authors/"+author.Id.String()+"/github", "", authorHeader(author))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Created int `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Created != 1 {
		t.Errorf("Expected 1 imported event, got %d", body.Created)
	}

	err, posts := database.ReadPublicPosts(50, 0)
	if err != nil {
		t.Fatalf("ReadPublicPosts failed: %v", err)
	}
	if len(*posts) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(*posts))
	}
	post := (*posts)[0]
	if post.Title != "testuser opened an issue" {
		t.Errorf("Unexpected title %q", post.Title)
	}
	if post.ContentType != "text/markdown" {
		t.Errorf("Expected markdown content type, got %q", post.ContentType)
	}
	if post.Visibility != domain.VisibilityPublic {
		t.Errorf("Expected public visibility, got %q", post.Visibility)
	}

	// importing again creates nothing new
	w = doJSON(router, "POST", "/api/authors/"+author.Id.String()+"/github", "", authorHeader(author))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 on reimport, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Created != 0 {
		t.Errorf("Reimport should create nothing, got %d", body.Created)
	}
	err, count := database.CountPublicPosts()
	if err != nil {
		t.Fatalf("CountPublicPosts failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 post after reimport, got %d", count)
	}
}

func TestGithubActivityUnreachable(t *testing.T) {
	router, server, database := setupTestServer(t)
	peer := githubPeer(t, "")
	peer.Close()
	server.githubAPI = peer.URL

	author := testAuthor(t, server, database, "alice")
	author.Github = "http://github.com/testuser"
	if err := database.UpdateAuthorProfile(author); err != nil {
		t.Fatalf("Failed to set github profile: %v", err)
	}

	w := doJSON(router, "POST", "/api/authors/"+author.Id.String()+"/github", "", authorHeader(author))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for an unreachable github API, got %d", w.Code)
	}
}

func TestGithubActivityOwnerOnly(t *testing.T) {
	router, server, database := setupTestServer(t)
	alice := testAuthor(t, server, database, "alice")
	bob := testAuthor(t, server, database, "bob")

	w := doJSON(router, "POST", "/api/authors/"+alice.Id.String()+"/github", "", authorHeader(bob))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 importing for another author, got %d", w.Code)
	}
}
