package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/deemkeen/mammut/domain"
	"github.com/gin-gonic/gin"
)

// githubEvent is the slice of the GitHub events API we render into posts.
type githubEvent struct {
	Type string `json:"type"`
	Id   string `json:"id"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Action string `json:"action"`
		Issue  struct {
			Title   string `json:"title"`
			HtmlURL string `json:"html_url"`
		} `json:"issue"`
		PullRequest struct {
			Title   string `json:"title"`
			HtmlURL string `json:"html_url"`
		} `json:"pull_request"`
		Commits []struct {
			Message string `json:"message"`
		} `json:"commits"`
	} `json:"payload"`
}

// HandleGithubActivity imports the author's recent GitHub events as public
// markdown posts, keyed by activity id so repeated imports create nothing
// new.
func (s *Server) HandleGithubActivity(c *gin.Context) {
	author := c.MustGet(ctxAuthor).(*domain.Author)
	if c.Param("author") != author.Id.String() && c.Param("author") != author.Username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Can only import your own activity"})
		return
	}

	username := githubUsername(author.Github)
	if username == "" {
		c.JSON(http.StatusOK, gin.H{"message": "No github profile configured"})
		return
	}

	events, err := s.fetchGithubEvents(username)
	if err != nil {
		respondError(c, err)
		return
	}

	created := 0
	for _, event := range events {
		title, content, ok := renderGithubEvent(username, &event)
		if !ok {
			continue
		}
		post := domain.NewPost(author, title, event.Repo.Name, "text/markdown", content, domain.VisibilityPublic)
		err, fresh := s.db.CreateGithubPost(event.Id, post)
		if err != nil {
			respondError(c, err)
			return
		}
		if fresh {
			created++
		}
	}

	log.Printf("Github: Imported %d new events for %s", created, author.Username)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Posts created from github activity",
		"created": created,
	})
}

func (s *Server) fetchGithubEvents(username string) ([]githubEvent, error) {
	endpoint := fmt.Sprintf("%s/users/%s/events?per_page=30", s.githubAPI, username)
	resp, err := s.githubClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: github: %v", domain.ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: github returned status %d", domain.ErrPeerUnreachable, resp.StatusCode)
	}

	var events []githubEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("%w: github: %v", domain.ErrPeerUnreachable, err)
	}
	return events, nil
}

// githubUsername extracts the account name from a profile link like
// "http://github.com/testuser".
func githubUsername(link string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(link), "/")
	if trimmed == "" {
		return ""
	}
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}

func renderGithubEvent(username string, event *githubEvent) (string, string, bool) {
	switch event.Type {
	case "IssuesEvent":
		title := fmt.Sprintf("%s %s an issue", username, event.Payload.Action)
		content := fmt.Sprintf("[%s](%s)", event.Payload.Issue.Title, event.Payload.Issue.HtmlURL)
		return title, content, true
	case "PullRequestEvent":
		title := fmt.Sprintf("%s %s a pull request", username, event.Payload.Action)
		content := fmt.Sprintf("[%s](%s)", event.Payload.PullRequest.Title, event.Payload.PullRequest.HtmlURL)
		return title, content, true
	case "PushEvent":
		title := fmt.Sprintf("%s pushed to %s", username, event.Repo.Name)
		var messages []string
		for _, commit := range event.Payload.Commits {
			messages = append(messages, "- "+commit.Message)
		}
		return title, strings.Join(messages, "\n"), true
	default:
		return "", "", false
	}
}
