package federation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/deemkeen/mammut/domain"
)

// Syncer pulls public posts from every active peer and merges them through
// the inbox pipeline. Each peer gets a single attempt per run; failures are
// reported, never retried.
type Syncer struct {
	nodes    NodeStore
	pipeline *Pipeline
	client   *http.Client
	pageSize int
}

func NewSyncer(nodes NodeStore, pipeline *Pipeline, timeout time.Duration, pageSize int) *Syncer {
	return &Syncer{
		nodes:    nodes,
		pipeline: pipeline,
		client:   &http.Client{Timeout: timeout},
		pageSize: pageSize,
	}
}

type postPage struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// PullPublicPosts fetches the public feed of every active peer concurrently.
// One outcome per peer, a failing peer never affects the others.
func (s *Syncer) PullPublicPosts() ([]domain.SyncOutcome, error) {
	err, nodes := s.nodes.ReadActiveNodes()
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.SyncOutcome, len(*nodes))
	var wg sync.WaitGroup
	for i, node := range *nodes {
		wg.Add(1)
		go func(i int, node domain.RemoteNode) {
			defer wg.Done()
			outcomes[i] = s.pullNode(&node)
		}(i, node)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.Error != "" {
			log.Printf("Sync: Node %s failed: %s", o.NodeURL, o.Error)
		} else {
			log.Printf("Sync: Node %s delivered %d new posts", o.NodeURL, o.Posts)
		}
	}
	return outcomes, nil
}

func (s *Syncer) pullNode(node *domain.RemoteNode) domain.SyncOutcome {
	outcome := domain.SyncOutcome{NodeURL: node.URL}

	for page := 1; ; page++ {
		body, err := s.fetchPage(node, page)
		if err != nil {
			outcome.Error = err.Error()
			return outcome
		}

		for _, raw := range body.Results {
			created, err := s.mergePost(raw)
			if err != nil {
				// A malformed or locally-owned entry is skipped, the rest
				// of the page still merges.
				log.Printf("Sync: Skipping entry from %s: %v", node.URL, err)
				continue
			}
			if created {
				outcome.Posts++
			}
		}

		if body.Next == nil || len(body.Results) == 0 {
			return outcome
		}
	}
}

func (s *Syncer) fetchPage(node *domain.RemoteNode, page int) (*postPage, error) {
	endpoint := fmt.Sprintf("%s/api/posts/?page=%d&size=%d", node.URL, page, s.pageSize)
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(node.Username, node.Password)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: peer returned status %d", domain.ErrPeerUnreachable, resp.StatusCode)
	}

	var body postPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding feed page: %v", domain.ErrPeerUnreachable, err)
	}
	return &body, nil
}

func (s *Syncer) mergePost(raw json.RawMessage) (bool, error) {
	env, err := domain.ParseEnvelope(raw)
	if err != nil {
		return false, err
	}
	if env.Type != domain.EnvelopePost {
		return false, fmt.Errorf("%w: expected a post entry, got %q", domain.ErrValidation, env.Type)
	}
	if env.Post.Visibility != "" && env.Post.Visibility != domain.VisibilityPublic {
		// Only the public feed is mirrored between nodes.
		return false, nil
	}

	created, err := s.pipeline.deliverPost(env.Post)
	if errors.Is(err, domain.ErrAuth) {
		// Our own post reflected back by the peer.
		return false, nil
	}
	return created, err
}
