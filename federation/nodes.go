package federation

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deemkeen/mammut/domain"
)

// Registry manages the federation peer records and authenticates inbound
// peer requests against them.
type Registry struct {
	nodes  NodeStore
	client *http.Client
}

func NewRegistry(nodes NodeStore, timeout time.Duration) *Registry {
	return &Registry{
		nodes:  nodes,
		client: &http.Client{Timeout: timeout},
	}
}

// RegisterOrUpdateNode upserts a peer keyed by URL and immediately attempts
// an authentication handshake against it. The token the peer hands back is
// stored but advisory; basic credentials alone are enough to federate.
func (r *Registry) RegisterOrUpdateNode(rawURL, username, password string) (*domain.RemoteNode, bool, error) {
	if rawURL == "" || username == "" || password == "" {
		return nil, false, fmt.Errorf("%w: url, username and password are required", domain.ErrValidation)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, false, fmt.Errorf("%w: invalid node url %q", domain.ErrValidation, rawURL)
	}

	node := domain.NewRemoteNode(strings.TrimSuffix(rawURL, "/"), username, password)

	token, err := r.handshake(node)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", domain.ErrPeerUnreachable, node.URL, err)
	}
	node.Token = token

	err, created := r.nodes.UpsertRemoteNode(node)
	if err != nil {
		return nil, false, err
	}
	log.Printf("Registry: Registered node %s (created: %v)", node.URL, created)
	return node, created, nil
}

// handshake logs into the peer and returns whatever session token it hands
// out. An empty token with a reachable peer is fine.
func (r *Registry) handshake(node *domain.RemoteNode) (string, error) {
	endpoint := fmt.Sprintf("%s/api/login/", node.URL)
	req, err := http.NewRequest("POST", endpoint, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(node.Username, node.Password)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 500 {
		return "", fmt.Errorf("peer returned status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// No parsable token is not an error, credentials still work.
		return "", nil
	}
	return body.Token, nil
}

// VerifyNodeCredentials checks inbound Basic credentials against an active
// peer record. Unknown or inactive credentials fail closed.
func (r *Registry) VerifyNodeCredentials(username, password string) (*domain.RemoteNode, error) {
	err, node := r.nodes.ReadNodeByUsername(username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown node credentials", domain.ErrAuth)
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(node.Password), []byte(password)) != 1 {
		return nil, fmt.Errorf("%w: bad node credentials", domain.ErrAuth)
	}
	return node, nil
}
