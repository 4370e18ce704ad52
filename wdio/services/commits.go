package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pastorsj/webdriverio-client/wdio/models"
)

// CommitsService reads commit metadata from the version-control
// hosting API. The client it is built with must be bound to the API
// base URL and carry the read-only auth header.
type CommitsService struct {
	client ClientInterface
}

func NewCommitsService(client ClientInterface) *CommitsService {
	return &CommitsService{
		client: client,
	}
}

// Get fetches the commit identified by repoSlug ("owner/repo") and sha.
func (s *CommitsService) Get(ctx context.Context, repoSlug, sha string) (*models.CommitDetail, error) {
	req, err := s.client.NewRequest(ctx, "GET", fmt.Sprintf("/repos/%s/commits/%s", repoSlug, sha), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("commit lookup failed (%d): %s", resp.StatusCode, string(body))
	}

	var commit models.CommitDetail
	if err := json.NewDecoder(resp.Body).Decode(&commit); err != nil {
		return nil, fmt.Errorf("failed to decode commit: %w", err)
	}

	return &commit, nil
}
