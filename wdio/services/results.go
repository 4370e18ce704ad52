package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pastorsj/webdriverio-client/wdio"
	"github.com/pastorsj/webdriverio-client/wdio/archive"
	"github.com/pastorsj/webdriverio-client/wdio/models"
	"github.com/pastorsj/webdriverio-client/wdio/utils"
)

// ResultsService downloads the results manifest and archive for a
// finished run and maps the manifest to a process exit code.
type ResultsService struct {
	client ClientInterface
}

func NewResultsService(client ClientInterface) *ResultsService {
	return &ResultsService{
		client: client,
	}
}

// Fetch retrieves the manifest for token, downloads the result archive
// the manifest points at, and unpacks it next to the download. It
// returns the manifest and the local archive path so the caller can
// clean the archive up once the outcome is decided.
func (s *ResultsService) Fetch(ctx context.Context, token string) (models.ResultsManifest, string, error) {
	var manifest models.ResultsManifest

	req, err := s.client.NewRequest(ctx, "GET", fmt.Sprintf("/screenshots/output-%s.json", token), nil)
	if err != nil {
		return manifest, "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return manifest, "", fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return manifest, "", &wdio.ResultsParseError{Err: err}
	}

	localPath := filepath.Base(manifest.Output)
	if err := s.download(ctx, "/"+manifest.Output, localPath); err != nil {
		return manifest, "", err
	}

	if err := archive.Extract(localPath, "."); err != nil {
		return manifest, localPath, fmt.Errorf("unpacking results: %w", err)
	}

	return manifest, localPath, nil
}

// Interpret logs the manifest's summary and collapses its exit code to
// the process exit status: 0 when every test passed, 1 otherwise.
func (s *ResultsService) Interpret(manifest models.ResultsManifest) int {
	utils.Info(manifest.Info, "exitCode", manifest.ExitCode)
	if manifest.ExitCode == 0 {
		return 0
	}
	return 1
}

// download saves the body of a GET to a local file.
func (s *ResultsService) download(ctx context.Context, path, dest string) error {
	req, err := s.client.NewRequest(ctx, "GET", path, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", path, err)
	}
	defer resp.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("saving %s: %w", dest, err)
	}
	return nil
}
