package main

import (
	"archive/tar"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastorsj/webdriverio-client/wdio"
	"github.com/pastorsj/webdriverio-client/wdio/config"
)

// chdir switches to dir for the duration of the test, restoring the
// previous working directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}

// resultArchiveBytes builds a tar.gz holding a single report file.
func resultArchiveBytes(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "r.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	report := []byte("3 passed")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "report.txt",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(report)),
	}))
	_, err = tw.Write(report)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// testServer scripts the full server conversation of one run.
type testServer struct {
	*httptest.Server
	statusChecks int
	submitBody   string
}

func newTestServer(t *testing.T, manifest string, archive []byte) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/":
			if err := r.ParseMultipartForm(8 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			ts.submitBody = r.FormValue("entry-point") + "|" + r.FormValue("tests-folder") +
				"|" + r.Header.Get("username") + "|" + r.Header.Get("token")
			w.Write([]byte("7"))
		case r.URL.Path == "/status/7":
			ts.statusChecks++
			if ts.statusChecks == 1 {
				w.Write([]byte("not found"))
				return
			}
			w.Write([]byte("7"))
		case r.URL.Path == "/screenshots/output-7.json":
			w.Write([]byte(manifest))
		case r.URL.Path == "/r.tar.gz":
			w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func pipelineConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()

	testsDir := filepath.Join(t.TempDir(), "tests-e2e")
	require.NoError(t, os.MkdirAll(testsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(testsDir, "login.spec.js"), []byte("it works"), 0644))

	identityPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(identityPath, []byte("username: sam\ntoken: secret\n"), 0600))

	return &config.Config{
		ServerURL:          serverURL,
		InitialDelaySecs:   5,
		PollIntervalSecs:   2,
		MaxWaitSecs:        60,
		TestsDir:           testsDir,
		BuildDir:           "dist",
		GithubAPIURL:       "http://127.0.0.1:1", // identity is local; never dialed
		IdentityConfigPath: identityPath,
	}
}

func TestPipelinePassingRun(t *testing.T) {
	ts := newTestServer(t, `{"exitCode": 0, "output": "r.tar.gz", "info": "ok"}`, resultArchiveBytes(t))

	chdir(t, t.TempDir())

	cfg := pipelineConfig(t, ts.URL)
	p := newPipeline(cfg)

	var slept []time.Duration
	p.status.Sleep = func(d time.Duration) { slept = append(slept, d) }

	code, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	// One pending answer means exactly two checks: the initial-delay
	// sleep plus a single poll-interval sleep.
	assert.Equal(t, 2, ts.statusChecks)
	assert.Equal(t, []time.Duration{5 * time.Second, 2 * time.Second}, slept)

	// Identity and path fields rode along with the upload.
	assert.Equal(t, "tests-e2e|tests-e2e|sam|secret", ts.submitBody)

	// Results were unpacked and the downloaded archive cleaned up.
	assert.FileExists(t, "report.txt")
	assert.NoFileExists(t, "r.tar.gz")
}

func TestPipelineFailingRun(t *testing.T) {
	ts := newTestServer(t, `{"exitCode": 2, "output": "r.tar.gz", "info": "2 failed"}`, resultArchiveBytes(t))

	chdir(t, t.TempDir())

	cfg := pipelineConfig(t, ts.URL)
	p := newPipeline(cfg)
	p.status.Sleep = func(time.Duration) {}

	code, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestPipelineSubmitRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Invalid token"))
	}))
	defer server.Close()

	chdir(t, t.TempDir())

	cfg := pipelineConfig(t, server.URL)
	p := newPipeline(cfg)
	p.status.Sleep = func(time.Duration) {}

	code, err := p.Run(context.Background(), nil)
	assert.Equal(t, 1, code)

	var pipeErr *wdio.PipelineError
	require.True(t, errors.As(err, &pipeErr))
	assert.Equal(t, "submit", pipeErr.Stage)

	var subErr *wdio.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Contains(t, subErr.Error(), "Invalid token")
}

func TestPipelineIdentityFailureAbortsBeforeUpload(t *testing.T) {
	uploads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
	}))
	defer server.Close()

	cfg := pipelineConfig(t, server.URL)
	// No local identity and no CI commit information.
	cfg.IdentityConfigPath = filepath.Join(t.TempDir(), "does-not-exist.yml")

	p := newPipeline(cfg)
	code, err := p.Run(context.Background(), nil)
	assert.Equal(t, 1, code)

	var pipeErr *wdio.PipelineError
	require.True(t, errors.As(err, &pipeErr))
	assert.Equal(t, "identity", pipeErr.Stage)
	assert.Equal(t, 0, uploads)
}

func TestRenderOutcome(t *testing.T) {
	assert.Contains(t, renderOutcome(0), "all tests passed")
	assert.Contains(t, renderOutcome(1), "test run failed")
}
