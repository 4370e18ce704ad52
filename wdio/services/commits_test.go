package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastorsj/webdriverio-client/wdio"
)

func TestCommitsGet(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"sha": "abc123", "author": {"login": "sam"}, "committer": {"login": "web-flow"}}`))
	}))
	defer server.Close()

	client := wdio.NewClient(server.URL, wdio.WithHeader("Authorization", "token gh-token"))
	svc := NewCommitsService(client)

	commit, err := svc.Get(context.Background(), "pastorsj/some-app", "abc123")
	require.NoError(t, err)

	assert.Equal(t, "/repos/pastorsj/some-app/commits/abc123", gotPath)
	assert.Equal(t, "token gh-token", gotAuth)
	assert.Equal(t, "abc123", commit.SHA)
	assert.Equal(t, "sam", commit.Author.Login)
	assert.Equal(t, "web-flow", commit.Committer.Login)
}

func TestCommitsGetNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	svc := NewCommitsService(wdio.NewClient(server.URL))
	_, err := svc.Get(context.Background(), "pastorsj/some-app", "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
