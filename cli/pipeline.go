package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/pastorsj/webdriverio-client/wdio"
	"github.com/pastorsj/webdriverio-client/wdio/archive"
	"github.com/pastorsj/webdriverio-client/wdio/config"
	"github.com/pastorsj/webdriverio-client/wdio/identity"
	"github.com/pastorsj/webdriverio-client/wdio/models"
	"github.com/pastorsj/webdriverio-client/wdio/services"
	"github.com/pastorsj/webdriverio-client/wdio/utils"
)

// pipeline runs the five stages strictly in order: resolve identity,
// submit, wait, fetch results, interpret. Each stage's output is the
// next stage's only input; the first unrecovered error aborts the run.
type pipeline struct {
	cfg *config.Config

	resolver    *identity.Resolver
	submissions *services.SubmissionService
	status      *services.StatusService
	results     *services.ResultsService
}

func newPipeline(cfg *config.Config) *pipeline {
	server := wdio.NewClient(cfg.ServerURL)

	githubOpts := []wdio.ClientOption{}
	if cfg.GithubToken != "" {
		githubOpts = append(githubOpts, wdio.WithHeader("Authorization", "token "+cfg.GithubToken))
	}
	github := wdio.NewClient(cfg.GithubAPIURL, githubOpts...)

	return &pipeline{
		cfg:         cfg,
		resolver:    identity.NewResolver(cfg, services.NewCommitsService(github)),
		submissions: services.NewSubmissionService(server),
		status:      services.NewStatusService(server),
		results:     services.NewResultsService(server),
	}
}

// Run executes the pipeline and returns the process exit code.
func (p *pipeline) Run(ctx context.Context, extraPaths []string) (int, error) {
	creds, err := p.resolver.Resolve(ctx)
	if err != nil {
		return 1, &wdio.PipelineError{Stage: "identity", Err: err}
	}

	archivePath, err := p.buildArchive(extraPaths)
	if err != nil {
		return 1, &wdio.PipelineError{Stage: "package", Err: err}
	}
	defer removeQuietly(archivePath)

	entryPoint := filepath.Base(p.cfg.TestsDir)
	if p.cfg.IsApp {
		entryPoint = filepath.Base(p.cfg.BuildDir)
	}

	token, err := p.submissions.Submit(ctx, models.SubmissionRequest{
		Credentials: creds,
		ArchivePath: archivePath,
		EntryPoint:  entryPoint,
		TestsFolder: filepath.Base(p.cfg.TestsDir),
	})
	if err != nil {
		return 1, &wdio.PipelineError{Stage: "submit", Err: err}
	}
	utils.Info("submission accepted", "token", token, "username", creds.Username)

	err = p.status.WaitForReady(ctx, token, p.cfg.InitialDelay(), p.cfg.PollInterval(), p.cfg.MaxWait())
	if err != nil {
		return 1, &wdio.PipelineError{Stage: "poll", Err: err}
	}

	manifest, resultArchive, err := p.results.Fetch(ctx, token)
	if err != nil {
		return 1, &wdio.PipelineError{Stage: "results", Err: err}
	}

	code := p.results.Interpret(manifest)

	// The outcome is decided; a failed cleanup must not mask it.
	removeQuietly(resultArchive)

	return code, nil
}

// buildArchive stages the tests folder (plus the build output when the
// submission is an application bundle, plus any extra paths) into a
// temporary tree and packs it as a tarball. The staging tree is gone
// by the time this returns; the tarball is the caller's to remove.
func (p *pipeline) buildArchive(extraPaths []string) (string, error) {
	paths := []string{p.cfg.TestsDir}
	if p.cfg.IsApp {
		paths = append(paths, p.cfg.BuildDir)
	}
	paths = append(paths, extraPaths...)

	stagingDir, err := archive.Stage(paths)
	if err != nil {
		return "", err
	}
	defer removeQuietly(stagingDir)

	archivePath := stagingDir + ".tar.gz"
	if err := archive.Pack(stagingDir, archivePath); err != nil {
		return "", err
	}

	utils.Debug("packed test bundle", "archive", archivePath, "members", len(paths))
	return archivePath, nil
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		utils.Warn("cleanup failed", "path", path, "err", err)
	}
}

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func renderOutcome(code int) string {
	if code == 0 {
		return passStyle.Render("✓ all tests passed")
	}
	return failStyle.Render("✗ test run failed")
}
