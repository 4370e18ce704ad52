// Package identity resolves the credentials a submission is made
// under: a locally configured user when one exists, otherwise the
// author of the commit the CI run is building.
package identity

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pastorsj/webdriverio-client/wdio"
	"github.com/pastorsj/webdriverio-client/wdio/config"
	"github.com/pastorsj/webdriverio-client/wdio/models"
	"github.com/pastorsj/webdriverio-client/wdio/utils"
)

// CommitLookup fetches commit metadata for a repo slug and SHA. The
// concrete implementation is services.CommitsService; tests substitute
// a fake to assert when lookups happen.
type CommitLookup interface {
	Get(ctx context.Context, repoSlug, sha string) (*models.CommitDetail, error)
}

// Resolver determines the credentials used to authorize a submission.
type Resolver struct {
	cfg    *config.Config
	lookup CommitLookup
}

func NewResolver(cfg *config.Config, lookup CommitLookup) *Resolver {
	return &Resolver{
		cfg:    cfg,
		lookup: lookup,
	}
}

// Resolve loads the local credentials file and applies defaults. A
// username other than the CI service account is returned unchanged,
// token and all, with no remote lookup. The service-account sentinel
// means the run is inside CI, so the commit being built is fetched and
// its submitter's login becomes the username.
func (r *Resolver) Resolve(ctx context.Context) (models.Credentials, error) {
	creds := loadLocal(r.cfg.IdentityConfigPath)

	if creds.Username == "" {
		creds.Username = models.CIUsername
	}
	if creds.Token == "" {
		creds.Token = models.RevokedToken
	}

	if !creds.IsCIAccount() {
		utils.Debug("using locally configured identity", "username", creds.Username)
		return creds, nil
	}

	if r.cfg.RepoSlug == "" || r.cfg.CommitSHA == "" {
		return models.Credentials{}, &wdio.ConfigError{
			Message: "no local identity and no CI commit information in the environment",
		}
	}

	commit, err := r.lookup.Get(ctx, r.cfg.RepoSlug, r.cfg.CommitSHA)
	if err != nil {
		return models.Credentials{}, &wdio.ConfigError{
			Message: "looking up commit " + r.cfg.CommitSHA,
			Err:     err,
		}
	}

	login := commit.SubmitterLogin()
	if login == "" {
		return models.Credentials{}, &wdio.ConfigError{
			Message: "commit " + r.cfg.CommitSHA + " carries no usable login",
		}
	}

	utils.Debug("resolved identity from commit", "username", login, "sha", r.cfg.CommitSHA)
	creds.Username = login
	return creds, nil
}

// loadLocal reads the credentials file, returning an empty record when
// it is absent or unreadable.
func loadLocal(path string) models.Credentials {
	var creds models.Credentials

	data, err := os.ReadFile(path)
	if err != nil {
		return creds
	}
	if err := yaml.Unmarshal(data, &creds); err != nil {
		utils.Warn("ignoring unreadable credentials file", "path", path, "err", err)
		return models.Credentials{}
	}
	return creds
}
