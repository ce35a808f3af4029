// Package gitlab implements the provider operations for GitLab,
// including self-hosted instances. Merge request creation, status and
// listing go through the glab CLI; comment retrieval goes through the
// REST API, which is the only backend with structured note output.
package gitlab

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/evanmoss/gitforge/internal/provider"
	"github.com/evanmoss/gitforge/internal/retry"
)

const cloudBaseURL = "https://gitlab.com"

// Config is the explicit provider configuration, resolved by the caller
// at the boundary. A BaseURL other than gitlab.com implies self-hosted.
type Config struct {
	// BaseURL of the GitLab instance. Empty means gitlab.com.
	BaseURL string
	// Token is an optional personal access token. Without it, comment
	// retrieval degrades to an empty result; the CLI operations are
	// unaffected.
	Token string
}

// GitLabProvider implements provider.GitProvider.
//
// CLI authentication is the canonical path for create/status/list:
// when glab is unavailable those operations fail rather than silently
// switching to the REST backend, so credential problems stay visible.
type GitLabProvider struct {
	cli glabCLI
	api *apiClient
	log zerolog.Logger
}

// New creates a GitLab provider for the instance described by cfg.
func New(cfg Config, log zerolog.Logger) (*GitLabProvider, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = cloudBaseURL
	}

	apiBase := base
	if !strings.Contains(apiBase, "/api/v4") {
		apiBase += "/api/v4"
	}

	var cliHost string
	if base != cloudBaseURL && base != cloudBaseURL+"/api/v4" {
		cliHost = strings.TrimPrefix(base, "https://")
		cliHost = strings.TrimPrefix(cliHost, "http://")
		cliHost = strings.TrimSuffix(cliHost, "/api/v4")
	}

	api, err := newAPIClient(apiBase, cfg.Token, log)
	if err != nil {
		return nil, err
	}

	return &GitLabProvider{
		cli: glabCLI{host: cliHost, log: log},
		api: api,
		log: log,
	}, nil
}

// ProviderType returns the provider behind this instance.
func (p *GitLabProvider) ProviderType() provider.Type {
	return provider.TypeGitLab
}

// CheckAuth verifies the glab CLI login, falling back to the API token
// when the CLI is unavailable.
func (p *GitLabProvider) CheckAuth(ctx context.Context) error {
	if err := p.cli.checkAuth(ctx); err == nil {
		return nil
	}
	return p.api.checkAuth(ctx)
}

// CreateMergeRequest opens a merge request through the glab CLI.
func (p *GitLabProvider) CreateMergeRequest(ctx context.Context, repo provider.RepoIdentifier, req provider.CreateMRRequest) (provider.MRInfo, error) {
	return retry.Do(ctx, p.log, func() (provider.MRInfo, error) {
		return p.cli.createMR(ctx, repo, req)
	})
}

// GetMRStatus fetches the current state of a merge request through the
// glab CLI.
func (p *GitLabProvider) GetMRStatus(ctx context.Context, repo provider.RepoIdentifier, number int64) (provider.MRInfo, error) {
	return retry.Do(ctx, p.log, func() (provider.MRInfo, error) {
		return p.cli.viewMR(ctx, repo, number)
	})
}

// ListMRsForBranch lists merge requests whose source is branch.
func (p *GitLabProvider) ListMRsForBranch(ctx context.Context, repo provider.RepoIdentifier, branch string) ([]provider.MRInfo, error) {
	return retry.Do(ctx, p.log, func() ([]provider.MRInfo, error) {
		return p.cli.listMRsForBranch(ctx, repo, branch)
	})
}

// GetComments fetches merge request notes through the REST API.
// Comments are a best-effort enhancement: without a token the result is
// empty, not an error.
func (p *GitLabProvider) GetComments(ctx context.Context, repo provider.RepoIdentifier, number int64) ([]provider.UnifiedComment, error) {
	if !p.api.hasToken() {
		p.log.Info().
			Str("repo", repo.FullPath()).
			Msg("GitLab token not configured, skipping comment retrieval")
		return []provider.UnifiedComment{}, nil
	}
	return p.api.getComments(ctx, repo, number)
}
