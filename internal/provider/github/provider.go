// Package github implements the provider operations for GitHub by
// shelling out to the gh CLI.
package github

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	gh "github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/evanmoss/gitforge/internal/provider"
	"github.com/evanmoss/gitforge/internal/retry"
)

// GitHubProvider implements provider.GitProvider using the gh CLI.
type GitHubProvider struct {
	cli ghCLI
	log zerolog.Logger
}

// New creates a GitHub provider.
func New(log zerolog.Logger) *GitHubProvider {
	return &GitHubProvider{
		cli: ghCLI{log: log},
		log: log,
	}
}

// ProviderType returns the provider behind this instance.
func (p *GitHubProvider) ProviderType() provider.Type {
	return provider.TypeGitHub
}

// CheckAuth verifies the gh CLI is installed and logged in.
func (p *GitHubProvider) CheckAuth(ctx context.Context) error {
	_, err := p.cli.run(ctx, "auth", "status")
	if err != nil {
		var perr *provider.Error
		if errors.As(err, &perr) && perr.Kind == provider.KindCommandFailed {
			return provider.NotAuthenticated(perr.Message)
		}
		return err
	}
	return nil
}

// CreateMergeRequest opens a pull request and returns its normalized
// info, fetched back from gh after creation. The create and the fetch
// are separate retry units: re-running pr create after the PR exists
// would open a duplicate.
func (p *GitHubProvider) CreateMergeRequest(ctx context.Context, repo provider.RepoIdentifier, req provider.CreateMRRequest) (provider.MRInfo, error) {
	created, err := retry.Do(ctx, p.log, func() (provider.MRInfo, error) {
		args := []string{
			"pr", "create",
			"--repo", repo.FullPath(),
			"--head", req.HeadBranch,
			"--base", req.BaseBranch,
			"--title", req.Title,
			"--body", req.Body,
		}
		if req.Draft {
			args = append(args, "--draft")
		}

		raw, err := p.cli.run(ctx, args...)
		if err != nil {
			return provider.MRInfo{}, err
		}

		url, number, err := parseCreateOutput(raw)
		if err != nil {
			return provider.MRInfo{}, err
		}
		return provider.MRInfo{Number: number, URL: url, State: provider.StateOpen}, nil
	})
	if err != nil {
		return provider.MRInfo{}, err
	}

	info, err := retry.Do(ctx, p.log, func() (provider.MRInfo, error) {
		return p.viewPR(ctx, repo, created.Number)
	})
	if err != nil {
		p.log.Warn().
			Err(err).
			Int64("number", created.Number).
			Msg("pull request created but status fetch failed, returning create result")
		return created, nil
	}
	return info, nil
}

// GetMRStatus fetches the current state of a pull request.
func (p *GitHubProvider) GetMRStatus(ctx context.Context, repo provider.RepoIdentifier, number int64) (provider.MRInfo, error) {
	return retry.Do(ctx, p.log, func() (provider.MRInfo, error) {
		return p.viewPR(ctx, repo, number)
	})
}

// ListMRsForBranch lists pull requests whose head is branch, in any state.
func (p *GitHubProvider) ListMRsForBranch(ctx context.Context, repo provider.RepoIdentifier, branch string) ([]provider.MRInfo, error) {
	return retry.Do(ctx, p.log, func() ([]provider.MRInfo, error) {
		raw, err := p.cli.run(ctx,
			"pr", "list",
			"--repo", repo.FullPath(),
			"--head", branch,
			"--state", "all",
			"--json", "number,url,state,mergedAt,mergeCommitSha",
		)
		if err != nil {
			return nil, err
		}
		return parsePRList(raw)
	})
}

// GetComments fetches conversation comments and inline review comments
// concurrently, then merges them into one time-ordered sequence.
func (p *GitHubProvider) GetComments(ctx context.Context, repo provider.RepoIdentifier, number int64) ([]provider.UnifiedComment, error) {
	var general, review []provider.UnifiedComment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		comments, err := retry.Do(gctx, p.log, func() ([]*gh.IssueComment, error) {
			return p.issueComments(gctx, repo, number)
		})
		if err != nil {
			return err
		}
		general = convertIssueComments(comments)
		return nil
	})
	g.Go(func() error {
		comments, err := retry.Do(gctx, p.log, func() ([]*gh.PullRequestComment, error) {
			return p.reviewComments(gctx, repo, number)
		})
		if err != nil {
			return err
		}
		review = convertReviewComments(comments)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return provider.MergeComments(general, review), nil
}

func (p *GitHubProvider) viewPR(ctx context.Context, repo provider.RepoIdentifier, number int64) (provider.MRInfo, error) {
	raw, err := p.cli.run(ctx,
		"pr", "view", strconv.FormatInt(number, 10),
		"--repo", repo.FullPath(),
		"--json", "number,url,state,mergedAt,mergeCommitSha",
	)
	if err != nil {
		return provider.MRInfo{}, err
	}
	return parsePR(raw)
}

func (p *GitHubProvider) issueComments(ctx context.Context, repo provider.RepoIdentifier, number int64) ([]*gh.IssueComment, error) {
	raw, err := p.cli.run(ctx, "api", fmt.Sprintf("repos/%s/issues/%d/comments", repo.FullPath(), number))
	if err != nil {
		return nil, err
	}
	return decodeIssueComments(raw)
}

func (p *GitHubProvider) reviewComments(ctx context.Context, repo provider.RepoIdentifier, number int64) ([]*gh.PullRequestComment, error) {
	raw, err := p.cli.run(ctx, "api", fmt.Sprintf("repos/%s/pulls/%d/comments", repo.FullPath(), number))
	if err != nil {
		return nil, err
	}
	return decodeReviewComments(raw)
}

// decodeIssueComments decodes gh api output using the GitHub API
// response types.
func decodeIssueComments(raw string) ([]*gh.IssueComment, error) {
	var comments []*gh.IssueComment
	if err := unmarshalAPI(raw, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func decodeReviewComments(raw string) ([]*gh.PullRequestComment, error) {
	var comments []*gh.PullRequestComment
	if err := unmarshalAPI(raw, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func convertIssueComments(comments []*gh.IssueComment) []provider.UnifiedComment {
	unified := make([]provider.UnifiedComment, 0, len(comments))
	for _, c := range comments {
		unified = append(unified, provider.UnifiedComment{
			Kind:              provider.CommentGeneral,
			ID:                strconv.FormatInt(c.GetID(), 10),
			Author:            c.GetUser().GetLogin(),
			AuthorAssociation: c.GetAuthorAssociation(),
			Body:              c.GetBody(),
			CreatedAt:         c.GetCreatedAt().Time,
			URL:               c.GetHTMLURL(),
		})
	}
	return unified
}

func convertReviewComments(comments []*gh.PullRequestComment) []provider.UnifiedComment {
	unified := make([]provider.UnifiedComment, 0, len(comments))
	for _, c := range comments {
		var line *int64
		if c.Line != nil {
			l := int64(*c.Line)
			line = &l
		}
		unified = append(unified, provider.UnifiedComment{
			Kind:              provider.CommentReview,
			ID:                strconv.FormatInt(c.GetID(), 10),
			Author:            c.GetUser().GetLogin(),
			AuthorAssociation: c.GetAuthorAssociation(),
			Body:              c.GetBody(),
			CreatedAt:         c.GetCreatedAt().Time,
			URL:               c.GetHTMLURL(),
			Path:              c.GetPath(),
			Line:              line,
			DiffHunk:          c.GetDiffHunk(),
		})
	}
	return unified
}
