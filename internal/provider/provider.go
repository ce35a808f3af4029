package provider

import "context"

// GitProvider is the uniform operation set exposed for every hosting
// provider. Callers never branch on the concrete provider; the factory
// is the only place that inspects the type.
type GitProvider interface {
	// ProviderType returns the provider behind this instance.
	ProviderType() Type

	// CheckAuth verifies the backend is authenticated.
	CheckAuth(ctx context.Context) error

	// CreateMergeRequest opens a merge/pull request.
	CreateMergeRequest(ctx context.Context, repo RepoIdentifier, req CreateMRRequest) (MRInfo, error)

	// GetMRStatus fetches the current state of a merge/pull request.
	GetMRStatus(ctx context.Context, repo RepoIdentifier, number int64) (MRInfo, error)

	// ListMRsForBranch lists merge/pull requests whose source is branch.
	ListMRsForBranch(ctx context.Context, repo RepoIdentifier, branch string) ([]MRInfo, error)

	// GetComments fetches all comments and review notes, merged into one
	// time-ordered sequence.
	GetComments(ctx context.Context, repo RepoIdentifier, number int64) ([]UnifiedComment, error)
}
