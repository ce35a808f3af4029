package provider

import "time"

// Type identifies a git hosting provider.
type Type string

const (
	TypeGitHub Type = "github"
	TypeGitLab Type = "gitlab"
)

// String returns the display name of the provider.
func (t Type) String() string {
	switch t {
	case TypeGitHub:
		return "GitHub"
	case TypeGitLab:
		return "GitLab"
	default:
		return string(t)
	}
}

// RepoIdentifier identifies a repository on a hosting provider.
type RepoIdentifier struct {
	Provider Type   `json:"provider"`
	Owner    string `json:"owner"` // owner (GitHub) or namespace, possibly nested (GitLab)
	Name     string `json:"name"`
	Host     string `json:"host,omitempty"` // set only for self-hosted instances
}

// NewGitHubRepo builds an identifier for a repository on github.com.
func NewGitHubRepo(owner, name string) RepoIdentifier {
	return RepoIdentifier{Provider: TypeGitHub, Owner: owner, Name: name}
}

// NewGitLabRepo builds an identifier for a GitLab project. host is empty
// for gitlab.com.
func NewGitLabRepo(owner, name, host string) RepoIdentifier {
	return RepoIdentifier{Provider: TypeGitLab, Owner: owner, Name: name, Host: host}
}

// FullPath returns "owner/name", the canonical lookup key against
// provider APIs. For nested GitLab groups the owner already contains
// every group segment joined by "/".
func (r RepoIdentifier) FullPath() string {
	return r.Owner + "/" + r.Name
}

// MRState is the unified merge request / pull request state.
type MRState string

const (
	StateOpen    MRState = "open"
	StateMerged  MRState = "merged"
	StateClosed  MRState = "closed"
	StateUnknown MRState = "unknown"
)

// MRInfo is the normalized view of a merge request or pull request.
type MRInfo struct {
	Number         int64      `json:"number"`
	URL            string     `json:"url"`
	State          MRState    `json:"state"`
	MergedAt       *time.Time `json:"merged_at,omitempty"`
	MergeCommitSHA string     `json:"merge_commit_sha,omitempty"`
}

// CreateMRRequest describes a merge request to create.
type CreateMRRequest struct {
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string
	Draft      bool
}

// CommentKind distinguishes the two unified comment shapes.
type CommentKind string

const (
	// CommentGeneral is a conversation-level comment.
	CommentGeneral CommentKind = "general"
	// CommentReview is an inline comment attached to code.
	CommentReview CommentKind = "review"
)

// UnifiedComment is a comment or review note normalized to one schema
// regardless of originating provider. Path, Line and DiffHunk are only
// set for CommentReview.
type UnifiedComment struct {
	Kind              CommentKind `json:"comment_type"`
	ID                string      `json:"id"`
	Author            string      `json:"author"`
	AuthorAssociation string      `json:"author_association"`
	Body              string      `json:"body"`
	CreatedAt         time.Time   `json:"created_at"`
	URL               string      `json:"url"`
	Path              string      `json:"path,omitempty"`
	Line              *int64      `json:"line,omitempty"`
	DiffHunk          string      `json:"diff_hunk,omitempty"`
}
