package github

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/evanmoss/gitforge/internal/provider"
)

// fakeGh installs a shell script named gh at the front of PATH.
func fakeGh(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestGetMRStatus(t *testing.T) {
	fakeGh(t, `echo '{"number": 12, "url": "https://github.com/o/r/pull/12", "state": "OPEN"}'`)

	p := New(zerolog.Nop())
	info, err := p.GetMRStatus(context.Background(), provider.NewGitHubRepo("o", "r"), 12)
	if err != nil {
		t.Fatalf("GetMRStatus() error = %v", err)
	}

	if info.Number != 12 {
		t.Errorf("Number = %d, want 12", info.Number)
	}
	if info.State != provider.StateOpen {
		t.Errorf("State = %q, want %q", info.State, provider.StateOpen)
	}
}

func TestCreateMergeRequest(t *testing.T) {
	// pr create prints the URL; the provider then views the PR to build
	// the normalized result.
	fakeGh(t, `case "$1 $2" in
"pr create") echo "https://github.com/o/r/pull/8" ;;
"pr view") echo '{"number": 8, "url": "https://github.com/o/r/pull/8", "state": "OPEN"}' ;;
*) echo "unexpected: $@" >&2; exit 1 ;;
esac`)

	p := New(zerolog.Nop())
	info, err := p.CreateMergeRequest(context.Background(), provider.NewGitHubRepo("o", "r"), provider.CreateMRRequest{
		Title:      "Add feature",
		HeadBranch: "feature",
		BaseBranch: "main",
		Draft:      true,
	})
	if err != nil {
		t.Fatalf("CreateMergeRequest() error = %v", err)
	}

	if info.Number != 8 {
		t.Errorf("Number = %d, want 8", info.Number)
	}
	if info.URL != "https://github.com/o/r/pull/8" {
		t.Errorf("URL = %q", info.URL)
	}
}

// A transient failure of the post-create status fetch must not re-run
// pr create: that would open duplicate pull requests.
func TestCreateMergeRequestViewFailureDoesNotRecreate(t *testing.T) {
	dir := t.TempDir()
	counter := filepath.Join(dir, "creates")
	fakeGh(t, `case "$1 $2" in
"pr create") echo x >> `+counter+`; echo "https://github.com/o/r/pull/8" ;;
"pr view") echo "transient server error" >&2; exit 1 ;;
*) echo "unexpected: $@" >&2; exit 1 ;;
esac`)

	p := New(zerolog.Nop())
	info, err := p.CreateMergeRequest(context.Background(), provider.NewGitHubRepo("o", "r"), provider.CreateMRRequest{
		Title:      "t",
		HeadBranch: "h",
		BaseBranch: "b",
	})
	if err != nil {
		t.Fatalf("CreateMergeRequest() error = %v, want create result despite failed fetch", err)
	}

	if info.Number != 8 {
		t.Errorf("Number = %d, want 8", info.Number)
	}
	if info.URL != "https://github.com/o/r/pull/8" {
		t.Errorf("URL = %q", info.URL)
	}
	if info.State != provider.StateOpen {
		t.Errorf("State = %q, want %q", info.State, provider.StateOpen)
	}

	data, err := os.ReadFile(counter)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(data); got != 2 {
		t.Errorf("gh pr create invoked %d times, want 1", got/2)
	}
}

func TestGetCommentsMergesAndSorts(t *testing.T) {
	fakeGh(t, `case "$2" in
*issues*) echo '[{"id": 1, "user": {"login": "a"}, "author_association": "MEMBER", "body": "later", "created_at": "2025-03-01T12:00:00Z", "html_url": "u1"}]' ;;
*pulls*) echo '[{"id": 2, "user": {"login": "b"}, "author_association": "NONE", "body": "earlier", "created_at": "2025-03-01T10:00:00Z", "html_url": "u2", "path": "main.go", "line": 3, "diff_hunk": "@@"}]' ;;
*) exit 1 ;;
esac`)

	p := New(zerolog.Nop())
	comments, err := p.GetComments(context.Background(), provider.NewGitHubRepo("o", "r"), 1)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}

	if len(comments) != 2 {
		t.Fatalf("len = %d, want 2", len(comments))
	}
	if comments[0].Kind != provider.CommentReview {
		t.Errorf("comments[0].Kind = %q, want review comment first (earlier timestamp)", comments[0].Kind)
	}
	if comments[1].Kind != provider.CommentGeneral {
		t.Errorf("comments[1].Kind = %q, want general comment last", comments[1].Kind)
	}
}

func TestNotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	p := New(zerolog.Nop())
	_, err := p.GetMRStatus(context.Background(), provider.NewGitHubRepo("o", "r"), 1)

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *provider.Error", err)
	}
	if perr.Kind != provider.KindNotInstalled {
		t.Errorf("Kind = %q, want %q", perr.Kind, provider.KindNotInstalled)
	}
}

func TestCheckAuthNotLoggedIn(t *testing.T) {
	fakeGh(t, `echo "To get started with GitHub CLI, please run: gh auth login" >&2; exit 1`)

	p := New(zerolog.Nop())
	err := p.CheckAuth(context.Background())

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *provider.Error", err)
	}
	if perr.Kind != provider.KindNotAuthenticated {
		t.Errorf("Kind = %q, want %q", perr.Kind, provider.KindNotAuthenticated)
	}
}

func TestCreateMergeRequestAuthFailureNotRetried(t *testing.T) {
	// The fake gh appends one line per invocation; an auth failure must
	// surface after a single attempt.
	dir := t.TempDir()
	counter := filepath.Join(dir, "calls")
	fakeGh(t, `echo x >> `+counter+`
echo "HTTP 401: Bad credentials" >&2
exit 1`)

	p := New(zerolog.Nop())
	_, err := p.CreateMergeRequest(context.Background(), provider.NewGitHubRepo("o", "r"), provider.CreateMRRequest{
		Title:      "t",
		HeadBranch: "h",
		BaseBranch: "b",
	})

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *provider.Error", err)
	}
	if perr.Kind != provider.KindNotAuthenticated {
		t.Errorf("Kind = %q, want %q", perr.Kind, provider.KindNotAuthenticated)
	}

	data, err := os.ReadFile(counter)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(data); got != 2 {
		t.Errorf("gh invoked %d times, want 1", got/2)
	}
}
