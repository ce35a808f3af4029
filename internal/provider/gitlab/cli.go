package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/evanmoss/gitforge/internal/provider"
)

// commandTimeout bounds every glab invocation independently of retries.
const commandTimeout = 30 * time.Second

var authPhrases = []string{
	"authentication failed",
	"unauthorized",
	"bad credentials",
	"auth login",
	"not logged in",
}

// glabCLI shells out to the locally installed, user-authenticated glab
// tool. host is set only for self-hosted instances and is passed to
// glab through GITLAB_HOST.
type glabCLI struct {
	host string
	log  zerolog.Logger
}

func (c glabCLI) run(ctx context.Context, args ...string) (string, error) {
	path, err := exec.LookPath("glab")
	if err != nil {
		return "", provider.NotInstalled("glab")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	c.log.Debug().Strs("args", args).Msg("running glab")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.host != "" {
		cmd.Env = append(os.Environ(), "GITLAB_HOST="+c.host)
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		if isAuthFailure(msg) {
			return "", provider.NotAuthenticated(msg)
		}
		return "", provider.CommandFailed(msg)
	}

	return stdout.String(), nil
}

func isAuthFailure(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, phrase := range authPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// checkAuth runs glab auth status. A plain command failure here means
// the CLI is installed but not logged in.
func (c glabCLI) checkAuth(ctx context.Context) error {
	_, err := c.run(ctx, "auth", "status")
	if err != nil {
		var perr *provider.Error
		if errors.As(err, &perr) && perr.Kind == provider.KindCommandFailed {
			return provider.NotAuthenticated(perr.Message)
		}
		return err
	}
	return nil
}

func (c glabCLI) createMR(ctx context.Context, repo provider.RepoIdentifier, req provider.CreateMRRequest) (provider.MRInfo, error) {
	args := []string{
		"mr", "create",
		"--repo", repo.FullPath(),
		"--source-branch", req.HeadBranch,
		"--target-branch", req.BaseBranch,
		"--title", req.Title,
	}
	if req.Body != "" {
		args = append(args, "--description", req.Body)
	}
	if req.Draft {
		args = append(args, "--draft")
	}

	raw, err := c.run(ctx, args...)
	if err != nil {
		return provider.MRInfo{}, err
	}
	return parseCreateOutput(raw)
}

func (c glabCLI) viewMR(ctx context.Context, repo provider.RepoIdentifier, number int64) (provider.MRInfo, error) {
	raw, err := c.run(ctx,
		"mr", "view", strconv.FormatInt(number, 10),
		"--repo", repo.FullPath(),
		"--output", "json",
	)
	if err != nil {
		return provider.MRInfo{}, err
	}
	return parseMR(raw)
}

func (c glabCLI) listMRsForBranch(ctx context.Context, repo provider.RepoIdentifier, branch string) ([]provider.MRInfo, error) {
	raw, err := c.run(ctx,
		"mr", "list",
		"--repo", repo.FullPath(),
		"--source-branch", branch,
		"--output", "json",
	)
	if err != nil {
		return nil, err
	}
	return parseMRList(raw)
}

// glabMR mirrors the JSON emitted by glab mr view/list.
type glabMR struct {
	IID            int64      `json:"iid"`
	WebURL         string     `json:"web_url"`
	State          string     `json:"state"`
	MergedAt       *time.Time `json:"merged_at"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
}

func (mr glabMR) toMRInfo() provider.MRInfo {
	return provider.MRInfo{
		Number:         mr.IID,
		URL:            mr.WebURL,
		State:          mapState(mr.State),
		MergedAt:       mr.MergedAt,
		MergeCommitSHA: mr.MergeCommitSHA,
	}
}

func mapState(state string) provider.MRState {
	switch strings.ToLower(state) {
	case "opened":
		return provider.StateOpen
	case "merged":
		return provider.StateMerged
	case "closed", "locked":
		return provider.StateClosed
	default:
		return provider.StateUnknown
	}
}

func parseMR(raw string) (provider.MRInfo, error) {
	var mr glabMR
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &mr); err != nil {
		return provider.MRInfo{}, provider.ParseError(fmt.Sprintf("failed to parse glab mr view response: %v; raw: %s", err, raw))
	}
	if mr.IID == 0 || mr.WebURL == "" {
		return provider.MRInfo{}, provider.ParseError(fmt.Sprintf("glab mr view response missing required fields; raw: %s", raw))
	}
	return mr.toMRInfo(), nil
}

func parseMRList(raw string) ([]provider.MRInfo, error) {
	var mrs []glabMR
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &mrs); err != nil {
		return nil, provider.ParseError(fmt.Sprintf("failed to parse glab mr list response: %v; raw: %s", err, raw))
	}

	infos := make([]provider.MRInfo, 0, len(mrs))
	for _, mr := range mrs {
		if mr.IID == 0 || mr.WebURL == "" {
			return nil, provider.ParseError(fmt.Sprintf("glab mr list item missing required fields; raw: %s", raw))
		}
		infos = append(infos, mr.toMRInfo())
	}
	return infos, nil
}

// parseCreateOutput extracts the MR URL and number from the free-text
// output of glab mr create, which looks like:
//
//	!123 Add feature (https://gitlab.com/owner/repo/-/merge_requests/123)
func parseCreateOutput(raw string) (provider.MRInfo, error) {
	var url string
	for _, line := range strings.Split(raw, "\n") {
		for _, token := range strings.Fields(line) {
			token = strings.TrimLeft(token, "(")
			if strings.HasPrefix(token, "http") && strings.Contains(token, "/merge_requests/") {
				url = strings.TrimRight(token, ").,;")
				break
			}
		}
		if url != "" {
			break
		}
	}
	if url == "" {
		return provider.MRInfo{}, provider.ParseError(fmt.Sprintf("glab mr create did not return a merge request URL; raw output: %s", raw))
	}

	number, err := strconv.ParseInt(url[strings.LastIndex(url, "/")+1:], 10, 64)
	if err != nil {
		return provider.MRInfo{}, provider.ParseError(fmt.Sprintf("failed to parse MR number from URL %q: %v", url, err))
	}

	return provider.MRInfo{
		Number: number,
		URL:    url,
		State:  provider.StateOpen,
	}, nil
}
