package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/evanmoss/gitforge/internal/provider"
)

// commandTimeout bounds every gh invocation independently of retries.
const commandTimeout = 30 * time.Second

// authPhrases in gh stderr indicate a credential problem rather than a
// generic command failure.
var authPhrases = []string{
	"authentication failed",
	"unauthorized",
	"bad credentials",
	"auth login",
	"not logged in",
}

// ghCLI shells out to the locally installed, user-authenticated gh tool.
type ghCLI struct {
	log zerolog.Logger
}

// run executes gh with the given arguments and returns stdout.
func (c ghCLI) run(ctx context.Context, args ...string) (string, error) {
	path, err := exec.LookPath("gh")
	if err != nil {
		return "", provider.NotInstalled("gh")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	c.log.Debug().Strs("args", args).Msg("running gh")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

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

// unmarshalAPI decodes gh api output into GitHub API response types.
func unmarshalAPI(raw string, v any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), v); err != nil {
		return provider.ParseError(fmt.Sprintf("failed to parse gh api response: %v; raw: %s", err, raw))
	}
	return nil
}

// ghPR mirrors the JSON emitted by gh pr view/list --json.
type ghPR struct {
	Number         int64      `json:"number"`
	URL            string     `json:"url"`
	State          string     `json:"state"`
	MergedAt       *time.Time `json:"mergedAt"`
	MergeCommitSHA string     `json:"mergeCommitSha"`
}

func (pr ghPR) toMRInfo() provider.MRInfo {
	return provider.MRInfo{
		Number:         pr.Number,
		URL:            pr.URL,
		State:          mapState(pr.State),
		MergedAt:       pr.MergedAt,
		MergeCommitSHA: pr.MergeCommitSHA,
	}
}

func mapState(state string) provider.MRState {
	switch strings.ToLower(state) {
	case "open":
		return provider.StateOpen
	case "merged":
		return provider.StateMerged
	case "closed":
		return provider.StateClosed
	default:
		return provider.StateUnknown
	}
}

// parsePR parses a single PR object from gh --json output.
func parsePR(raw string) (provider.MRInfo, error) {
	var pr ghPR
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &pr); err != nil {
		return provider.MRInfo{}, provider.ParseError(fmt.Sprintf("failed to parse gh pr response: %v; raw: %s", err, raw))
	}
	if pr.Number == 0 || pr.URL == "" {
		return provider.MRInfo{}, provider.ParseError(fmt.Sprintf("gh pr response missing required fields; raw: %s", raw))
	}
	return pr.toMRInfo(), nil
}

// parsePRList parses the array form emitted by gh pr list --json.
func parsePRList(raw string) ([]provider.MRInfo, error) {
	var prs []ghPR
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &prs); err != nil {
		return nil, provider.ParseError(fmt.Sprintf("failed to parse gh pr list response: %v; raw: %s", err, raw))
	}

	infos := make([]provider.MRInfo, 0, len(prs))
	for _, pr := range prs {
		if pr.Number == 0 || pr.URL == "" {
			return nil, provider.ParseError(fmt.Sprintf("gh pr list item missing required fields; raw: %s", raw))
		}
		infos = append(infos, pr.toMRInfo())
	}
	return infos, nil
}

// parseCreateOutput extracts the PR URL and number from the free-text
// output of gh pr create.
func parseCreateOutput(raw string) (string, int64, error) {
	var url string
	for _, line := range strings.Split(raw, "\n") {
		for _, token := range strings.Fields(line) {
			if strings.HasPrefix(token, "http") && strings.Contains(token, "/pull/") {
				url = strings.TrimRight(token, ").,;")
				break
			}
		}
		if url != "" {
			break
		}
	}
	if url == "" {
		return "", 0, provider.ParseError(fmt.Sprintf("gh pr create did not return a pull request URL; raw output: %s", raw))
	}

	number, err := strconv.ParseInt(url[strings.LastIndex(url, "/")+1:], 10, 64)
	if err != nil {
		return "", 0, provider.ParseError(fmt.Sprintf("failed to parse PR number from URL %q: %v", url, err))
	}
	return url, number, nil
}
