package provider

import (
	"os/exec"
	"regexp"
	"strings"
)

const gitlabCloudHost = "gitlab.com"

// Remote URL shapes handled below:
//
//	git@github.com:owner/repo.git
//	https://github.com/owner/repo(.git)(/)
//	ssh://git@gitlab.example.com/group/subgroup/project.git
//	https://gitlab.internal:8443/team/project
var (
	githubPattern = regexp.MustCompile(`github\.com[:/](?P<owner>[^/]+)/(?P<repo>[^/]+?)(?:\.git)?(?:/|$)`)
	gitlabPattern = regexp.MustCompile(`gitlab[^/:]*(?::\d+)?[:/](?P<path>.+?)(?:\.git)?$`)
	hostPattern   = regexp.MustCompile(`^(?:https?://|ssh://(?:git@)?)?([^/:]+)`)
)

// Detect resolves the provider and repository identifier for a local
// repository by inspecting its git remotes.
func Detect(repoPath string) (Type, RepoIdentifier, error) {
	url, err := RemoteURL(repoPath)
	if err != nil {
		return "", RepoIdentifier{}, err
	}
	return DetectFromURL(url)
}

// DetectFromURL resolves the provider and repository identifier from a
// raw remote URL. GitHub is tried first, then GitLab; anything else,
// including GitHub Enterprise and Bitbucket, is an unknown provider.
func DetectFromURL(url string) (Type, RepoIdentifier, error) {
	if repo, ok := parseGitHubURL(url); ok {
		return TypeGitHub, repo, nil
	}
	if repo, ok := parseGitLabURL(url); ok {
		return TypeGitLab, repo, nil
	}
	return "", RepoIdentifier{}, UnknownProvider(url)
}

// RemoteURL returns the remote URL of the repository at repoPath,
// preferring origin, then upstream, then the first listed remote.
func RemoteURL(repoPath string) (string, error) {
	for _, name := range []string{"origin", "upstream"} {
		if url, ok := remoteURL(repoPath, name); ok {
			return url, nil
		}
	}

	out, err := exec.Command("git", "-C", repoPath, "remote").Output()
	if err != nil {
		return "", GitError("failed to open repo: "+repoPath, err)
	}
	if names := strings.Fields(string(out)); len(names) > 0 {
		if url, ok := remoteURL(repoPath, names[0]); ok {
			return url, nil
		}
	}

	return "", GitError("no remote URL found", nil)
}

func remoteURL(repoPath, remote string) (string, bool) {
	out, err := exec.Command("git", "-C", repoPath, "remote", "get-url", remote).Output()
	if err != nil {
		return "", false
	}
	url := strings.TrimSpace(string(out))
	return url, url != ""
}

func parseGitHubURL(url string) (RepoIdentifier, bool) {
	m := githubPattern.FindStringSubmatch(url)
	if m == nil {
		return RepoIdentifier{}, false
	}
	return NewGitHubRepo(m[1], m[2]), true
}

func parseGitLabURL(url string) (RepoIdentifier, bool) {
	// "gitlab" anywhere in the URL covers both gitlab.com and
	// self-hosted subdomains like code.gitlab.mycompany.com.
	if !strings.Contains(strings.ToLower(url), "gitlab") {
		return RepoIdentifier{}, false
	}

	host, ok := extractHost(url)
	if !ok {
		return RepoIdentifier{}, false
	}

	m := gitlabPattern.FindStringSubmatch(url)
	if m == nil {
		return RepoIdentifier{}, false
	}

	// The last path segment is the project; everything before it is the
	// namespace, which may span nested groups.
	var parts []string
	for _, p := range strings.Split(m[1], "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return RepoIdentifier{}, false
	}

	name := parts[len(parts)-1]
	owner := strings.Join(parts[:len(parts)-1], "/")

	if host == gitlabCloudHost {
		host = ""
	}
	return NewGitLabRepo(owner, name, host), true
}

// extractHost derives the bare host from either the user@host:path SSH
// shorthand or a scheme://host/path URL.
func extractHost(url string) (string, bool) {
	if rest, ok := strings.CutPrefix(url, "git@"); ok {
		if host, _, found := strings.Cut(rest, ":"); found {
			return host, true
		}
	}

	m := hostPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}
