package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gl "github.com/xanzy/go-gitlab"

	"github.com/evanmoss/gitforge/internal/provider"
	"github.com/evanmoss/gitforge/internal/retry"
)

// requestTimeout bounds every REST call independently of retries.
const requestTimeout = 30 * time.Second

// apiClient is the token-authenticated REST backend. The glab CLI has
// no structured output for MR notes, so comment retrieval always goes
// through here. client is nil when no token is configured.
type apiClient struct {
	client  *gl.Client
	baseURL string // normalized API base, used for synthesized note URLs
	log     zerolog.Logger
}

func newAPIClient(baseURL, token string, log zerolog.Logger) (*apiClient, error) {
	c := &apiClient{baseURL: baseURL, log: log}
	if token == "" {
		return c, nil
	}

	// The retry policy lives one level up; the client's own retries
	// would compound with it.
	client, err := gl.NewClient(token,
		gl.WithBaseURL(baseURL),
		gl.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
		gl.WithoutRetries(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	c.client = client
	return c, nil
}

// hasToken reports whether a token was configured at construction.
func (c *apiClient) hasToken() bool {
	return c.client != nil
}

// checkAuth verifies the token by fetching the current user.
func (c *apiClient) checkAuth(ctx context.Context) error {
	if !c.hasToken() {
		return provider.NotAuthenticated("GitLab token not set")
	}

	_, _, err := c.client.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return provider.NotAuthenticated(fmt.Sprintf("GitLab auth failed: %v", err))
	}
	return nil
}

// getComments fetches all non-system notes of a merge request, sorted
// ascending by creation time.
func (c *apiClient) getComments(ctx context.Context, repo provider.RepoIdentifier, number int64) ([]provider.UnifiedComment, error) {
	if !c.hasToken() {
		return nil, provider.NotAuthenticated("GitLab token not set")
	}

	projectID, err := c.projectID(ctx, repo)
	if err != nil {
		return nil, err
	}

	notes, err := retry.Do(ctx, c.log, func() ([]*gl.Note, error) {
		notes, _, err := c.client.Notes.ListMergeRequestNotes(projectID, int(number), &gl.ListMergeRequestNotesOptions{
			OrderBy: gl.Ptr("created_at"),
			Sort:    gl.Ptr("asc"),
		}, gl.WithContext(ctx))
		if err != nil {
			return nil, c.mapError(err)
		}
		return notes, nil
	})
	if err != nil {
		return nil, err
	}

	unified := make([]provider.UnifiedComment, 0, len(notes))
	for _, note := range notes {
		// System notes are automated state-change notices, not
		// conversation.
		if note.System {
			continue
		}

		var createdAt time.Time
		if note.CreatedAt != nil {
			createdAt = *note.CreatedAt
		}
		unified = append(unified, provider.UnifiedComment{
			Kind:   provider.CommentGeneral,
			ID:     fmt.Sprintf("%d", note.ID),
			Author: note.Author.Username,
			// GitLab has no author-association concept.
			AuthorAssociation: "MEMBER",
			Body:              note.Body,
			CreatedAt:         createdAt,
			URL:               fmt.Sprintf("%s/projects/%d/merge_requests/%d#note_%d", c.baseURL, projectID, number, note.ID),
		})
	}

	provider.SortComments(unified)
	return unified, nil
}

// projectID resolves the numeric project id from the owner/name path.
// The result is scoped to the calling operation, never persisted.
func (c *apiClient) projectID(ctx context.Context, repo provider.RepoIdentifier) (int, error) {
	return retry.Do(ctx, c.log, func() (int, error) {
		project, _, err := c.client.Projects.GetProject(repo.FullPath(), nil, gl.WithContext(ctx))
		if err != nil {
			return 0, c.mapError(err)
		}
		return project.ID, nil
	})
}

// mapError translates client errors into the provider taxonomy:
// 401/403 mean bad credentials, any other non-2xx is an API error
// carrying the provider's message when one was parseable, and
// transport failures stay retryable.
func (c *apiClient) mapError(err error) error {
	var resp *gl.ErrorResponse
	if errors.As(err, &resp) {
		status := 0
		if resp.Response != nil {
			status = resp.Response.StatusCode
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return provider.NotAuthenticated("GitLab authentication failed: " + resp.Message)
		}
		return provider.APIError(status, resp.Message)
	}
	return provider.CommandFailed("API request failed: " + err.Error())
}
