// Package followup holds the boundary to the coding-agent pipeline
// that runs after a merge request is created, and the shared-update
// hook fired when one is merged. Only the contracts and the prompt
// assembly live here; the pipeline itself is an external collaborator.
package followup

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/evanmoss/gitforge/internal/provider"
)

// DefaultDescriptionPrompt is used when no template is configured.
const DefaultDescriptionPrompt = `Update the merge request that was just created with a better title and description.
The MR number is #{pr_number} and the URL is {pr_url}.

Analyze the changes in this branch and write:
1. A concise, descriptive title that summarizes the changes
2. A detailed description that explains:
   - What changes were made
   - Why they were made (based on the task context)
   - Any important implementation details`

// Launcher starts a follow-up execution with the rendered prompt.
type Launcher interface {
	StartFollowUp(ctx context.Context, prompt string) error
}

// Publisher receives a shared update when a merge request transitions
// to merged.
type Publisher interface {
	PublishMergedUpdate(ctx context.Context, repo provider.RepoIdentifier, info provider.MRInfo) error
}

// RenderPrompt substitutes {pr_number} and {pr_url} in template. An
// empty template falls back to DefaultDescriptionPrompt.
func RenderPrompt(template string, info provider.MRInfo) string {
	if template == "" {
		template = DefaultDescriptionPrompt
	}
	prompt := strings.ReplaceAll(template, "{pr_number}", strconv.FormatInt(info.Number, 10))
	return strings.ReplaceAll(prompt, "{pr_url}", info.URL)
}

// Start renders the description prompt for a freshly created merge
// request and hands it to the launcher.
func Start(ctx context.Context, launcher Launcher, template string, info provider.MRInfo) error {
	return launcher.StartFollowUp(ctx, RenderPrompt(template, info))
}

// Notifier tracks state transitions and publishes exactly one update
// when a merge request becomes merged.
type Notifier struct {
	pub Publisher
	log zerolog.Logger
}

// NewNotifier creates a notifier around pub.
func NewNotifier(pub Publisher, log zerolog.Logger) *Notifier {
	return &Notifier{pub: pub, log: log}
}

// Observe compares the previously known state with the fetched info and
// fires the publish hook on an open-to-merged transition.
func (n *Notifier) Observe(ctx context.Context, repo provider.RepoIdentifier, prev provider.MRState, info provider.MRInfo) error {
	if prev == provider.StateMerged || info.State != provider.StateMerged {
		return nil
	}

	n.log.Info().
		Str("repo", repo.FullPath()).
		Int64("number", info.Number).
		Msg("merge request merged, publishing update")
	return n.pub.PublishMergedUpdate(ctx, repo, info)
}
