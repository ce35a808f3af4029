// Package registry selects the concrete provider implementation. It is
// the only place that inspects the provider type; everything else works
// against provider.GitProvider.
package registry

import (
	"github.com/rs/zerolog"

	"github.com/evanmoss/gitforge/internal/config"
	"github.com/evanmoss/gitforge/internal/provider"
	"github.com/evanmoss/gitforge/internal/provider/github"
	"github.com/evanmoss/gitforge/internal/provider/gitlab"
)

// FromPath detects the provider from the repository's remote URL and
// returns a matching provider instance.
func FromPath(repoPath string, cfg *config.Config, log zerolog.Logger) (provider.GitProvider, error) {
	ptype, _, err := provider.Detect(repoPath)
	if err != nil {
		return nil, err
	}
	return FromType(ptype, cfg, log)
}

// FromType returns a provider instance for an already-known type,
// bypassing remote detection.
func FromType(ptype provider.Type, cfg *config.Config, log zerolog.Logger) (provider.GitProvider, error) {
	switch ptype {
	case provider.TypeGitHub:
		return github.New(log), nil
	case provider.TypeGitLab:
		return gitlab.New(gitlab.Config{
			BaseURL: cfg.GitLab.BaseURL,
			Token:   cfg.GitLab.Token,
		}, log)
	default:
		return nil, provider.UnknownProvider(string(ptype))
	}
}
