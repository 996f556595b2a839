package github

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Issue states accepted by the state config key.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// Config holds the parsed configuration for a GitHub source.
type Config struct {
	// Repos limits the sync to these owner/name repositories.
	// Empty means every accessible repository.
	Repos []string

	// Labels filters issues to those carrying any of these labels.
	Labels []string

	// State is the issue state filter.
	State string
}

// ParseConfig parses a source's config map into a Config struct.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		Repos:  splitList(source.Config["repos"]),
		Labels: splitList(source.Config["labels"]),
		State:  StateAll,
	}

	for _, repo := range cfg.Repos {
		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("%w: %q", ErrConfigInvalidRepo, repo)
		}
	}

	if state := strings.ToLower(strings.TrimSpace(source.Config["state"])); state != "" {
		switch state {
		case StateOpen, StateClosed, StateAll:
			cfg.State = state
		default:
			return nil, fmt.Errorf("%w: %q", ErrConfigInvalidState, state)
		}
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MatchesLabels reports whether an issue with the given labels passes the filter.
func (c *Config) MatchesLabels(labels []string) bool {
	if len(c.Labels) == 0 {
		return true
	}
	for _, want := range c.Labels {
		for _, have := range labels {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}
