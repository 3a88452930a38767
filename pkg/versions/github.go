// Package versions resolves the latest released version of a tool from its
// upstream source. The only implemented source is GitHub releases.
package versions

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/toolgrab/toolgrab/pkg/telemetry"
)

// GitHubConfig configures the GitHub release client.
type GitHubConfig struct {
	// Token is an optional personal access token. Unauthenticated requests
	// share GitHub's far lower anonymous rate limit.
	Token string

	// RequestsPerSecond caps outgoing API calls. Zero means the default of
	// one request per second.
	RequestsPerSecond float64

	// Timeout bounds each API call. Zero means 30 seconds.
	Timeout time.Duration

	// BaseURL overrides the API endpoint, for GitHub Enterprise or tests.
	BaseURL string
}

// GitHubClient looks up latest release tags through the GitHub API. It
// implements resolver.VersionLookup.
type GitHubClient struct {
	client  *github.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *telemetry.Logger
}

// NewGitHubClient creates a release lookup client.
func NewGitHubClient(cfg GitHubConfig, logger *telemetry.Logger) (*GitHubClient, error) {
	httpClient := http.DefaultClient
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger, _ = telemetry.NewLogger(telemetry.LoggingConfig{Level: "info"})
	}

	return &GitHubClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: timeout,
		logger:  logger.NewComponentLogger("versions"),
	}, nil
}

// LatestVersion returns the tag name of the repository's latest release.
// The repo is given as "owner/name". Rate-limit responses from GitHub are
// surfaced verbatim in the error text so failure classification can key on
// them.
func (c *GitHubClient) LatestVersion(ctx context.Context, repo string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("version lookup for %s canceled: %w", repo, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	release, resp, err := c.client.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		if _, ok := err.(*github.RateLimitError); ok {
			return "", fmt.Errorf("github API rate limit exceeded for %s: %w", repo, err)
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("no releases found for %s: 404 Not Found", repo)
		}
		return "", fmt.Errorf("latest release lookup for %s failed: %w", repo, err)
	}

	tag := release.GetTagName()
	if tag == "" {
		return "", fmt.Errorf("latest release of %s has no tag name", repo)
	}

	c.logger.WithField("repo", repo).WithField("tag", tag).Debug("resolved latest release")
	return tag, nil
}

func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository %q, want owner/name", repo)
	}
	return owner, name, nil
}
