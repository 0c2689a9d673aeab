package sources

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/supportinsights/support-insights/internal/model"
)

const githubPageSize = 100

// GitHubSource reads issues of one repository. Pull requests are skipped.
type GitHubSource struct {
	client  *github.Client
	owner   string
	repo    string
	state   string
	labels  []string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGitHubClient returns an authenticated client, or an anonymous one when
// token is empty.
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// NewGitHubSource creates a source over an existing client. state is one of
// "open", "closed" or "all".
func NewGitHubSource(client *github.Client, owner, repo, state string, labels []string, limiter *rate.Limiter, logger *zap.Logger) *GitHubSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(DefaultRateLimit, 1)
	}
	if state == "" {
		state = "all"
	}
	return &GitHubSource{
		client:  client,
		owner:   owner,
		repo:    repo,
		state:   state,
		labels:  labels,
		limiter: limiter,
		logger:  logger.Named("github"),
	}
}

// NewGitHubFromConfig is the registry factory. It requires "repo" as
// owner/name; "state", "labels" (comma separated) and "baseUrl" are optional.
func NewGitHubFromConfig(cfg model.DataSourceConfiguration, opts Options) (Source, error) {
	full, err := requireSetting(cfg, "repo")
	if err != nil {
		return nil, err
	}
	owner, repo, ok := strings.Cut(full, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("github source: repo %q must be owner/name", full)
	}

	client := NewGitHubClient(context.Background(), opts.GitHubToken)
	if base := cfg.Settings["baseUrl"]; base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github source: bad baseUrl: %w", err)
		}
		client.BaseURL = u
	}

	var labels []string
	for _, l := range strings.Split(cfg.Settings["labels"], ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return NewGitHubSource(client, owner, repo, cfg.Settings["state"], labels, opts.limiter(), opts.logger()), nil
}

// Name returns "github".
func (s *GitHubSource) Name() string {
	return "github"
}

// Signals pages through the repository's issues.
func (s *GitHubSource) Signals(ctx context.Context) iter.Seq2[model.SupportSignal, error] {
	return func(yield func(model.SupportSignal, error) bool) {
		opts := &github.IssueListByRepoOptions{
			State:       s.state,
			Labels:      s.labels,
			ListOptions: github.ListOptions{PerPage: githubPageSize, Page: 1},
		}
		for {
			if err := s.limiter.Wait(ctx); err != nil {
				yield(model.SupportSignal{}, err)
				return
			}

			issues, resp, err := s.client.Issues.ListByRepo(ctx, s.owner, s.repo, opts)
			if err != nil {
				yield(model.SupportSignal{}, fmt.Errorf("list issues for %s/%s: %w", s.owner, s.repo, err))
				return
			}

			for _, issue := range issues {
				if issue.IsPullRequest() {
					continue
				}
				if issue.GetTitle() == "" || issue.CreatedAt == nil {
					s.logger.Warn("skipping malformed issue", zap.Int("number", issue.GetNumber()))
					continue
				}
				if !yield(s.toSignal(issue), nil) {
					return
				}
			}

			if resp == nil || resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}
}

func (s *GitHubSource) toSignal(issue *github.Issue) model.SupportSignal {
	sig := model.SupportSignal{
		ID:          fmt.Sprintf("github-%s-%s-%d", s.owner, s.repo, issue.GetNumber()),
		Title:       issue.GetTitle(),
		Description: issue.GetBody(),
		Source:      s.Name(),
		Timestamp:   issue.GetCreatedAt().Time.UTC(),
	}
	if issue.ClosedAt != nil {
		closed := issue.GetClosedAt().Time.UTC()
		sig.ResolvedAt = &closed
	}
	return sig
}
