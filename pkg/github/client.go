package github

import (
	"context"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_primary_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_secondary_ratelimit"
	"github.com/google/go-github/v69/github"
	"github.com/rs/zerolog/log"
)

// DefaultAPIBaseURL is the public GitHub API endpoint.
const DefaultAPIBaseURL = "https://api.github.com"

// NewClient returns a go-github client that waits out primary and secondary
// rate limits instead of failing.
func NewClient(accessToken string, baseURL string) *github.Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL + "/"
	}
	rateLimiter := github_ratelimit.New(nil,
		github_primary_ratelimit.WithLimitDetectedCallback(func(ctx *github_primary_ratelimit.CallbackContext) {
			resetTime := ctx.ResetTime.Add(time.Duration(time.Second * 30))
			log.Info().Str("category", string(ctx.Category)).Time("reset", resetTime).Msg("Primary rate limit detected, will resume automatically")
			time.Sleep(time.Until(resetTime))
			log.Info().Str("category", string(ctx.Category)).Msg("Resuming")
		}),
		github_secondary_ratelimit.WithLimitDetectedCallback(func(ctx *github_secondary_ratelimit.CallbackContext) {
			resetTime := ctx.ResetTime.Add(time.Duration(time.Second * 30))
			log.Info().Time("reset", *ctx.ResetTime).Dur("totalSleep", *ctx.TotalSleepTime).Msg("Secondary rate limit detected, will resume automatically")
			time.Sleep(time.Until(resetTime))
			log.Info().Msg("Resuming")
		}),
	)

	client := github.NewClient(&http.Client{Transport: rateLimiter}).WithAuthToken(accessToken)
	if baseURL != DefaultAPIBaseURL+"/" {
		client, _ = client.WithEnterpriseURLs(baseURL, baseURL)
	}
	return client
}

// RepoBranches lists all branch names and the default branch of a
// repository.
func RepoBranches(ctx context.Context, client *github.Client, owner string, repo string) ([]string, string, error) {
	repository, _, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, "", err
	}

	defaultBranch := ""
	if repository.DefaultBranch != nil {
		defaultBranch = *repository.DefaultBranch
	}

	opt := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	branches := []string{}
	for {
		page, resp, err := client.Repositories.ListBranches(ctx, owner, repo, opt)
		if err != nil {
			return nil, defaultBranch, err
		}

		for _, branch := range page {
			if branch.Name != nil {
				branches = append(branches, *branch.Name)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return branches, defaultBranch, nil
}
