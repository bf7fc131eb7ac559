package github

import (
	"fmt"
	"net/url"
	"path"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"resty.dev/v3"
)

// ProtectionAudit summarizes the protection rules of one branch.
type ProtectionAudit struct {
	Branch              string
	Protected           bool
	RequiredReviews     int64
	RequireStatusChecks bool
	EnforceAdmins       bool
}

// ProtectionClient reads branch protection rules over the raw REST API.
// https://docs.github.com/en/rest/branches/branch-protection
type ProtectionClient struct {
	Client  *resty.Client
	BaseURL string
}

func NewProtectionClient(accessToken string, baseURL string) ProtectionClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	client := resty.New().
		SetAuthToken(accessToken).
		SetHeader("Accept", "application/vnd.github+json").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	client.AddRetryHooks(
		func(res *resty.Response, err error) {
			if res != nil && res.StatusCode() == 429 {
				log.Info().Int("status", res.StatusCode()).Msg("Retrying request, we are rate limited")
			} else {
				log.Info().Msg("Retrying request, not due to rate limit")
			}
		},
	)

	return ProtectionClient{Client: client, BaseURL: baseURL}
}

// GetBranchProtection fetches the protection rules of a branch. A 404 means
// the branch carries no protection at all.
func (p ProtectionClient) GetBranchProtection(owner string, repo string, branch string) (*ProtectionAudit, *resty.Response, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("url", p.BaseURL).Msg("Unable to parse GitHub API base URL")
	}
	u.Path = path.Join(u.Path, "repos", owner, repo, "branches", branch, "protection")
	reqUrl := u.String()

	audit := &ProtectionAudit{Branch: branch}

	res, err := p.Client.R().Get(reqUrl)
	if err != nil {
		log.Error().Err(err).Str("url", reqUrl).Msg("Failed fetching branch protection (network or client error)")
		return audit, res, err
	}

	if res.StatusCode() == 404 {
		return audit, res, nil
	}

	// only 404 means unprotected, any other error status must not read as
	// a missing protection rule
	if res.StatusCode() >= 400 {
		log.Error().Int("status", res.StatusCode()).Str("url", reqUrl).Str("response", res.String()).Msg("Failed fetching branch protection (HTTP error)")
		return audit, res, fmt.Errorf("failed fetching branch protection, status %d", res.StatusCode())
	}

	body := res.String()
	audit.Protected = true
	audit.RequiredReviews = gjson.Get(body, "required_pull_request_reviews.required_approving_review_count").Int()
	audit.RequireStatusChecks = gjson.Get(body, "required_status_checks").Exists()
	audit.EnforceAdmins = gjson.Get(body, "enforce_admins.enabled").Bool()

	return audit, res, nil
}

// Problems renders the audit's protection gaps as report strings.
func (a *ProtectionAudit) Problems() []string {
	if !a.Protected {
		return []string{"branch is not protected"}
	}

	problems := []string{}
	if a.RequiredReviews < 1 {
		problems = append(problems, "no approving reviews required before merge")
	}
	if !a.RequireStatusChecks {
		problems = append(problems, "no status checks required before merge")
	}
	if !a.EnforceAdmins {
		problems = append(problems, "administrators can bypass protection rules")
	}
	return problems
}
