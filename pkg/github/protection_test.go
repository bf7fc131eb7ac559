package github

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

func TestGetBranchProtectionUnprotected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/branches/main/protection", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Branch not protected"}`))
	}))
	defer server.Close()

	client := NewProtectionClient("test-token", server.URL)
	audit, res, err := client.GetBranchProtection("owner", "repo", "main")
	require.NoError(t, err)
	assert.Equal(t, 404, res.StatusCode())

	assert.False(t, audit.Protected)
	assert.Equal(t, []string{"branch is not protected"}, audit.Problems())
}

func TestGetBranchProtectionFullyProtected(t *testing.T) {
	body := `{
		"required_status_checks": {"strict": true, "contexts": ["ci/build"]},
		"required_pull_request_reviews": {"required_approving_review_count": 2},
		"enforce_admins": {"enabled": true}
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewProtectionClient("test-token", server.URL)
	audit, _, err := client.GetBranchProtection("owner", "repo", "main")
	require.NoError(t, err)

	assert.True(t, audit.Protected)
	assert.Equal(t, int64(2), audit.RequiredReviews)
	assert.True(t, audit.RequireStatusChecks)
	assert.True(t, audit.EnforceAdmins)
	assert.Empty(t, audit.Problems())
}

func TestGetBranchProtectionPartialProtection(t *testing.T) {
	body := `{
		"required_pull_request_reviews": {"required_approving_review_count": 0},
		"enforce_admins": {"enabled": false}
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewProtectionClient("test-token", server.URL)
	audit, _, err := client.GetBranchProtection("owner", "repo", "develop")
	require.NoError(t, err)

	assert.True(t, audit.Protected)
	assert.Equal(t, int64(0), audit.RequiredReviews)
	assert.False(t, audit.RequireStatusChecks)
	assert.False(t, audit.EnforceAdmins)

	problems := audit.Problems()
	assert.Contains(t, problems, "no approving reviews required before merge")
	assert.Contains(t, problems, "no status checks required before merge")
	assert.Contains(t, problems, "administrators can bypass protection rules")
}

func TestGetBranchProtectionHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{
			name:       "missing admin scope",
			statusCode: http.StatusForbidden,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"message":"Must have admin rights"}`))
			}))
			defer server.Close()

			client := NewProtectionClient("test-token", server.URL)
			_, res, err := client.GetBranchProtection("owner", "repo", "main")

			// anything but 404 is an error, never an unprotected branch
			require.Error(t, err)
			assert.Equal(t, tt.statusCode, res.StatusCode())
		})
	}
}

func TestNewProtectionClientDefaultBaseURL(t *testing.T) {
	client := NewProtectionClient("test-token", "")
	assert.Equal(t, DefaultAPIBaseURL, client.BaseURL)
	assert.NotNil(t, client.Client)
}

func TestProtectionAuditProblems(t *testing.T) {
	tests := []struct {
		name     string
		audit    ProtectionAudit
		expected []string
	}{
		{
			name:     "unprotected branch",
			audit:    ProtectionAudit{Branch: "main"},
			expected: []string{"branch is not protected"},
		},
		{
			name: "fully protected branch",
			audit: ProtectionAudit{
				Branch:              "main",
				Protected:           true,
				RequiredReviews:     1,
				RequireStatusChecks: true,
				EnforceAdmins:       true,
			},
			expected: []string{},
		},
		{
			name: "missing reviews only",
			audit: ProtectionAudit{
				Branch:              "main",
				Protected:           true,
				RequiredReviews:     0,
				RequireStatusChecks: true,
				EnforceAdmins:       true,
			},
			expected: []string{"no approving reviews required before merge"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.audit.Problems())
		})
	}
}
