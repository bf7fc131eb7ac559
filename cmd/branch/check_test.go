package branch

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CompassSecurity/repoguard/pkg/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	logging.SetGlobalHitWriter(logging.NewHitLevelWriter(io.Discard))
}

func resetOptions() {
	options = CheckOptions{}
}

func TestNewCheckCmd(t *testing.T) {
	cmd := NewCheckCmd()

	if cmd == nil {
		t.Fatal("Expected non-nil command")
	}

	if cmd.Use != "check [branch names]" {
		t.Errorf("Expected Use to be 'check [branch names]', got %q", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Expected non-empty Short description")
	}

	if cmd.Example == "" {
		t.Error("Expected non-empty Example")
	}

	flags := cmd.Flags()
	if flags.Lookup("repo") == nil {
		t.Error("Expected 'repo' flag to exist")
	}
	if flags.Lookup("all") == nil {
		t.Error("Expected 'all' flag to exist")
	}
	if flags.Lookup("policy") == nil {
		t.Error("Expected 'policy' flag to exist")
	}
	if flags.Lookup("prefixes") == nil {
		t.Error("Expected 'prefixes' flag to exist")
	}
}

func TestCheckExplicitNames(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		expectErr bool
	}{
		{
			name:      "valid branch name",
			args:      []string{"feature/login"},
			expectErr: false,
		},
		{
			name:      "unknown prefix",
			args:      []string{"randomname"},
			expectErr: true,
		},
		{
			name:      "case sensitive prefix",
			args:      []string{"Feature/login"},
			expectErr: true,
		},
		{
			name:      "mixed valid and invalid",
			args:      []string{"feature/login", "randomname"},
			expectErr: true,
		},
		{
			name:      "no names and no repo",
			args:      []string{},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetOptions()
			err := Check(NewCheckCmd(), tt.args)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckCustomPrefixes(t *testing.T) {
	cmd := NewCheckCmd()
	resetOptions()
	options.Prefixes = []string{"release"}

	assert.NoError(t, Check(cmd, []string{"release/1.2.0"}))
	assert.Error(t, Check(cmd, []string{"feature/login"}))
}

func TestCheckPolicyFile(t *testing.T) {
	cmd := NewCheckCmd()
	resetOptions()

	dir := t.TempDir()
	policyFile := filepath.Join(dir, ".repoguard.yml")
	require.NoError(t, os.WriteFile(policyFile, []byte("branchPrefixes:\n  - wip\n"), 0o644))
	options.PolicyFile = policyFile

	assert.NoError(t, Check(cmd, []string{"wip/spike"}))
	assert.Error(t, Check(cmd, []string{"feature/login"}))
}

func TestCheckRepository(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature/login"),
		Create: true,
	}))

	t.Run("checked-out branch passes", func(t *testing.T) {
		cmd := NewCheckCmd()
		resetOptions()
		options.RepoPath = dir
		assert.NoError(t, Check(cmd, []string{}))
	})

	t.Run("all branches includes master", func(t *testing.T) {
		cmd := NewCheckCmd()
		resetOptions()
		options.RepoPath = dir
		options.All = true
		// master carries no allowed prefix
		assert.Error(t, Check(cmd, []string{}))
	})

	t.Run("missing repository fails", func(t *testing.T) {
		cmd := NewCheckCmd()
		resetOptions()
		options.RepoPath = filepath.Join(dir, "nope")
		assert.Error(t, Check(cmd, []string{}))
	})
}
