// Package github wraps the GitHub REST surface the research pipeline
// consumes: repositories (optionally created from a template), branches,
// trees, file contents, commit listing, and workflow dispatch. The
// cumulative research history lives as a JSON document in the target
// repository; see history.go.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/wkumagai/TradeGraph-sub001/retry"
)

// ErrMarkerNotFound indicates no commit message contained the requested
// subgraph marker.
var ErrMarkerNotFound = errors.New("commit marker not found")

// Client performs GitHub operations against a single owner/repo pair.
// All calls run under the shared retry policy.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	policy retry.Policy
}

// NewClient creates a client for owner/repo authenticated with a
// personal access token.
func NewClient(token, owner, repo string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &Client{
		gh:     github.NewClient(tc),
		owner:  owner,
		repo:   repo,
		policy: retry.Policy{Retryable: retryableGitHub},
	}, nil
}

// NewClientURL creates a client against a non-default API endpoint,
// used by tests and GitHub Enterprise installs.
func NewClientURL(token, owner, repo, baseURL string) (*Client, error) {
	c, err := NewClient(token, owner, repo)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	c.gh.BaseURL = u
	return c, nil
}

// Owner returns the repository owner.
func (c *Client) Owner() string { return c.owner }

// Repo returns the repository name.
func (c *Client) Repo() string { return c.repo }

// retryableGitHub classifies go-github errors: rate limits and server
// errors retry, other client errors are fatal.
func retryableGitHub(err error) bool {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		return true
	}
	var ghe *github.ErrorResponse
	if errors.As(err, &ghe) && ghe.Response != nil {
		return retry.ClassifyStatus(ghe.Response.StatusCode) == retry.Retryable
	}
	return retry.IsRetryable(err)
}

// GetRepository fetches repository metadata. A missing repository is
// fatal.
func (c *Client) GetRepository(ctx context.Context) (*github.Repository, error) {
	return retry.Value(ctx, c.policy, "github.get_repository", func() (*github.Repository, error) {
		repo, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
		if err != nil {
			return nil, fmt.Errorf("get repository %s/%s: %w", c.owner, c.repo, err)
		}
		return repo, nil
	})
}

// CreateFromTemplate creates the repository from a template repo. All
// branches are included; 422 (already exists) is fatal.
func (c *Client) CreateFromTemplate(ctx context.Context, templateOwner, templateRepo string, private bool) (*github.Repository, error) {
	return retry.Value(ctx, c.policy, "github.create_from_template", func() (*github.Repository, error) {
		req := &github.TemplateRepoRequest{
			Name:               github.String(c.repo),
			Owner:              github.String(c.owner),
			IncludeAllBranches: github.Bool(true),
			Private:            github.Bool(private),
		}
		repo, _, err := c.gh.Repositories.CreateFromTemplate(ctx, templateOwner, templateRepo, req)
		if err != nil {
			return nil, fmt.Errorf("create %s/%s from template %s/%s: %w",
				c.owner, c.repo, templateOwner, templateRepo, err)
		}
		return repo, nil
	})
}

// GetBranch fetches a branch. A missing branch returns (nil, nil); the
// caller decides whether to create it.
func (c *Client) GetBranch(ctx context.Context, branch string) (*github.Branch, error) {
	return retry.Value(ctx, c.policy, "github.get_branch", func() (*github.Branch, error) {
		b, resp, err := c.gh.Repositories.GetBranch(ctx, c.owner, c.repo, branch, 0)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("get branch %q: %w", branch, err)
		}
		return b, nil
	})
}

// CreateBranch creates a branch pointing at fromSHA.
func (c *Client) CreateBranch(ctx context.Context, branch, fromSHA string) error {
	return c.policy.Do(ctx, "github.create_branch", func() error {
		ref := &github.Reference{
			Ref:    github.String("refs/heads/" + branch),
			Object: &github.GitObject{SHA: github.String(fromSHA)},
		}
		if _, _, err := c.gh.Git.CreateRef(ctx, c.owner, c.repo, ref); err != nil {
			return fmt.Errorf("create branch %q at %s: %w", branch, fromSHA, err)
		}
		return nil
	})
}

// GetTree fetches the full recursive tree at treeSHA.
func (c *Client) GetTree(ctx context.Context, treeSHA string) (*github.Tree, error) {
	return retry.Value(ctx, c.policy, "github.get_tree", func() (*github.Tree, error) {
		tree, _, err := c.gh.Git.GetTree(ctx, c.owner, c.repo, treeSHA, true)
		if err != nil {
			return nil, fmt.Errorf("get tree %s: %w", treeSHA, err)
		}
		return tree, nil
	})
}

// GetFile fetches a file's decoded content at path on branch. A missing
// file returns ("", false, nil).
func (c *Client) GetFile(ctx context.Context, path, branch string) (string, bool, error) {
	type result struct {
		content string
		exists  bool
	}
	r, err := retry.Value(ctx, c.policy, "github.get_file", func() (result, error) {
		opts := &github.RepositoryContentGetOptions{Ref: branch}
		file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, opts)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return result{}, nil
			}
			return result{}, fmt.Errorf("get contents %s@%s: %w", path, branch, err)
		}
		if file == nil {
			return result{}, fmt.Errorf("get contents %s@%s: path is a directory", path, branch)
		}
		content, err := file.GetContent()
		if err != nil {
			return result{}, fmt.Errorf("decode contents %s@%s: %w", path, branch, err)
		}
		return result{content: content, exists: true}, nil
	})
	return r.content, r.exists, err
}

// CommitFile writes content to path on branch, creating or updating as
// needed, with the given commit message.
func (c *Client) CommitFile(ctx context.Context, path, branch, message string, content []byte) error {
	return c.policy.Do(ctx, "github.commit_file", func() error {
		opts := &github.RepositoryContentFileOptions{
			Message: github.String(message),
			Content: content,
			Branch:  github.String(branch),
		}

		// An existing file must be updated with its current blob SHA.
		getOpts := &github.RepositoryContentGetOptions{Ref: branch}
		file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, getOpts)
		switch {
		case err == nil && file != nil:
			opts.SHA = file.SHA
			if _, _, err := c.gh.Repositories.UpdateFile(ctx, c.owner, c.repo, path, opts); err != nil {
				return fmt.Errorf("update %s@%s: %w", path, branch, err)
			}
			return nil
		case resp != nil && resp.StatusCode == http.StatusNotFound:
			if _, _, err := c.gh.Repositories.CreateFile(ctx, c.owner, c.repo, path, opts); err != nil {
				return fmt.Errorf("create %s@%s: %w", path, branch, err)
			}
			return nil
		default:
			return fmt.Errorf("stat %s@%s: %w", path, branch, err)
		}
	})
}

// ListCommits returns one page of commits on branch.
func (c *Client) ListCommits(ctx context.Context, branch string, page, perPage int) ([]*github.RepositoryCommit, error) {
	return retry.Value(ctx, c.policy, "github.list_commits", func() ([]*github.RepositoryCommit, error) {
		opts := &github.CommitsListOptions{
			SHA:         branch,
			ListOptions: github.ListOptions{Page: page, PerPage: perPage},
		}
		commits, _, err := c.gh.Repositories.ListCommits(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list commits on %q: %w", branch, err)
		}
		return commits, nil
	})
}

// FindCommitByMarker scans branch history, newest first, for the first
// commit whose message contains the marker for subgraph, and returns
// its SHA. At most maxPages pages of 100 commits are scanned.
func (c *Client) FindCommitByMarker(ctx context.Context, branch, subgraph string, maxPages int) (string, error) {
	marker := CommitMarker(subgraph)
	for page := 1; page <= maxPages; page++ {
		commits, err := c.ListCommits(ctx, branch, page, 100)
		if err != nil {
			return "", err
		}
		if len(commits) == 0 {
			break
		}
		for _, commit := range commits {
			if strings.Contains(commit.GetCommit().GetMessage(), marker) {
				return commit.GetSHA(), nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q on branch %q", ErrMarkerNotFound, marker, branch)
}

// CommitMarker returns the marker string embedded in commit messages so
// a subgraph's commits can be found later.
func CommitMarker(subgraph string) string {
	return fmt.Sprintf("[subgraph: %s]", subgraph)
}

// DispatchWorkflow triggers a workflow_dispatch event for the workflow
// file on ref.
func (c *Client) DispatchWorkflow(ctx context.Context, workflowFile, ref string, inputs map[string]any) error {
	return c.policy.Do(ctx, "github.dispatch_workflow", func() error {
		req := github.CreateWorkflowDispatchEventRequest{Ref: ref, Inputs: inputs}
		if _, err := c.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, c.owner, c.repo, workflowFile, req); err != nil {
			return fmt.Errorf("dispatch workflow %s@%s: %w", workflowFile, ref, err)
		}
		return nil
	})
}
