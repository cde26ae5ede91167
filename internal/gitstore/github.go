package gitstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultAPIBaseURL is the GitHub REST API endpoint.
	DefaultAPIBaseURL = "https://api.github.com"
	// DefaultRequestTimeout bounds every call to the GitHub API. A
	// timeout is a definitive failure for the operation; it is never
	// retried within the same request.
	DefaultRequestTimeout = 30 * time.Second
)

// GitHubWriter implements Writer against the GitHub REST API. Single
// file writes and deletes use the contents API; multi-file commits use
// the git-data API (blobs, tree, commit, ref update) so all files land
// in one revision.
type GitHubWriter struct {
	baseURL string
	repo    string // "owner/name"
	branch  string
	token   string
	client  *http.Client
}

// NewGitHubWriter creates a writer committing to the given repo and
// branch.
func NewGitHubWriter(repo, branch, token string) *GitHubWriter {
	return NewGitHubWriterWithBaseURL(DefaultAPIBaseURL, repo, branch, token)
}

// NewGitHubWriterWithBaseURL is NewGitHubWriter with a custom API
// endpoint, used by tests.
func NewGitHubWriterWithBaseURL(baseURL, repo, branch, token string) *GitHubWriter {
	return &GitHubWriter{
		baseURL: baseURL,
		repo:    repo,
		branch:  branch,
		token:   token,
		client:  &http.Client{Timeout: DefaultRequestTimeout},
	}
}

type commitInfo struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

type contentsResponse struct {
	Commit commitInfo `json:"commit"`
}

// Write creates or updates path with content in a single commit.
func (w *GitHubWriter) Write(ctx context.Context, path, content, message string) Result {
	payload := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  w.branch,
	}
	if sha, err := w.fileSHA(ctx, path); err != nil {
		return failure(err)
	} else if sha != "" {
		payload["sha"] = sha
	}

	var resp contentsResponse
	if err := w.call(ctx, http.MethodPut, w.contentsURL(path), payload, &resp); err != nil {
		return failure(err)
	}
	return Result{Success: true, CommitSHA: resp.Commit.SHA, CommitURL: resp.Commit.HTMLURL}
}

// Delete removes path in a single commit. Deleting a file that does not
// exist in the store is reported as a failure.
func (w *GitHubWriter) Delete(ctx context.Context, path, message string) Result {
	sha, err := w.fileSHA(ctx, path)
	if err != nil {
		return failure(err)
	}
	if sha == "" {
		return failure(fmt.Errorf("file %s not found in repository", path))
	}

	payload := map[string]any{
		"message": message,
		"sha":     sha,
		"branch":  w.branch,
	}
	var resp contentsResponse
	if err := w.call(ctx, http.MethodDelete, w.contentsURL(path), payload, &resp); err != nil {
		return failure(err)
	}
	return Result{Success: true, CommitSHA: resp.Commit.SHA, CommitURL: resp.Commit.HTMLURL}
}

// WriteMany commits all ops as one commit via the git-data API. Nothing
// is visible in the store until the final ref update, so a failure at
// any step leaves the branch untouched.
func (w *GitHubWriter) WriteMany(ctx context.Context, ops []FileOp, message string) Result {
	if len(ops) == 0 {
		return failure(fmt.Errorf("no files to commit"))
	}

	headSHA, err := w.branchHead(ctx)
	if err != nil {
		return failure(err)
	}

	var head struct {
		Tree struct {
			SHA string `json:"sha"`
		} `json:"tree"`
	}
	if err := w.call(ctx, http.MethodGet, fmt.Sprintf("%s/repos/%s/git/commits/%s", w.baseURL, w.repo, headSHA), nil, &head); err != nil {
		return failure(fmt.Errorf("failed to read head commit: %w", err))
	}

	type treeEntry struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	}
	entries := make([]treeEntry, 0, len(ops))
	for _, op := range ops {
		var blob struct {
			SHA string `json:"sha"`
		}
		blobPayload := map[string]any{"content": op.Content, "encoding": "utf-8"}
		if err := w.call(ctx, http.MethodPost, fmt.Sprintf("%s/repos/%s/git/blobs", w.baseURL, w.repo), blobPayload, &blob); err != nil {
			return failure(fmt.Errorf("failed to create blob for %s: %w", op.Path, err))
		}
		entries = append(entries, treeEntry{Path: op.Path, Mode: "100644", Type: "blob", SHA: blob.SHA})
	}

	var tree struct {
		SHA string `json:"sha"`
	}
	treePayload := map[string]any{"base_tree": head.Tree.SHA, "tree": entries}
	if err := w.call(ctx, http.MethodPost, fmt.Sprintf("%s/repos/%s/git/trees", w.baseURL, w.repo), treePayload, &tree); err != nil {
		return failure(fmt.Errorf("failed to create tree: %w", err))
	}

	var commit commitInfo
	commitPayload := map[string]any{
		"message": message,
		"tree":    tree.SHA,
		"parents": []string{headSHA},
	}
	if err := w.call(ctx, http.MethodPost, fmt.Sprintf("%s/repos/%s/git/commits", w.baseURL, w.repo), commitPayload, &commit); err != nil {
		return failure(fmt.Errorf("failed to create commit: %w", err))
	}

	refPayload := map[string]any{"sha": commit.SHA}
	if err := w.call(ctx, http.MethodPatch, fmt.Sprintf("%s/repos/%s/git/refs/heads/%s", w.baseURL, w.repo, w.branch), refPayload, nil); err != nil {
		return failure(fmt.Errorf("failed to update branch ref: %w", err))
	}

	return Result{Success: true, CommitSHA: commit.SHA, CommitURL: commit.HTMLURL}
}

// fileSHA returns the blob SHA of path on the branch, or "" when the
// file does not exist yet.
func (w *GitHubWriter) fileSHA(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.contentsURL(path)+"?ref="+w.branch, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	w.setHeaders(req)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("contents API returned status %d for %s", resp.StatusCode, path)
	}

	var file struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return "", fmt.Errorf("failed to decode contents response: %w", err)
	}
	return file.SHA, nil
}

// branchHead returns the commit SHA the branch currently points at.
func (w *GitHubWriter) branchHead(ctx context.Context) (string, error) {
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	url := fmt.Sprintf("%s/repos/%s/git/refs/heads/%s", w.baseURL, w.repo, w.branch)
	if err := w.call(ctx, http.MethodGet, url, nil, &ref); err != nil {
		return "", fmt.Errorf("failed to resolve branch %s: %w", w.branch, err)
	}
	return ref.Object.SHA, nil
}

// call performs one authenticated API request, decoding the JSON
// response into out when out is non-nil.
func (w *GitHubWriter) call(ctx context.Context, method, url string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	w.setHeaders(req)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GitHub API returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (w *GitHubWriter) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", w.baseURL, w.repo, path)
}

func (w *GitHubWriter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
}
