package gitstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeGitHub is a minimal in-process GitHub API covering the endpoints
// the writer uses. failBlobAfter > 0 makes blob creation fail once that
// many blobs have been created, to simulate a mid-batch failure.
type fakeGitHub struct {
	mux           *http.ServeMux
	blobs         int
	failBlobAfter int
	refUpdated    bool
	existingFiles map[string]string // path -> blob sha
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	f := &fakeGitHub{mux: http.NewServeMux(), existingFiles: map[string]string{}}

	f.mux.HandleFunc("GET /repos/owner/site/git/refs/heads/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"object": map[string]any{"sha": "headsha"}})
	})
	f.mux.HandleFunc("GET /repos/owner/site/git/commits/headsha", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"tree": map[string]any{"sha": "treesha"}})
	})
	f.mux.HandleFunc("POST /repos/owner/site/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		f.blobs++
		if f.failBlobAfter > 0 && f.blobs > f.failBlobAfter {
			http.Error(w, `{"message":"server error"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"sha": "blobsha"})
	})
	f.mux.HandleFunc("POST /repos/owner/site/git/trees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"sha": "newtreesha"})
	})
	f.mux.HandleFunc("POST /repos/owner/site/git/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"sha": "commitsha", "html_url": "https://github.com/owner/site/commit/commitsha"})
	})
	f.mux.HandleFunc("PATCH /repos/owner/site/git/refs/heads/main", func(w http.ResponseWriter, r *http.Request) {
		f.refUpdated = true
		writeJSON(w, map[string]any{"object": map[string]any{"sha": "commitsha"}})
	})
	f.mux.HandleFunc("/repos/owner/site/contents/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/repos/owner/site/contents/")
		switch r.Method {
		case http.MethodGet:
			sha, ok := f.existingFiles[path]
			if !ok {
				http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, map[string]any{"sha": sha})
		case http.MethodPut, http.MethodDelete:
			writeJSON(w, map[string]any{
				"commit": map[string]any{"sha": "filesha", "html_url": "https://github.com/owner/site/commit/filesha"},
			})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)
	return f, server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGitHubWriter_WriteNewFile(t *testing.T) {
	t.Parallel()

	_, server := newFakeGitHub(t)
	w := NewGitHubWriterWithBaseURL(server.URL, "owner/site", "main", "token")

	result := w.Write(context.Background(), "content/essays/a.md", "body", "publish essay 'A'")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.CommitSHA != "filesha" {
		t.Errorf("CommitSHA = %q", result.CommitSHA)
	}
	if result.CommitURL == "" {
		t.Error("CommitURL must be populated on success")
	}
	if result.Error != "" {
		t.Errorf("Error must be empty on success, got %q", result.Error)
	}
}

func TestGitHubWriter_DeleteMissingFileFails(t *testing.T) {
	t.Parallel()

	_, server := newFakeGitHub(t)
	w := NewGitHubWriterWithBaseURL(server.URL, "owner/site", "main", "token")

	result := w.Delete(context.Background(), "content/essays/gone.md", "delete essay")
	if result.Success {
		t.Fatal("deleting a missing file must fail")
	}
	if result.Error == "" {
		t.Error("failure must carry an error message")
	}
}

func TestGitHubWriter_WriteManyAtomic(t *testing.T) {
	t.Parallel()

	fake, server := newFakeGitHub(t)
	w := NewGitHubWriterWithBaseURL(server.URL, "owner/site", "main", "token")

	ops := []FileOp{
		{Path: "research/sources.json", Content: "[]"},
		{Path: "research/links.json", Content: "[]"},
	}
	result := w.WriteMany(context.Background(), ops, "publish research data")
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.CommitSHA != "commitsha" {
		t.Errorf("CommitSHA = %q", result.CommitSHA)
	}
	if !fake.refUpdated {
		t.Error("branch ref must be updated to land the commit")
	}
}

func TestGitHubWriter_WriteManyFailureLeavesBranchUntouched(t *testing.T) {
	t.Parallel()

	fake, server := newFakeGitHub(t)
	fake.failBlobAfter = 1 // second blob creation fails
	w := NewGitHubWriterWithBaseURL(server.URL, "owner/site", "main", "token")

	ops := []FileOp{
		{Path: "research/sources.json", Content: "[]"},
		{Path: "research/links.json", Content: "[]"},
	}
	result := w.WriteMany(context.Background(), ops, "publish research data")
	if result.Success {
		t.Fatal("expected failure when a blob upload fails")
	}
	if fake.refUpdated {
		t.Error("a failed batch must not move the branch ref")
	}
	if !strings.Contains(result.Error, "links.json") {
		t.Errorf("error should name the failing file, got %q", result.Error)
	}
}

func TestGitHubWriter_WriteManyEmpty(t *testing.T) {
	t.Parallel()

	_, server := newFakeGitHub(t)
	w := NewGitHubWriterWithBaseURL(server.URL, "owner/site", "main", "token")

	if result := w.WriteMany(context.Background(), nil, "empty"); result.Success {
		t.Error("an empty batch must be rejected")
	}
}

func TestGitHubWriter_NetworkFailureIsResult(t *testing.T) {
	t.Parallel()

	// Point at a server that is already closed.
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	w := NewGitHubWriterWithBaseURL(server.URL, "owner/site", "main", "token")

	result := w.Write(context.Background(), "now.md", "body", "update")
	if result.Success {
		t.Fatal("network failure must produce a failed result")
	}
	if result.Error == "" {
		t.Error("failed result must carry the error text")
	}
}
