// Package gitstore commits serialized files to the static site's Git
// repository. The Writer interface is the only path between this
// service and the external store; every operation resolves to a Result,
// never a Go error, so callers always have a definitive success-or-
// failure outcome to log.
package gitstore

import "context"

// FileOp is one path/content pair in a multi-file commit.
type FileOp struct {
	Path    string
	Content string
}

// Result is the outcome of a commit operation. Error is empty on
// success.
type Result struct {
	Success   bool
	CommitSHA string
	CommitURL string
	Error     string
}

// Writer commits files to the external versioned store.
type Writer interface {
	// Write creates or updates a single file in one commit.
	Write(ctx context.Context, path, content, message string) Result

	// WriteMany commits every file in one atomic commit: all paths
	// land in the same revision or none do.
	WriteMany(ctx context.Context, ops []FileOp, message string) Result

	// Delete removes a single file in one commit.
	Delete(ctx context.Context, path, message string) Result
}

func failure(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
