package gitstore

import "context"

// unconfiguredWriter fails every operation with a stable message. It
// stands in for the GitHub writer when no credentials are set, so
// publish attempts produce normal failed audit entries instead of
// crashing.
type unconfiguredWriter struct{}

// Unconfigured returns a Writer for deployments without store
// credentials.
func Unconfigured() Writer {
	return unconfiguredWriter{}
}

func (unconfiguredWriter) Write(_ context.Context, _, _, _ string) Result {
	return Result{Success: false, Error: "git store not configured"}
}

func (unconfiguredWriter) WriteMany(_ context.Context, _ []FileOp, _ string) Result {
	return Result{Success: false, Error: "git store not configured"}
}

func (unconfiguredWriter) Delete(_ context.Context, _, _ string) Result {
	return Result{Success: false, Error: "git store not configured"}
}
