package driven

import (
	"context"
	"io"
)

// Fetcher downloads a source document to a local writer.
// Implementations must bound the transfer with a timeout and report
// non-2xx responses as errors.
type Fetcher interface {
	// Fetch streams the resource at url into dst and returns the number
	// of bytes written.
	Fetch(ctx context.Context, url string, dst io.Writer) (int64, error)
}
