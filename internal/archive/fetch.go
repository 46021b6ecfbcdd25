package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/cavaliergopher/grab/v3"
)

// GrabFetcher downloads files with grab
type GrabFetcher struct {
	client  *grab.Client
	timeout time.Duration
}

// NewGrabFetcher creates a fetcher whose downloads are bounded by timeout
func NewGrabFetcher(timeout time.Duration) *GrabFetcher {
	client := grab.NewClient()
	client.UserAgent = "archive-bot-go"
	return &GrabFetcher{client: client, timeout: timeout}
}

// Fetch implements Fetcher
func (f *GrabFetcher) Fetch(ctx context.Context, url, dest string) (int64, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := grab.NewRequest(dest, url)
	if err != nil {
		return 0, fmt.Errorf("failed to build download request: %w", err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true

	resp := f.client.Do(req)
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return resp.BytesComplete(), nil
}
