package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akulikov/vaultsync/internal/client/models"
)

// URLProvider hands out a presigned PUT URL for an entry. Typically backed
// by an API call to the application server, which owns the bucket
// credentials.
type URLProvider interface {
	PresignedPutURL(ctx context.Context, e *models.QueueEntry) (string, error)
}

// PresignTransport uploads payloads with a plain HTTP PUT against
// presigned URLs, so the client never holds storage credentials.
type PresignTransport struct {
	provider  URLProvider
	client    *http.Client
	healthURL string
	timeout   time.Duration
}

func NewPresignTransport(provider URLProvider, healthURL string, timeout time.Duration) *PresignTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PresignTransport{
		provider:  provider,
		client:    &http.Client{},
		healthURL: healthURL,
		timeout:   timeout,
	}
}

func (t *PresignTransport) Upload(ctx context.Context, e *models.QueueEntry) error {

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	url, err := t.provider.PresignedPutURL(ctx, e)
	if err != nil {
		if IsNetworkError(err) {
			return fmt.Errorf("%w: presigning: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("presigning: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(e.Payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", e.Metadata.MimeType)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: put: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}

	return nil
}

func (t *PresignTransport) Ping(ctx context.Context) error {

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.healthURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ping status %s", ErrUnavailable, resp.Status)
	}

	return nil
}
