package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPStore talks to a remote blob gateway exposing an IPFS-style API:
// POST /blobs stores bytes and answers with the digest, GET /blobs/{digest}
// streams them back. The gateway computes the digest itself; the server's
// answer is authoritative.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPStore(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "content_http_store")),
	}
}

func (hs *HTTPStore) Put(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hs.baseURL+"/blobs", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := hs.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("blob gateway returned status %d", resp.StatusCode)
	}

	var out struct {
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode blob gateway response: %w", err)
	}
	if out.Digest == "" {
		return "", fmt.Errorf("blob gateway returned empty digest")
	}

	hs.logger.Debug("Stored content", zap.String("digest", out.Digest), zap.Int("size", len(data)))
	return out.Digest, nil
}

func (hs *HTTPStore) Get(ctx context.Context, digest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.baseURL+"/blobs/"+digest, nil)
	if err != nil {
		return nil, err
	}

	resp, err := hs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob gateway returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
