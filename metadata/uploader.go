package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Uploader pins a metadata document and returns its content identifier.
type Uploader interface {
	Upload(ctx context.Context, doc Document) (string, error)
}

// UploadResponse is the success body returned by the upload endpoint.
type UploadResponse struct {
	CID     string `json:"cid"`
	IpfsURI string `json:"ipfsUri,omitempty"`
	Size    int    `json:"size,omitempty"`
	Gateway string `json:"gateway,omitempty"`
}

var _ Uploader = (*HTTPUploader)(nil)

// HTTPUploader posts documents as JSON to an upload endpoint, usually the launcher's own
// /api/ipfs route.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
	// host overrides the Host header; the endpoint only accepts requests for the app host.
	host string
}

// HTTPUploaderOption configures an HTTPUploader.
type HTTPUploaderOption func(*HTTPUploader)

// WithHTTPClient sets the client used for uploads. Timeouts are the client's concern.
func WithHTTPClient(c *http.Client) HTTPUploaderOption {
	return func(u *HTTPUploader) {
		u.client = c
	}
}

// WithHost sets the Host header sent with every upload.
func WithHost(host string) HTTPUploaderOption {
	return func(u *HTTPUploader) {
		u.host = host
	}
}

// NewHTTPUploader returns an uploader for endpoint.
func NewHTTPUploader(endpoint string, opts ...HTTPUploaderOption) *HTTPUploader {
	u := &HTTPUploader{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Upload sends doc in a single request. Any non 2xx response is an error.
func (u *HTTPUploader) Upload(ctx context.Context, doc Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.host != "" {
		req.Host = u.host
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.CID == "" {
		return "", errors.New("upload response has no cid")
	}

	return out.CID, nil
}
