// Package ipfs pins JSON documents to IPFS through the Pinata pinning API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultPinataEndpoint is the Pinata JSON pinning endpoint.
	DefaultPinataEndpoint = "https://api.pinata.cloud/pinning/pinJSONToIPFS"
	// DefaultGateway is the public gateway prefix used for links to pinned content.
	DefaultGateway = "https://gateway.pinata.cloud/ipfs/"
)

var (
	// ErrMissingJWT is returned when the client has no API token configured.
	ErrMissingJWT = errors.New("pinata API JWT not configured")
	// ErrPinFailed is returned when Pinata answers with a non success status.
	ErrPinFailed = errors.New("pin failed")
)

// Pinner pins JSON content and returns its content identifier.
type Pinner interface {
	PinJSON(ctx context.Context, content any) (string, error)
}

var _ Pinner = (*PinataClient)(nil)

// PinataClient pins JSON documents with a Pinata API JWT.
type PinataClient struct {
	jwt      string
	endpoint string
	client   *http.Client
}

// PinataOption configures a PinataClient.
type PinataOption func(*PinataClient)

// WithEndpoint overrides the pinning endpoint.
func WithEndpoint(endpoint string) PinataOption {
	return func(c *PinataClient) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client used for pinning.
func WithHTTPClient(hc *http.Client) PinataOption {
	return func(c *PinataClient) {
		c.client = hc
	}
}

// NewPinataClient returns a client authenticating with jwt.
func NewPinataClient(jwt string, opts ...PinataOption) *PinataClient {
	c := &PinataClient{
		jwt:      jwt,
		endpoint: DefaultPinataEndpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

type pinRequest struct {
	PinataContent any           `json:"pinataContent"`
	PinataOptions pinataOptions `json:"pinataOptions"`
}

type pinataOptions struct {
	CIDVersion int `json:"cidVersion"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinJSON pins content as a CIDv1 document.
func (c *PinataClient) PinJSON(ctx context.Context, content any) (string, error) {
	if c.jwt == "" {
		return "", ErrMissingJWT
	}

	body, err := json.Marshal(pinRequest{
		PinataContent: content,
		PinataOptions: pinataOptions{CIDVersion: 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build pin request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrPinFailed, resp.StatusCode)
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", errors.New("no CID returned from Pinata")
	}

	return out.IpfsHash, nil
}

// GatewayURL returns a public gateway link for cid.
func GatewayURL(cid string) string {
	return DefaultGateway + cid
}
