// Package metadata composes proposal metadata documents and pins them through an [Uploader].
//
// Upload failures never fail proposal construction: the composer substitutes the empty bytes
// sentinel "0x" and the proposal is submitted without a metadata URI.
package metadata

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cogni-dao/proposal-launcher/pkg/logger"
)

// EmptyBytes is the hex encoding of an empty byte string.
const EmptyBytes = "0x"

// Result is the outcome of [Composer.ComposeAndUpload].
type Result struct {
	// MetadataBytes is the 0x-prefixed hex encoding of "ipfs://<cid>", or [EmptyBytes].
	MetadataBytes string
	Title         string
	Summary       string
}

// Bytes decodes MetadataBytes for use as an ABI bytes argument.
func (r Result) Bytes() ([]byte, error) {
	b, err := hexutil.Decode(r.MetadataBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata bytes %q: %w", r.MetadataBytes, err)
	}

	return b, nil
}

// Pinned reports whether the metadata was uploaded.
func (r Result) Pinned() bool {
	return r.MetadataBytes != EmptyBytes
}

// URIBytes returns the hex encoding of the ipfs URI for cid.
func URIBytes(cid string) string {
	return hexutil.Encode([]byte("ipfs://" + cid))
}

// Composer builds metadata documents and uploads them.
type Composer struct {
	uploader Uploader
	lggr     logger.Logger
	metrics  *Metrics
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithMetrics records upload outcomes in m.
func WithMetrics(m *Metrics) ComposerOption {
	return func(c *Composer) {
		c.metrics = m
	}
}

// NewComposer returns a Composer that uploads through uploader.
func NewComposer(uploader Uploader, lggr logger.Logger, opts ...ComposerOption) *Composer {
	c := &Composer{
		uploader: uploader,
		lggr:     lggr,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ComposeAndUpload builds the document for in and issues exactly one upload. It never returns an
// error: when the upload fails the result carries [EmptyBytes]. Title and summary are echoed as
// given.
func (c *Composer) ComposeAndUpload(ctx context.Context, in Input) Result {
	res := Result{
		MetadataBytes: EmptyBytes,
		Title:         in.Title,
		Summary:       in.Summary,
	}

	doc := NewDocument(in)
	cid, err := c.uploader.Upload(ctx, doc)
	if err != nil {
		c.lggr.Warnw("Metadata upload failed, submitting proposal without metadata",
			"title", in.Title, "err", err)
		c.metrics.incFallback()

		return res
	}

	res.MetadataBytes = URIBytes(cid)
	c.lggr.Infow("Metadata pinned", "cid", cid, "title", in.Title)
	c.metrics.incPinned()

	return res
}
