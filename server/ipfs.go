package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cogni-dao/proposal-launcher/ipfs"
	"github.com/cogni-dao/proposal-launcher/metadata"
)

const (
	// MaxMetadataSize is the largest metadata document /api/ipfs pins, in bytes of JSON.
	MaxMetadataSize = 10240

	maxUploadBody = 1 << 20
)

type uploadRequest struct {
	Title       string              `json:"title"`
	Summary     string              `json:"summary"`
	Description string              `json:"description"`
	Resources   []metadata.Resource `json:"resources,omitempty"`
}

// UploadResponse is the body of a successful /api/ipfs request.
type UploadResponse struct {
	CID     string `json:"cid"`
	IpfsURI string `json:"ipfsUri"`
	Size    int    `json:"size"`
	Gateway string `json:"gateway"`
}

// handleIPFS pins a metadata document. Only requests addressed to the app host are served.
func (s *Server) handleIPFS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.sameHost(r.Host) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" || req.Summary == "" {
		writeError(w, http.StatusBadRequest, "title and summary are required")
		return
	}

	raw, err := json.Marshal(req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to upload to IPFS", Details: err.Error()})
		return
	}
	size := len(raw)
	if size > MaxMetadataSize {
		writeError(w, http.StatusBadRequest, "metadata too large (max 10KB)")
		return
	}

	if s.pinner == nil {
		writeError(w, http.StatusInternalServerError, "PINATA_API_JWT not configured")
		return
	}

	resources := req.Resources
	if resources == nil {
		resources = []metadata.Resource{}
	}
	doc := metadata.Document{
		Title:       req.Title,
		Summary:     req.Summary,
		Description: req.Description,
		Resources:   resources,
	}

	cid, err := s.pinner.PinJSON(r.Context(), doc)
	switch {
	case errors.Is(err, ipfs.ErrMissingJWT):
		writeError(w, http.StatusInternalServerError, "PINATA_API_JWT not configured")
		return
	case errors.Is(err, ipfs.ErrPinFailed):
		s.lggr.Warnw("Pinning rejected", "err", err, "requestId", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "pin failed")

		return
	case err != nil:
		s.lggr.Errorw("Pinning failed", "err", err, "requestId", RequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to upload to IPFS", Details: err.Error()})

		return
	}

	s.lggr.Infow("Pinned metadata", "cid", cid, "size", size)
	writeJSON(w, http.StatusOK, UploadResponse{
		CID:     cid,
		IpfsURI: "ipfs://" + cid,
		Size:    size,
		Gateway: ipfs.GatewayURL(cid),
	})
}

// sameHost reports whether host is exactly the app host or its www subdomain, port included.
func (s *Server) sameHost(host string) bool {
	if s.appHost == "" {
		return false
	}

	return host == s.appHost || host == "www."+s.appHost
}
