package server

import (
	"encoding/json"
	"net/http"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
	"github.com/cogni-dao/proposal-launcher/launcher"
	"github.com/cogni-dao/proposal-launcher/proposal"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handlePreview answers with what submitting the validated deeplink would send. Join previews
// carry the live faucet state when the server has a chain matching the deeplink.
func (s *Server) handlePreview(def proposal.Definition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		params, ok := paramsFromContext(r.Context())
		if !ok {
			http.Error(w, "Invalid parameters for "+def.Kind.Route(), http.StatusBadRequest)
			return
		}

		preview, err := launcher.NewPreview(def, params, s.encodeOpts...)
		if err != nil {
			s.lggr.Errorw("Failed to build preview", "kind", def.Kind, "err", err, "requestId", RequestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "failed to build preview")

			return
		}

		if def.Kind == proposal.KindJoin && s.chain != nil && s.chain.Ready() &&
			evm.IsCorrectChain(s.chain.ChainID, preview.ChainID) {
			status, ferr := launcher.ReadFaucet(r.Context(), s.chain.Client, params.Address("faucet"), s.chain.Sender.From)
			if ferr != nil {
				s.lggr.Warnw("Failed to read faucet state", "faucet", params.Get("faucet"), "err", ferr)
			} else {
				preview.Faucet = &status
			}
		}

		writeJSON(w, http.StatusOK, preview)
	}
}
