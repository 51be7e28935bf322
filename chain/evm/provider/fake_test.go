package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// newFakeRPCServer returns a fake RPC server which answers every request with 0x1. That is a valid
// eth_blockNumber and eth_chainId response.
//
// When the test is done, the server is closed automatically.
func newFakeRPCServer(t *testing.T) *httptest.Server {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`))
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}
