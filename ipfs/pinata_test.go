package ipfs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinataClient_PinJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		giveJWT string
		handler http.HandlerFunc
		want    string
		wantErr string
	}{
		{
			name:    "pinned",
			giveJWT: "jwt",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"IpfsHash":"bafkrei","PinSize":12}`))
			},
			want: "bafkrei",
		},
		{
			name:    "missing jwt",
			wantErr: "JWT not configured",
		},
		{
			name:    "rejected",
			giveJWT: "jwt",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr: "pin failed: status 401",
		},
		{
			name:    "no hash",
			giveJWT: "jwt",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
			wantErr: "no CID returned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := tt.handler
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {
					t.Error("unexpected request")
				}
			}
			srv := httptest.NewServer(handler)
			defer srv.Close()

			c := NewPinataClient(tt.giveJWT, WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
			got, err := c.PinJSON(t.Context(), map[string]string{"title": "T"})
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPinataClient_RequestShape(t *testing.T) {
	t.Parallel()

	var (
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"IpfsHash":"cid"}`))
	}))
	defer srv.Close()

	_, err := NewPinataClient("secret", WithEndpoint(srv.URL)).PinJSON(t.Context(), map[string]string{"title": "T"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, map[string]any{"title": "T"}, gotBody["pinataContent"])
	assert.Equal(t, map[string]any{"cidVersion": float64(1)}, gotBody["pinataOptions"])
}

func TestGatewayURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/abc", GatewayURL("abc"))
}
