package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accountInfoServer answers every getAccountInfo request with the given
// JSON value payload.
func accountInfoServer(t *testing.T, value string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":{"context":{"slot":1},"value":%s}}`, req.ID, value)
	}))
}

func TestRealGetAccountInfo_MissingAccountIsNilValue(t *testing.T) {
	srv := accountInfoServer(t, "null")
	defer srv.Close()

	client := NewRPCClient(srv.URL)
	out, err := client.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())

	// An absent account is a normal read result: nil Value, no error.
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Nil(t, out.Value)
}

func TestRealGetAccountInfo_PresentAccount(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	value := fmt.Sprintf(
		`{"data":[%q,"base64"],"executable":false,"lamports":5,"owner":"11111111111111111111111111111111","rentEpoch":0}`,
		base64.StdEncoding.EncodeToString(raw))
	srv := accountInfoServer(t, value)
	defer srv.Close()

	client := NewRPCClient(srv.URL)
	out, err := client.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())

	require.NoError(t, err)
	require.NotNil(t, out)
	require.NotNil(t, out.Value)
	assert.Equal(t, raw, out.Value.Data.GetBinary())
}
