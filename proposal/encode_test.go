package proposal

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogni-dao/proposal-launcher/deeplink"
)

var (
	daoAddr    = "0x" + strings.Repeat("a", 40)
	pluginAddr = "0x" + strings.Repeat("b", 40)
	signalAddr = "0x" + strings.Repeat("c", 40)
	tokenAddr  = "0x" + strings.Repeat("d", 40)
	faucetAddr = "0x" + strings.Repeat("e", 40)
)

func mergeParams() deeplink.Params {
	return deeplink.Params{
		"dao":     daoAddr,
		"plugin":  pluginAddr,
		"signal":  signalAddr,
		"chainId": "11155111",
		"repoUrl": "https%3A//github.com/x/y",
		"pr":      "5",
		"action":  "merge",
		"target":  "change",
	}
}

func faucetParams() deeplink.Params {
	return deeplink.Params{
		"dao":     daoAddr,
		"plugin":  pluginAddr,
		"token":   tokenAddr,
		"faucet":  faucetAddr,
		"chainId": "11155111",
	}
}

func TestDecodeRepoURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		give string
		want string
	}{
		{name: "encoded scheme", give: "https%3A//github.com/x/y", want: "https://github.com/x/y"},
		{name: "fully encoded", give: "https%3A%2F%2Fgithub.com%2Fx%2Fy", want: "https://github.com/x/y"},
		{name: "plain", give: "https://github.com/x/y", want: "https://github.com/x/y"},
		{name: "malformed escape falls back", give: "https%3A//github.com/%zz", want: "https%3A//github.com/%zz"},
		{name: "plus is kept", give: "a+b", want: "a+b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, DecodeRepoURL(tt.give))
		})
	}
}

func TestEncodeSignal(t *testing.T) {
	t.Parallel()

	actions, err := EncodeSignal(mergeParams())
	require.NoError(t, err)
	require.Len(t, actions, 1)

	a := actions[0]
	assert.Equal(t, common.HexToAddress(signalAddr), a.To)
	assert.Equal(t, int64(0), a.Value.Int64())

	method := CogniSignalABI.Methods["signal"]
	require.Equal(t, method.ID, a.Data[:4])

	args, err := method.Inputs.Unpack(a.Data[4:])
	require.NoError(t, err)
	require.Len(t, args, 6)
	assert.Equal(t, []any{"github", "https://github.com/x/y", "merge", "change", "5"}, args[:5])
	assert.Empty(t, args[5])
}

func TestEncodeFaucetGrants(t *testing.T) {
	t.Parallel()

	type grant struct {
		where, who common.Address
		id         [32]byte
	}

	var (
		dao    = common.HexToAddress(daoAddr)
		token  = common.HexToAddress(tokenAddr)
		faucet = common.HexToAddress(faucetAddr)
	)

	tests := []struct {
		name        string
		giveVariant FaucetVariant
		want        []grant
	}{
		{
			name:        "full",
			giveVariant: FaucetFull,
			want: []grant{
				{where: token, who: faucet, id: MintPermissionID},
				{where: faucet, who: dao, id: ConfigPermissionID},
				{where: faucet, who: dao, id: PausePermissionID},
			},
		},
		{
			name:        "mint only",
			giveVariant: FaucetMintOnly,
			want: []grant{
				{where: token, who: faucet, id: MintPermissionID},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			actions, err := EncodeFaucetGrants(faucetParams(), tt.giveVariant)
			require.NoError(t, err)
			require.Len(t, actions, len(tt.want))

			method := PermissionManagerABI.Methods["grant"]
			for i, a := range actions {
				assert.Equal(t, dao, a.To, "every grant is addressed to the DAO")
				assert.Equal(t, int64(0), a.Value.Int64())
				require.Equal(t, method.ID, a.Data[:4])

				args, err := method.Inputs.Unpack(a.Data[4:])
				require.NoError(t, err)
				assert.Equal(t, tt.want[i].where, args[0])
				assert.Equal(t, tt.want[i].who, args[1])
				assert.Equal(t, tt.want[i].id, args[2])
			}
		})
	}
}

func TestEncodeClaim(t *testing.T) {
	t.Parallel()

	actions, err := EncodeClaim(deeplink.Params{"faucet": faucetAddr})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, common.HexToAddress(faucetAddr), actions[0].To)
	assert.Equal(t, FaucetMinterABI.Methods["claim"].ID, actions[0].Data)
}

func TestParseFaucetVariant(t *testing.T) {
	t.Parallel()

	v, err := ParseFaucetVariant("")
	require.NoError(t, err)
	assert.Equal(t, FaucetFull, v)

	v, err = ParseFaucetVariant("mint-only")
	require.NoError(t, err)
	assert.Equal(t, FaucetMintOnly, v)
	assert.Equal(t, "mint-only", v.String())

	_, err = ParseFaucetVariant("half")
	require.ErrorContains(t, err, "unknown faucet variant")
}

func TestCreateProposalCall(t *testing.T) {
	t.Parallel()

	actions, err := EncodeSignal(mergeParams())
	require.NoError(t, err)

	timing := Timing{Start: 1_700_000_060, End: 1_700_259_200}
	call := CreateProposalCall(common.HexToAddress(pluginAddr), []byte("ipfs://abc"), actions, timing)
	assert.Equal(t, common.HexToAddress(pluginAddr), call.To)
	assert.Equal(t, "createProposal", call.Method)

	data, err := call.Calldata()
	require.NoError(t, err)

	method := TokenVotingABI.Methods["createProposal"]
	require.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 7)
	assert.Equal(t, []byte("ipfs://abc"), args[0])
	assert.Zero(t, args[2].(*big.Int).Sign())
	assert.Equal(t, timing.Start, args[3])
	assert.Equal(t, timing.End, args[4])
	assert.Equal(t, VoteOptionNone, args[5])
	assert.False(t, args[6].(bool))

	// Unpacked tuples are anonymous structs; compare through the packer instead.
	repacked, err := method.Inputs.Pack(args...)
	require.NoError(t, err)
	assert.Equal(t, data[4:], repacked)
}

func TestCreateProposalCall_NilMetadata(t *testing.T) {
	t.Parallel()

	call := CreateProposalCall(common.HexToAddress(pluginAddr), nil, []Action{}, Timing{Start: 1, End: 2})
	data, err := call.Calldata()
	require.NoError(t, err)

	args, err := TokenVotingABI.Methods["createProposal"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Empty(t, args[0])
}

func TestNewTiming(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	got := NewTiming(now)
	assert.Equal(t, Timing{Start: 1_700_000_060, End: 1_700_259_200}, got)
	assert.NotZero(t, got.Start)
	assert.Greater(t, got.End, got.Start)
}

func TestAction_MarshalJSON(t *testing.T) {
	t.Parallel()

	a := Action{To: common.HexToAddress(daoAddr), Value: big.NewInt(7), Data: []byte{0xde, 0xad}}
	got, err := json.Marshal(a)
	require.NoError(t, err)
	to := common.HexToAddress(daoAddr).Hex()
	assert.JSONEq(t, `{"to":"`+to+`","value":"7","data":"0xdead"}`, string(got))

	got, err = json.Marshal(Action{To: common.HexToAddress(daoAddr)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"`+to+`","value":"0","data":"0x"}`, string(got))
}

func TestAction_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		want    Action
		wantErr string
	}{
		{
			name: "checksummed address",
			give: `{"to":"` + common.HexToAddress(daoAddr).Hex() + `","value":"7","data":"0xdead"}`,
			want: Action{To: common.HexToAddress(daoAddr), Value: big.NewInt(7), Data: []byte{0xde, 0xad}},
		},
		{
			name: "lowercase address and large value",
			give: `{"to":"` + daoAddr + `","value":"1000000000000000000000","data":"0x01"}`,
			want: Action{
				To:    common.HexToAddress(daoAddr),
				Value: new(big.Int).Mul(big.NewInt(1_000_000_000_000), big.NewInt(1_000_000_000)),
				Data:  []byte{0x01},
			},
		},
		{
			name:    "bad address",
			give:    `{"to":"0x12","value":"0","data":"0x"}`,
			wantErr: `invalid action address "0x12"`,
		},
		{
			name:    "bad value",
			give:    `{"to":"` + daoAddr + `","value":"7.5","data":"0x"}`,
			wantErr: `invalid action value "7.5"`,
		},
		{
			name:    "bad data",
			give:    `{"to":"` + daoAddr + `","value":"0","data":"dead"}`,
			wantErr: "hex string without 0x prefix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got Action
			err := json.Unmarshal([]byte(tt.give), &got)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.To, got.To)
			assert.Equal(t, 0, tt.want.Value.Cmp(got.Value), got.Value.String())
			assert.Equal(t, tt.want.Data, got.Data)
		})
	}
}

func TestAction_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	actions, err := EncodeFaucetGrants(faucetParams(), FaucetFull)
	require.NoError(t, err)

	b, err := json.Marshal(actions)
	require.NoError(t, err)

	var got []Action
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got, len(actions))
	for i := range actions {
		assert.Equal(t, actions[i].To, got[i].To)
		assert.Equal(t, 0, actions[i].Value.Cmp(got[i].Value))
		assert.Equal(t, actions[i].Data, got[i].Data)
	}
}
