package chains

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexIDsMatchIDs(t *testing.T) {
	for _, c := range Array {
		id, err := hexutil.DecodeUint64(c.IDHex)
		require.NoError(t, err, c.Name)
		assert.Equal(t, uint64(c.ID), id, c.Name)
	}
}

func TestLookup(t *testing.T) {
	c, ok := Get(137)
	require.True(t, ok)
	assert.Equal(t, "polygon", c.Name)

	c, ok = GetByHex("0xA86A")
	require.True(t, ok)
	assert.Equal(t, 43114, c.ID)

	_, ok = Get(999999)
	assert.False(t, ok)
	assert.Len(t, IDs(), len(Array))
}

func TestRPCMap(t *testing.T) {
	rpc := RPCMap("my-key")
	assert.Equal(t, "https://cloudflare-eth.com", rpc[1])
	assert.Equal(t, "https://goerli.infura.io/v3/my-key", rpc[5])

	rpc = RPCMap("")
	assert.Equal(t, "https://ropsten.infura.io/v3/"+DefaultProjectKey, rpc[3])
	_, ok := rpc[DefaultChainID]
	assert.True(t, ok)
}
