package web3

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	for _, in := range []string{
		invalidAddress,
		validAddress,
		"0x14186C8215985F33845722730C6382443BF9EC65",
		" " + validAddress + "\n",
	} {
		out, err := NormalizeAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, validAddress, out)
	}

	for _, in := range []string{"", "0x1234", "hello", validAddress + "00"} {
		_, err := NormalizeAddress(in)
		assert.ErrorIs(t, err, ErrInvalidAddress, in)
	}
}

func TestNormalizeChainID(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int
	}{
		{"0x1", 1},
		{1, 1},
		{"1", 1},
		{"0xa4b1", 42161},
		{"0XA4B1", 42161},
		{float64(137), 137},
		{json.Number("56"), 56},
		{int64(250), 250},
		{uint64(25), 25},
		{hexutil.Uint64(43114), 43114},
		{(*hexutil.Big)(big.NewInt(80001)), 80001},
		{big.NewInt(5), 5},
		// palm mainnet
		{"0x2a15c308d", 11297108109},
		{"11297108109", 11297108109},
		{float64(11297108109), 11297108109},
		{json.Number("11297108109"), 11297108109},
		{float64(1 << 53), 1 << 53},
	}
	for _, c := range cases {
		got, err := NormalizeChainID(c.in)
		require.NoError(t, err, "%v", c.in)
		assert.Equal(t, c.want, got, "%v", c.in)
	}

	invalid := []interface{}{
		nil, "", "0xzz", -1, 1.5, float64(-3), "chain", big.NewInt(-1), []int{1},
		uint64(math.MaxUint64),
		float64(1<<53 + 2),
		"0x8000000000000000",
		new(big.Int).Lsh(big.NewInt(1), 64),
	}
	for _, in := range invalid {
		_, err := NormalizeChainID(in)
		assert.ErrorIs(t, err, ErrInvalidChainID, "%v", in)
	}
}

func TestAccountList(t *testing.T) {
	assert.Equal(t, []string{validAddress}, accountList([]string{validAddress}))
	assert.Equal(t, []string{validAddress}, accountList([]interface{}{validAddress, 3}))
	assert.Equal(t, []string{validAddress}, accountList(validAddress))
	assert.Empty(t, accountList(""))
	assert.Empty(t, accountList(nil))
	assert.Empty(t, accountList([]interface{}{}))
}
