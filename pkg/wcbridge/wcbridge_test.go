package wcbridge

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	key, err := GenerateRandomBytes(KeySize)
	require.NoError(t, err)

	for _, plain := range []string{
		"",
		`{"id":1,"jsonrpc":"2.0","method":"wc_sessionRequest","params":[]}`,
		strings.Repeat("a", 16),
	} {
		p, err := Seal([]byte(plain), key)
		require.NoError(t, err)

		parsed, err := ParsePayload([]byte(p.Marshal()))
		require.NoError(t, err)

		got, err := Open(parsed, key)
		require.NoError(t, err)
		assert.Equal(t, plain, string(got))
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	key, _ := GenerateRandomBytes(KeySize)
	other, _ := GenerateRandomBytes(KeySize)

	p, err := Seal([]byte(`{"result":true}`), key)
	require.NoError(t, err)

	_, err = Open(p, other)
	assert.ErrorIs(t, err, ErrInvalidHmac)

	data, _ := hex.DecodeString(p.Data)
	data[0] ^= 0xff
	tampered := *p
	tampered.Data = hex.EncodeToString(data)
	_, err = Open(&tampered, key)
	assert.ErrorIs(t, err, ErrInvalidHmac)
}

func TestPkcs7Unpadding(t *testing.T) {
	_, err := pkcs7Unpadding([]byte{1, 2, 3, 0}, 16)
	assert.ErrorIs(t, err, ErrInvalidPadding)
	_, err = pkcs7Unpadding([]byte{1, 2, 2, 3}, 16)
	assert.ErrorIs(t, err, ErrInvalidPadding)
	got, err := pkcs7Unpadding([]byte{9, 2, 2}, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, got)
}

func TestGetWebSocketURL(t *testing.T) {
	assert.Equal(t, "wss://a.bridge.walletconnect.org?protocol=wc&version=1&env=go",
		GetWebSocketURL("https://a.bridge.walletconnect.org", "wc", "1"))
	assert.Equal(t, "ws://127.0.0.1:8080/bridge?x=1&protocol=wc&version=1&env=go",
		GetWebSocketURL("http://127.0.0.1:8080/bridge?x=1", "wc", "1"))
}

func TestPairingURI(t *testing.T) {
	key := make([]byte, KeySize)
	uri := PairingURI("topic-1", "https://b.bridge.walletconnect.org", key)
	assert.Equal(t, "wc:topic-1@1?bridge=https%3A%2F%2Fb.bridge.walletconnect.org&key="+strings.Repeat("00", KeySize), uri)
}

func TestRandomBridgeURL(t *testing.T) {
	u := RandomBridgeURL()
	assert.True(t, strings.HasPrefix(u, "https://"))
	assert.Equal(t, "walletconnect.org", ExtractRootDomain(u))
	assert.Equal(t, "localhost", ExtractRootDomain("ws://localhost:9000/path"))
}
