package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"moff.io/moff-wallet/internal/config"
	"moff.io/moff-wallet/internal/web3"
	"moff.io/moff-wallet/internal/web3/fake"
)

const address = "0x14186C8215985f33845722730c6382443Bf9EC65"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(native *fake.NativeProvider) (*Server, web3.Web3Api) {
	api := web3.WalletConnectProvider.MakeWeb3Api(web3.Options{
		CustomNativeProvider: func(ctx context.Context) (web3.NativeProvider, error) {
			return native, nil
		},
	})
	return NewServer(api, &Pairing{}, time.Second), api
}

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusDisconnected(t *testing.T) {
	s, _ := newTestServer(fake.New(address))

	w := do(s, http.MethodGet, "/wallet/status")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "WalletConnect", body["name"])
	assert.Equal(t, false, body["connected"])
	assert.NotContains(t, body, "address")
	assert.NotEmpty(t, w.Header().Get("request-id"))
}

func TestConnectFlow(t *testing.T) {
	native := fake.New(address)
	s, api := newTestServer(native)

	w := do(s, http.MethodPost, "/wallet/connect")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, api.IsConnected, time.Second, 10*time.Millisecond)

	w = do(s, http.MethodPost, "/wallet/connect")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, native.EnableCalls())

	w = do(s, http.MethodGet, "/wallet/status")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, address, body["address"])
	assert.Equal(t, float64(1), body["chain_id"])

	w = do(s, http.MethodPost, "/wallet/disconnect")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, api.IsConnected())
	assert.Equal(t, 1, native.DisconnectCalls())
}

func TestConnectFailureResetsState(t *testing.T) {
	native := fake.New(address)
	native.SetEnableError(context.DeadlineExceeded)
	s, api := newTestServer(native)
	require.NoError(t, s.pairing.Display("wc:topic@1?bridge=b&key=k", []byte{0x89, 'P', 'N', 'G'}))

	w := do(s, http.MethodPost, "/wallet/connect")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool { return !s.connecting.Load() }, time.Second, 10*time.Millisecond)
	assert.False(t, api.IsConnected())

	w = do(s, http.MethodGet, "/wallet/qrcode")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQRCode(t *testing.T) {
	s, api := newTestServer(fake.New(address))

	w := do(s, http.MethodGet, "/wallet/qrcode")
	assert.Equal(t, http.StatusNotFound, w.Code)

	png := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, s.pairing.Display("wc:topic@1?bridge=b&key=k", png))
	w = do(s, http.MethodGet, "/wallet/qrcode")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "wc:topic@1?bridge=b&key=k", w.Header().Get("x-pairing-uri"))
	assert.Equal(t, png, w.Body.Bytes())

	require.NoError(t, api.Connect(context.Background()))
	w = do(s, http.MethodGet, "/wallet/qrcode")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDisconnectWhenIdle(t *testing.T) {
	native := fake.New(address)
	s, _ := newTestServer(native)

	w := do(s, http.MethodPost, "/wallet/disconnect")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, native.DisconnectCalls())
}

func TestLifecycle(t *testing.T) {
	s, _ := newTestServer(fake.New(address))
	assert.NoError(t, s.Stop(context.Background()))

	s.Apply(&config.Configuration{HTTP: config.HTTP{Address: "127.0.0.1:0"}})
	assert.Equal(t, "127.0.0.1:0", s.address)
	s.Start(context.Background())
	assert.NoError(t, s.Stop(context.Background()))
}
