package web3

import (
	"context"
	"io"
	"reflect"
	"sync"

	"moff.io/moff-wallet/internal/chains"
	"moff.io/moff-wallet/internal/walletconnect"
	"moff.io/moff-wallet/pkg/log"
)

// Name identifies the WalletConnect integration.
const Name = "WalletConnect"

var _ NativeProvider = (*walletconnect.Provider)(nil)

// WalletConnectProvider builds WalletConnect backed Web3Api instances.
var WalletConnectProvider Web3ApiProvider = walletConnectProvider{}

type walletConnectProvider struct{}

func (walletConnectProvider) Name() string {
	return Name
}

func (walletConnectProvider) MakeWeb3Api(opts Options) Web3Api {
	return newWalletConnectApi(opts)
}

// HasWallet is always true, pairing happens with a wallet on another device.
func (walletConnectProvider) HasWallet() bool {
	return true
}

// walletConnectApi is a two state machine, disconnected when native is nil.
// Connect and Disconnect may be called from any goroutine, native events
// arrive on the native provider's goroutine.
type walletConnectApi struct {
	opts      Options
	listeners *ListenersMap
	newNative NativeProviderFactory
	// owned instances are built here and closed on disconnect
	owned bool

	// serializes Connect so concurrent callers enable once
	connectMu sync.Mutex

	mu     sync.Mutex
	native NativeProvider
	// last instance whose events were routed here, wiring tags its listeners
	wired  NativeProvider
	wiring uint64
}

func newWalletConnectApi(opts Options) *walletConnectApi {
	a := &walletConnectApi{
		opts:      opts,
		listeners: NewListenersMap(),
		newNative: opts.CustomNativeProvider,
	}
	if a.newNative == nil {
		a.owned = true
		a.newNative = func(ctx context.Context) (NativeProvider, error) {
			return makeWalletConnectProvider(opts), nil
		}
	}
	return a
}

func (a *walletConnectApi) Name() string {
	return Name
}

func (a *walletConnectApi) HasWallet() bool {
	return WalletConnectProvider.HasWallet()
}

func (a *walletConnectApi) AddListener(event Event, fn Listener) *ListenerHandle {
	return a.listeners.AddListener(event, fn)
}

func (a *walletConnectApi) RemoveListener(handle *ListenerHandle) bool {
	return a.listeners.RemoveListener(handle)
}

// Connect runs the pairing handshake of a new native provider. A Disconnect
// racing a pending Connect has no defined order.
func (a *walletConnectApi) Connect(ctx context.Context) error {
	a.connectMu.Lock()
	defer a.connectMu.Unlock()

	if a.IsConnected() {
		return nil
	}
	if !a.HasWallet() {
		return makeError(ErrNoWalletAvailable)
	}

	native, err := a.newNative(ctx)
	if err != nil {
		return nativeError("create provider", err)
	}
	// shows the QR code and waits for the wallet
	if _, err := native.Enable(ctx); err != nil {
		if closer, ok := native.(io.Closer); ok && a.owned {
			_ = closer.Close()
		}
		return nativeError("enable", err)
	}

	a.mu.Lock()
	a.native = native
	wire := !sameInstance(a.wired, native)
	if wire {
		a.wired = native
		a.wiring++
	}
	wiring := a.wiring
	a.mu.Unlock()

	if wire {
		a.listenNative(native, wiring)
	}
	log.Infof("%s: wallet connected", Name)
	a.listeners.FireEvent(EventWalletConnected)
	return nil
}

func makeWalletConnectProvider(opts Options) *walletconnect.Provider {
	chainID := opts.ChainID
	if chainID == 0 {
		chainID = chains.DefaultChainID
	}
	return walletconnect.NewProvider(walletconnect.Options{
		RPC:            chains.RPCMap(opts.ProjectKey),
		ChainID:        chainID,
		BridgeURL:      opts.BridgeURL,
		ClientMeta:     opts.ClientMeta,
		DisplayQRCode:  opts.DisplayQRCode,
		PairingTimeout: opts.PairingTimeout,
	})
}

// listenNative routes native events here while native is the active instance
// and wiring is current. A rewired instance drops its older listeners this way,
// since native providers cannot unregister.
func (a *walletConnectApi) listenNative(native NativeProvider, wiring uint64) {
	native.On(walletconnect.EventAccountsChanged, func(args ...interface{}) {
		// skip events on disconnected state
		if !a.isActive(native, wiring) {
			return
		}
		accounts := accountList(firstArg(args))
		if len(accounts) == 0 {
			_ = a.Disconnect(context.Background())
			return
		}
		address, err := NormalizeAddress(accounts[0])
		if err != nil {
			log.Warnf("%s: drop account change: %v", Name, err)
			return
		}
		a.listeners.FireEvent(EventWalletAccountChanged, address)
	})

	native.On(walletconnect.EventChainChanged, func(args ...interface{}) {
		if !a.isActive(native, wiring) {
			return
		}
		chainID, err := NormalizeChainID(firstArg(args))
		if err != nil {
			log.Warnf("%s: drop network change: %v", Name, err)
			return
		}
		a.listeners.FireEvent(EventWalletNetworkChanged, chainID)
	})

	native.On(walletconnect.EventDisconnect, func(args ...interface{}) {
		if !a.isActive(native, wiring) {
			return
		}
		_ = a.Disconnect(context.Background())
	})
}

func (a *walletConnectApi) isActive(native NativeProvider, wiring uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.wiring == wiring && sameInstance(a.native, native)
}

// Disconnect clears the active native provider first, so events it raises
// while tearing down are already stale. Instances built by the api are closed
// and forgotten, they are never enabled again.
func (a *walletConnectApi) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	native := a.native
	a.native = nil
	if native != nil && a.owned && sameInstance(a.wired, native) {
		a.wired = nil
	}
	a.mu.Unlock()
	if native == nil {
		return nil
	}

	if err := native.Disconnect(ctx); err != nil {
		log.Errorf("%s: disconnect error: %v", Name, err)
	}
	if closer, ok := native.(io.Closer); ok && a.owned {
		if err := closer.Close(); err != nil {
			log.Errorf("%s: close error: %v", Name, err)
		}
	}
	log.Infof("%s: wallet disconnected", Name)
	a.listeners.FireEvent(EventWalletDisconnected)
	return nil
}

func (a *walletConnectApi) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.native != nil
}

func (a *walletConnectApi) GetAddress(ctx context.Context) (string, error) {
	native, err := a.checkConnection()
	if err != nil {
		return "", err
	}
	res, err := native.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return "", nativeError("eth_requestAccounts", err)
	}
	accounts := accountList(res)
	if len(accounts) == 0 {
		accounts = native.Accounts()
	}
	if len(accounts) == 0 {
		return "", makeError(ErrNoAccounts)
	}
	return NormalizeAddress(accounts[0])
}

func (a *walletConnectApi) GetChainId(ctx context.Context) (int, error) {
	native, err := a.checkConnection()
	if err != nil {
		return 0, err
	}
	res, err := native.Request(ctx, "eth_chainId")
	if err != nil {
		return 0, nativeError("eth_chainId", err)
	}
	return NormalizeChainID(res)
}

// GetRawProvider exposes the native provider for calls this api does not cover.
func (a *walletConnectApi) GetRawProvider() (NativeProvider, error) {
	return a.checkConnection()
}

func (a *walletConnectApi) checkConnection() (NativeProvider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.native == nil {
		return nil, makeError(ErrNotConnected)
	}
	return a.native, nil
}

func firstArg(args []interface{}) interface{} {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// sameInstance compares provider identities without panicking on
// non-comparable implementations, which never match.
func sameInstance(x, y NativeProvider) bool {
	if x == nil || y == nil {
		return false
	}
	t := reflect.TypeOf(x)
	if t != reflect.TypeOf(y) || !t.Comparable() {
		return false
	}
	return x == y
}
