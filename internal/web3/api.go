// Package web3 defines the wallet provider contract shared by every wallet
// integration and the WalletConnect implementation of it.
package web3

import (
	"context"
	"time"

	"moff.io/moff-wallet/internal/walletconnect"
)

// Event is the adapter level event vocabulary.
type Event string

const (
	EventWalletConnected Event = "wallet-connected"
	// EventWalletDisconnected fires on every transition to disconnected.
	EventWalletDisconnected Event = "wallet-disconnected"
	// EventWalletAccountChanged carries the checksum address of the new first account.
	EventWalletAccountChanged Event = "wallet-account-changed"
	// EventWalletNetworkChanged carries the new chain id as int.
	EventWalletNetworkChanged Event = "wallet-network-changed"
)

// Web3Api is a connection to one wallet.
type Web3Api interface {
	Name() string
	HasWallet() bool

	// Connect pairs with the wallet, it is a no-op when already connected.
	Connect(ctx context.Context) error
	// Disconnect always leaves the api disconnected, native failures are only logged.
	Disconnect(ctx context.Context) error
	IsConnected() bool

	GetAddress(ctx context.Context) (string, error)
	GetChainId(ctx context.Context) (int, error)
	GetRawProvider() (NativeProvider, error)

	AddListener(event Event, fn Listener) *ListenerHandle
	RemoveListener(handle *ListenerHandle) bool
}

// Web3ApiProvider builds Web3Api instances of one wallet integration.
type Web3ApiProvider interface {
	Name() string
	MakeWeb3Api(opts Options) Web3Api
	HasWallet() bool
}

// NativeProvider is the SDK object a Web3Api wraps. Implementations must be
// comparable, pointer types in practice, events are matched to it by identity.
type NativeProvider interface {
	Enable(ctx context.Context) ([]string, error)
	Request(ctx context.Context, method string, params ...interface{}) (interface{}, error)
	Accounts() []string
	On(event string, fn walletconnect.Listener)
	Disconnect(ctx context.Context) error
}

// NativeProviderFactory returns a native provider ready to be enabled.
type NativeProviderFactory func(ctx context.Context) (NativeProvider, error)

type Options struct {
	// CustomNativeProvider replaces the default native provider construction.
	CustomNativeProvider NativeProviderFactory
	// ProjectKey fills the infura RPC endpoints of the default native provider.
	ProjectKey string

	// Settings of the default native provider, zero values pick the defaults.
	BridgeURL      string
	ChainID        int
	ClientMeta     walletconnect.ClientMeta
	DisplayQRCode  walletconnect.DisplayQRCodeFn
	PairingTimeout time.Duration
}
