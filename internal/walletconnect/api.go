// Package walletconnect is a WalletConnect v1 provider: it pairs with a remote
// wallet through a bridge server (QR code scanned by the wallet), keeps the
// session alive, relays signing requests to the wallet and sends read-only
// JSON-RPC calls to the chain's RPC endpoint.
package walletconnect

import (
	"time"

	"moff.io/moff-wallet/pkg/errors"
)

// Events emitted through Provider.On.
const (
	// EventConnect carries the chain id of the approved session.
	EventConnect = "connect"
	// EventAccountsChanged carries the new []string account list, possibly empty.
	EventAccountsChanged = "accountsChanged"
	// EventChainChanged carries the new chain id as int.
	EventChainChanged = "chainChanged"
	// EventDisconnect fires when the wallet or the transport ends the session.
	EventDisconnect = "disconnect"
)

var (
	ErrSessionRejected = errors.New("session rejected by wallet")
	ErrSessionClosed   = errors.New("session closed")
	ErrNotConnected    = errors.New("wallet connect session not established")
	ErrEnableInFlight  = errors.New("enable already in progress")
	ErrNoRPCEndpoint   = errors.New("no rpc endpoint for chain")
	ErrNoAccounts      = errors.New("no wallet accounts acquired")
	ErrSignerMismatch  = errors.New("signature does not match signer address")
)

// DisplayQRCodeFn presents the pairing URI to the user, png is the QR code of uri.
type DisplayQRCodeFn func(uri string, png []byte) error

// Listener receives provider events.
type Listener func(args ...interface{})

type Options struct {
	// RPC maps chain id to the endpoint used for read-only calls.
	RPC map[int]string
	// ChainID is proposed to the wallet, zero means chains.DefaultChainID.
	ChainID int
	// BridgeURL defaults to a random public bridge.
	BridgeURL  string
	ClientMeta ClientMeta
	// DisplayQRCode is called once the session request is published.
	DisplayQRCode DisplayQRCodeFn
	// PairingTimeout bounds Enable on top of the caller's context, zero waits forever.
	PairingTimeout time.Duration
	// QRCodeSize is the PNG edge in pixels.
	QRCodeSize int
}
