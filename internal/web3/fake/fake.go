// Package fake provides an in-memory native provider for testing code built on web3.Web3Api.
package fake

import (
	"context"
	"sync"

	"moff.io/moff-wallet/internal/walletconnect"
)

// NativeProvider mimics walletconnect.Provider without a bridge. Events are
// only raised through Emit.
type NativeProvider struct {
	mu sync.Mutex

	accounts []string
	chainID  interface{}

	enableCalls     int
	disconnectCalls int
	closeCalls      int
	enableErr       error
	disconnectErr   error
	requestFn       func(method string, params []interface{}) (interface{}, error)

	listeners map[string][]walletconnect.Listener
}

// New returns a provider whose wallet holds accounts on chain "0x1".
func New(accounts ...string) *NativeProvider {
	return &NativeProvider{
		accounts:  accounts,
		chainID:   "0x1",
		listeners: map[string][]walletconnect.Listener{},
	}
}

func (f *NativeProvider) Enable(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enableCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.enableErr != nil {
		return nil, f.enableErr
	}
	return append([]string(nil), f.accounts...), nil
}

// Request answers eth_requestAccounts/eth_accounts as a JSON decoded list and
// eth_chainId with the configured value, unless a request func is installed.
func (f *NativeProvider) Request(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	f.mu.Lock()
	fn := f.requestFn
	accounts := append([]string(nil), f.accounts...)
	chainID := f.chainID
	f.mu.Unlock()

	if fn != nil {
		return fn(method, params)
	}
	switch method {
	case "eth_requestAccounts", "eth_accounts":
		list := make([]interface{}, 0, len(accounts))
		for _, a := range accounts {
			list = append(list, a)
		}
		return list, nil
	case "eth_chainId":
		return chainID, nil
	default:
		return nil, &walletconnect.RPCError{Code: -32601, Message: "method not found"}
	}
}

func (f *NativeProvider) Accounts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.accounts...)
}

func (f *NativeProvider) On(event string, fn walletconnect.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[event] = append(f.listeners[event], fn)
}

func (f *NativeProvider) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectCalls++
	return f.disconnectErr
}

// Close only counts calls, the provider stays usable.
func (f *NativeProvider) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

// Emit delivers a native event to the registered listeners synchronously.
func (f *NativeProvider) Emit(event string, args ...interface{}) {
	f.mu.Lock()
	fns := append([]walletconnect.Listener(nil), f.listeners[event]...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(args...)
	}
}

func (f *NativeProvider) ListenerCount(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners[event])
}

func (f *NativeProvider) EnableCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enableCalls
}

func (f *NativeProvider) DisconnectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnectCalls
}

func (f *NativeProvider) CloseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

func (f *NativeProvider) SetAccounts(accounts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = accounts
}

// SetChainID sets the raw eth_chainId answer, a hex string or a number.
func (f *NativeProvider) SetChainID(v interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainID = v
}

func (f *NativeProvider) SetEnableError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enableErr = err
}

func (f *NativeProvider) SetDisconnectError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectErr = err
}

// SetRequestFunc overrides every Request answer.
func (f *NativeProvider) SetRequestFunc(fn func(method string, params []interface{}) (interface{}, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestFn = fn
}
