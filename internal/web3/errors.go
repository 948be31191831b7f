package web3

import (
	"fmt"

	"moff.io/moff-wallet/pkg/errors"
)

var (
	// ErrNoWalletAvailable is part of the shared contract, WalletConnect never returns it.
	ErrNoWalletAvailable = errors.New("no wallet available")
	ErrNotConnected      = errors.New("provider not connected")
	ErrNoAccounts        = errors.New("wallet returned no accounts")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidChainID    = errors.New("invalid chain id")
)

// NativeProviderError is a failure of the wrapped SDK, Err is kept untouched.
type NativeProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *NativeProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *NativeProviderError) Unwrap() error {
	return e.Err
}

func nativeError(op string, err error) error {
	return &NativeProviderError{Provider: Name, Op: op, Err: err}
}

func makeError(err error) error {
	return errors.Wrap(err, Name)
}
