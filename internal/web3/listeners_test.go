package web3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"moff.io/moff-wallet/pkg/errors"
)

func listenerCount(m *ListenersMap, event Event) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners[event])
}

func TestListenersMapOrder(t *testing.T) {
	m := NewListenersMap()
	var got []int
	m.AddListener(EventWalletConnected, func(args ...interface{}) { got = append(got, 1) })
	m.AddListener(EventWalletConnected, func(args ...interface{}) { got = append(got, 2) })
	m.AddListener(EventWalletDisconnected, func(args ...interface{}) { got = append(got, 3) })

	m.FireEvent(EventWalletConnected)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 2, listenerCount(m, EventWalletConnected))
	assert.Zero(t, listenerCount(m, EventWalletNetworkChanged))
}

func TestListenersMapArgs(t *testing.T) {
	m := NewListenersMap()
	var got []interface{}
	m.AddListener(EventWalletNetworkChanged, func(args ...interface{}) { got = args })

	m.FireEvent(EventWalletNetworkChanged, 137)
	assert.Equal(t, []interface{}{137}, got)
}

func TestListenersMapRemove(t *testing.T) {
	m := NewListenersMap()
	calls := 0
	fn := func(args ...interface{}) { calls++ }
	first := m.AddListener(EventWalletConnected, fn)
	m.AddListener(EventWalletConnected, fn)

	assert.True(t, m.RemoveListener(first))
	m.FireEvent(EventWalletConnected)
	assert.Equal(t, 1, calls)

	assert.False(t, m.RemoveListener(first))
	assert.False(t, m.RemoveListener(nil))
}

func TestListenersMapRemoveDuringFire(t *testing.T) {
	m := NewListenersMap()
	calls := 0
	var second *ListenerHandle
	m.AddListener(EventWalletConnected, func(args ...interface{}) { m.RemoveListener(second) })
	second = m.AddListener(EventWalletConnected, func(args ...interface{}) { calls++ })

	// snapshot taken before the first listener runs
	m.FireEvent(EventWalletConnected)
	assert.Equal(t, 1, calls)
	m.FireEvent(EventWalletConnected)
	assert.Equal(t, 1, calls)
}

func TestListenersMapPanicRecovered(t *testing.T) {
	t.Setenv("DEBUG", "true")
	errors.ResetReporters()

	m := NewListenersMap()
	called := false
	m.AddListener(EventWalletDisconnected, func(args ...interface{}) { panic("boom") })
	m.AddListener(EventWalletDisconnected, func(args ...interface{}) { called = true })

	require.NotPanics(t, func() { m.FireEvent(EventWalletDisconnected) })
	assert.True(t, called)
}
