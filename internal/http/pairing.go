package http

import (
	"sync"
)

// Pairing holds the QR code of the pairing in progress. Display matches
// walletconnect.DisplayQRCodeFn and is installed as the provider's hook.
type Pairing struct {
	mu  sync.RWMutex
	uri string
	png []byte
}

func (p *Pairing) Display(uri string, png []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uri = uri
	p.png = png
	return nil
}

func (p *Pairing) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uri = ""
	p.png = nil
}

// Current returns the pending pairing, false when there is none.
func (p *Pairing) Current() (string, []byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.uri, p.png, p.uri != "" && len(p.png) != 0
}
