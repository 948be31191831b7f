package walletconnect

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
	"moff.io/moff-wallet/internal/chains"
	"moff.io/moff-wallet/pkg/errors"
	"moff.io/moff-wallet/pkg/log"
	"moff.io/moff-wallet/pkg/wcbridge"
)

const (
	defaultQRCodeSize = 256
	handshakeTimeout  = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// walletMethods are relayed to the wallet, everything else goes to the RPC
// endpoint, eth_sendRawTransaction included.
var walletMethods = map[string]bool{
	"eth_sign":             true,
	"personal_sign":        true,
	"eth_signTypedData":    true,
	"eth_signTypedData_v3": true,
	"eth_signTypedData_v4": true,
	"eth_sendTransaction":  true,
	"eth_signTransaction":  true,
}

func isWalletMethod(method string) bool {
	return walletMethods[method] || strings.HasPrefix(method, "wallet_")
}

// Provider is a WalletConnect v1 session with one remote wallet.
type Provider struct {
	opts Options

	enabling  atomic.Bool
	connected atomic.Bool

	mu             sync.RWMutex
	handshakeTopic string
	clientID       string
	encryptionKey  []byte
	bridgeURL      string
	uri            string
	qrCode         []byte
	conn           *websocket.Conn
	done           chan struct{}
	closed         bool
	accounts       []string
	chainID        int
	peerID         string
	peerMeta       ClientMeta
	pending        map[int64]chan *jsonRpcResponse
	rpcClients     map[string]*rpc.Client

	writeMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   map[string][]Listener
}

func NewProvider(opts Options) *Provider {
	if opts.ChainID == 0 {
		opts.ChainID = chains.DefaultChainID
	}
	if opts.QRCodeSize <= 0 {
		opts.QRCodeSize = defaultQRCodeSize
	}
	if opts.RPC == nil {
		opts.RPC = map[int]string{}
	}
	p := &Provider{
		opts:       opts,
		chainID:    opts.ChainID,
		rpcClients: map[string]*rpc.Client{},
		listeners:  map[string][]Listener{},
	}
	p.newSession()
	return p
}

// newSession draws fresh pairing material, callers hold p.mu or own p exclusively.
func (p *Provider) newSession() {
	key, err := wcbridge.GenerateRandomBytes(wcbridge.KeySize)
	if err != nil {
		// crypto/rand failing leaves nothing sensible to do
		panic(errors.ErrorfAndReport("generate session key: %v", err))
	}
	p.encryptionKey = key
	p.handshakeTopic = uuid.NewString()
	p.clientID = uuid.NewString()
	p.bridgeURL = p.opts.BridgeURL
	if p.bridgeURL == "" {
		p.bridgeURL = wcbridge.RandomBridgeURL()
	}
	p.uri = wcbridge.PairingURI(p.handshakeTopic, p.bridgeURL, p.encryptionKey)
	p.qrCode = nil
	p.closed = false
	p.pending = map[int64]chan *jsonRpcResponse{}
}

// URI returns the pairing URI of the current session.
func (p *Provider) URI() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.uri
}

// QRCode returns the PNG encoding of URI.
func (p *Provider) QRCode() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.qrCode != nil {
		return p.qrCode, nil
	}
	png, err := qrcode.Encode(p.uri, qrcode.Medium, p.opts.QRCodeSize)
	if err != nil {
		return nil, errors.WrapAndReport(err, "encode wallet connect qr code")
	}
	p.qrCode = png
	return png, nil
}

// On registers fn for event, listeners run on the session's read goroutine.
func (p *Provider) On(event string, fn Listener) {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	p.listeners[event] = append(p.listeners[event], fn)
}

func (p *Provider) emit(event string, args ...interface{}) {
	p.listenersMu.RLock()
	fns := append([]Listener(nil), p.listeners[event]...)
	p.listenersMu.RUnlock()
	for _, fn := range fns {
		fn(args...)
	}
}

func (p *Provider) IsConnected() bool {
	return p.connected.Load()
}

// Accounts returns the wallet accounts of the live session.
func (p *Provider) Accounts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.accounts...)
}

func (p *Provider) ChainID() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chainID
}

// PeerMeta describes the connected wallet.
func (p *Provider) PeerMeta() ClientMeta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.peerMeta
}

// Enable pairs with a wallet and returns its accounts. It blocks until the
// wallet answers the session request shown through Options.DisplayQRCode.
func (p *Provider) Enable(ctx context.Context) ([]string, error) {
	if p.IsConnected() {
		return p.Accounts(), nil
	}
	if !p.enabling.CAS(false, true) {
		return nil, ErrEnableInFlight
	}
	defer p.enabling.Store(false)

	if p.opts.PairingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.PairingTimeout)
		defer cancel()
	}

	p.mu.Lock()
	if p.closed || p.conn != nil {
		p.newSession()
	}
	bridgeURL, clientID, topic := p.bridgeURL, p.clientID, p.handshakeTopic
	p.mu.Unlock()

	conn, err := p.dialWS(ctx, bridgeURL)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	p.mu.Lock()
	p.conn = conn
	p.done = done
	p.mu.Unlock()
	go p.readLoop(conn)

	if err := p.send(conn, &wcMessage{Topic: clientID, Type: "sub", Silent: true}); err != nil {
		p.endSession(false)
		return nil, err
	}
	req := newJSONRpcRequest("wc_sessionRequest", peer{
		PeerID:   clientID,
		PeerMeta: p.opts.ClientMeta,
		ChainID:  p.opts.ChainID,
	})
	respCh := p.addPending(req.Id)
	defer p.removePending(req.Id)
	if err := p.publish(conn, topic, req); err != nil {
		p.endSession(false)
		return nil, err
	}
	if err := p.displayQRCode(); err != nil {
		p.endSession(false)
		return nil, errors.Wrap(err, "display wallet connect qr code")
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrSessionClosed
		}
		return p.handleSessionResponse(resp)
	case <-done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		p.endSession(false)
		return nil, ctx.Err()
	}
}

func (p *Provider) displayQRCode() error {
	uri := p.URI()
	log.Debugf("wallet connect - generated uri:%v", uri)
	if p.opts.DisplayQRCode == nil {
		log.Infof("wallet connect - scan to pair: %v", uri)
		return nil
	}
	png, err := p.QRCode()
	if err != nil {
		return err
	}
	return p.opts.DisplayQRCode(uri, png)
}

func (p *Provider) handleSessionResponse(resp *jsonRpcResponse) ([]string, error) {
	if resp.Error != nil {
		p.endSession(false)
		if strings.Contains(resp.Error.Message, "Session Rejected") {
			return nil, ErrSessionRejected
		}
		return nil, resp.Error
	}
	var session sessionParams
	if err := json.Unmarshal(resp.Result, &session); err != nil {
		p.endSession(false)
		return nil, errors.WrapAndReport(err, "unmarshal wallet session")
	}
	if !session.Approved {
		p.endSession(false)
		return nil, ErrSessionRejected
	}
	if len(session.Accounts) == 0 {
		p.endSession(false)
		return nil, ErrNoAccounts
	}

	p.mu.Lock()
	p.accounts = append([]string(nil), session.Accounts...)
	if session.ChainID != nil {
		p.chainID = *session.ChainID
	}
	p.peerID = session.PeerID
	if session.PeerMeta != nil {
		p.peerMeta = *session.PeerMeta
	}
	chainID := p.chainID
	accounts := append([]string(nil), p.accounts...)
	p.mu.Unlock()
	p.connected.Store(true)

	log.Infof("wallet connect - session approved, chain %d, peer %v", chainID, session.PeerID)
	p.emit(EventConnect, chainID)
	return accounts, nil
}

func (p *Provider) dialWS(ctx context.Context, bridgeURL string) (*websocket.Conn, error) {
	wsURL := wcbridge.GetWebSocketURL(bridgeURL, "wc", wcbridge.ProtocolVersion)
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, errors.WrapAndReport(err, "dial to wallet connect bridge url")
	}
	return conn, nil
}

func (p *Provider) send(conn *websocket.Conn, msg *wcMessage) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, msg.Marshal()); err != nil {
		return errors.Wrap(err, "write wallet connect message to bridge")
	}
	return nil
}

func (p *Provider) publish(conn *websocket.Conn, topic string, req *jsonRpcRequest) error {
	p.mu.RLock()
	key := p.encryptionKey
	p.mu.RUnlock()
	payload, err := wcbridge.Seal(req.Marshal(), key)
	if err != nil {
		return err
	}
	log.Debugf("wallet connect - publish %v to %v", req.Method, topic)
	return p.send(conn, &wcMessage{
		Topic:   topic,
		Type:    "pub",
		Payload: payload.Marshal(),
		Silent:  req.IsSilentPayload(),
	})
}

func (p *Provider) addPending(id int64) chan *jsonRpcResponse {
	ch := make(chan *jsonRpcResponse, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	return ch
}

func (p *Provider) removePending(id int64) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}

func (p *Provider) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			p.mu.RLock()
			stale := p.conn != conn || p.closed
			p.mu.RUnlock()
			if !stale {
				log.Warnf("wallet connect - bridge connection lost: %v", err)
				p.endSession(true)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		p.handleFrame(conn, data)
	}
}

func (p *Provider) handleFrame(conn *websocket.Conn, data []byte) {
	msg, err := newWCMessageFromBytes(data)
	if err != nil {
		log.Warn(err)
		return
	}
	p.mu.RLock()
	clientID, key := p.clientID, p.encryptionKey
	p.mu.RUnlock()
	if msg.Type != "pub" || msg.Topic != clientID {
		return
	}
	if err := p.send(conn, &wcMessage{Topic: clientID, Type: "ack", Silent: true}); err != nil {
		log.Warn(err)
	}
	payload, err := wcbridge.ParsePayload([]byte(msg.Payload))
	if err != nil {
		log.Warn(err)
		return
	}
	plain, err := wcbridge.Open(payload, key)
	if err != nil {
		log.Warnf("wallet connect - drop undecryptable message: %v", err)
		return
	}
	log.Debugf("wallet connect - receive:%s", plain)

	parsed := gjson.ParseBytes(plain)
	method := parsed.Get("method")
	if !method.Exists() {
		p.deliverResponse(plain)
		return
	}
	switch method.String() {
	case "wc_sessionUpdate":
		p.handleSessionUpdate(parsed.Get("params.0"))
	default:
		log.Debugf("wallet connect - ignore wallet request %v", method.String())
	}
}

func (p *Provider) deliverResponse(plain []byte) {
	var resp jsonRpcResponse
	if err := json.Unmarshal(plain, &resp); err != nil {
		log.Warnf("wallet connect - malformed response: %v", err)
		return
	}
	// the read lock keeps endSession from closing ch while we send
	p.mu.RLock()
	defer p.mu.RUnlock()
	ch, ok := p.pending[resp.Id]
	if !ok {
		log.Debugf("wallet connect - no pending request %d", resp.Id)
		return
	}
	select {
	case ch <- &resp:
	default:
	}
}

func (p *Provider) handleSessionUpdate(params gjson.Result) {
	if !params.Exists() || !params.Get("approved").Exists() {
		return
	}
	if !params.Get("approved").Bool() {
		log.Warnf("wallet connect - session closed by wallet")
		p.endSession(true)
		return
	}

	p.mu.Lock()
	accountsChanged := false
	accounts := p.accounts
	if list := params.Get("accounts"); list.Exists() {
		accounts = []string{}
		for _, a := range list.Array() {
			accounts = append(accounts, a.String())
		}
		accountsChanged = !equalStrings(p.accounts, accounts)
		p.accounts = accounts
	}
	chainChanged := false
	if id, ok := parseChainID(params.Get("chainId")); ok && id != p.chainID {
		p.chainID = id
		chainChanged = true
	}
	chainID := p.chainID
	p.mu.Unlock()

	if accountsChanged {
		p.emit(EventAccountsChanged, append([]string(nil), accounts...))
	}
	if chainChanged {
		p.emit(EventChainChanged, chainID)
	}
}

// parseChainID reads a chain id sent as a JSON number or a hex or decimal string.
func parseChainID(c gjson.Result) (int, bool) {
	var (
		id uint64
		ok bool
	)
	switch c.Type {
	case gjson.Number:
		ok = c.Num >= 0 && c.Num == math.Trunc(c.Num)
		id = c.Uint()
	case gjson.String:
		s := strings.TrimSpace(c.Str)
		if s != "" {
			id, ok = ethmath.ParseUint64(s)
		}
	}
	if !ok || id == 0 || id > math.MaxInt {
		return 0, false
	}
	return int(id), true
}

// endSession tears the transport down once. remote marks a session ended by
// the wallet or the bridge, only those fire EventDisconnect.
func (p *Provider) endSession(remote bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	conn, done := p.conn, p.done
	p.conn = nil
	p.accounts = nil
	p.peerID = ""
	for id, ch := range p.pending {
		close(ch)
		delete(p.pending, id)
	}
	p.mu.Unlock()

	wasConnected := p.connected.Swap(false)
	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		close(done)
	}
	if remote && wasConnected {
		p.emit(EventDisconnect)
	}
}

// Disconnect tells the wallet the session is over and closes the transport.
func (p *Provider) Disconnect(ctx context.Context) error {
	p.mu.RLock()
	conn, peerID, closed := p.conn, p.peerID, p.closed
	p.mu.RUnlock()
	if conn == nil || closed {
		return nil
	}

	var sendErr error
	// a cancelled ctx skips the goodbye message, the transport is closed regardless
	if p.IsConnected() && peerID != "" && ctx.Err() == nil {
		req := newJSONRpcRequest("wc_sessionUpdate", sessionParams{Approved: false})
		sendErr = p.publish(conn, peerID, req)
	}
	p.endSession(false)
	return sendErr
}

// Request performs an EIP-1193 style request.
func (p *Provider) Request(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		if !p.IsConnected() {
			return nil, ErrNotConnected
		}
		return p.Accounts(), nil
	case "eth_chainId":
		return hexutil.EncodeUint64(uint64(p.ChainID())), nil
	case "net_version":
		return strconv.Itoa(p.ChainID()), nil
	}
	if isWalletMethod(method) {
		return p.requestWallet(ctx, method, params)
	}
	return p.requestRPC(ctx, method, params)
}

func (p *Provider) requestWallet(ctx context.Context, method string, params []interface{}) (interface{}, error) {
	if !p.IsConnected() {
		return nil, ErrNotConnected
	}
	p.mu.RLock()
	conn, peerID, done := p.conn, p.peerID, p.done
	p.mu.RUnlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	req := newJSONRpcRequest(method, params...)
	respCh := p.addPending(req.Id)
	defer p.removePending(req.Id)
	if err := p.publish(conn, peerID, req); err != nil {
		return nil, err
	}

	var resp *jsonRpcResponse
	select {
	case r, ok := <-respCh:
		if !ok {
			return nil, ErrSessionClosed
		}
		resp = r
	case <-done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	var result interface{}
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return nil, errors.Wrapf(err, "decode %v result", method)
		}
	}
	if method == "personal_sign" {
		sig, _ := result.(string)
		msg, signer, ok := personalSignPayload(params)
		if ok && !verifySignature(signer, sig, msg) {
			return nil, ErrSignerMismatch
		}
	}
	return result, nil
}

func (p *Provider) requestRPC(ctx context.Context, method string, params []interface{}) (interface{}, error) {
	chainID := p.ChainID()
	endpoint, ok := p.opts.RPC[chainID]
	if !ok || endpoint == "" {
		return nil, errors.Wrapf(ErrNoRPCEndpoint, "chain %d", chainID)
	}
	client, err := p.rpcClient(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := client.CallContext(ctx, &raw, method, params...); err != nil {
		return nil, err
	}
	var result interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, errors.Wrapf(err, "decode %v result", method)
		}
	}
	return result, nil
}

func (p *Provider) rpcClient(ctx context.Context, endpoint string) (*rpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.rpcClients[endpoint]; ok {
		return c, nil
	}
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "dial rpc %v", endpoint)
	}
	p.rpcClients[endpoint] = c
	return c, nil
}

// Close disconnects and releases the RPC clients.
func (p *Provider) Close() error {
	err := p.Disconnect(context.Background())
	p.mu.Lock()
	defer p.mu.Unlock()
	for endpoint, c := range p.rpcClients {
		c.Close()
		delete(p.rpcClients, endpoint)
	}
	return err
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
