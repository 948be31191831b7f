package walletconnect

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/atomic"
	"moff.io/moff-wallet/pkg/errors"
)

// ClientMeta describes the dapp to the wallet during pairing, and the wallet back to us.
type ClientMeta struct {
	Description string   `json:"description" yaml:"description"`
	URL         string   `json:"url" yaml:"url"`
	Icons       []string `json:"icons" yaml:"icons"`
	Name        string   `json:"name" yaml:"name"`
}

type peer struct {
	PeerID   string     `json:"peerId"`
	PeerMeta ClientMeta `json:"peerMeta"`
	ChainID  int        `json:"chainId"`
}

// sessionParams is the body of a session approval and of wc_sessionUpdate.
type sessionParams struct {
	Approved bool        `json:"approved"`
	ChainID  *int        `json:"chainId"`
	Accounts []string    `json:"accounts"`
	PeerID   string      `json:"peerId,omitempty"`
	PeerMeta *ClientMeta `json:"peerMeta,omitempty"`
}

type wcMessage struct {
	Topic string `json:"topic"`
	// pub sub ack
	Type    string `json:"type"`
	Payload string `json:"payload"`
	Silent  bool   `json:"silent"`
}

func newWCMessageFromBytes(data []byte) (*wcMessage, error) {
	var msg wcMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(err, "unmarshal wallet connect message")
	}
	return &msg, nil
}

func (msg *wcMessage) Marshal() []byte {
	bytes, _ := json.Marshal(msg)
	return bytes
}

type jsonRpcRequest struct {
	Id      int64         `json:"id"`
	JSONRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

var payloadSeq = atomic.NewInt64(time.Now().UnixNano() / 1000)

// payloadID hands out increasing ids, responses are matched on them.
func payloadID() int64 {
	return payloadSeq.Inc()
}

func newJSONRpcRequest(method string, params ...interface{}) *jsonRpcRequest {
	r := &jsonRpcRequest{
		Id:      payloadID(),
		JSONRpc: "2.0",
		Method:  method,
		Params:  []interface{}{},
	}
	if len(params) > 0 {
		r.Params = params
	}
	return r
}

func (e *jsonRpcRequest) Marshal() []byte {
	s, _ := json.Marshal(e)
	return s
}

// IsSilentPayload reports whether the wallet should handle the request without
// a push notification.
func (e *jsonRpcRequest) IsSilentPayload() bool {
	return strings.HasPrefix(e.Method, "wc_")
}

type jsonRpcResponse struct {
	Id     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is an error answered by the wallet.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}
