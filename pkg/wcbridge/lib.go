// Package wcbridge holds the pieces of the WalletConnect v1 bridge protocol that
// do not depend on a live connection: envelope crypto, bridge URLs and the
// pairing URI.
//
// Session establishment, see https://docs.walletconnect.com/tech-spec#establishing-connection
//   1. the dapp subscribes to its own client id on the bridge
//   2. it publishes an encrypted wc_sessionRequest to the handshake topic
//   3. the wallet scans the pairing URI, answers on the client id topic and
//      later pushes wc_sessionUpdate messages (accounts, chain, disconnect)
package wcbridge

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"
)

const (
	alphanumerical  = "abcdefghijklmnopqrstuvwxyz0123456789"
	bridgeURLFormat = "https://%v.bridge.walletconnect.org"

	ProtocolVersion = "1"
)

var bridgeRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// RandomBridgeURL picks one of the public bridge shards.
func RandomBridgeURL() string {
	c := alphanumerical[bridgeRand.Intn(len(alphanumerical))]
	return fmt.Sprintf(bridgeURLFormat, string(c))
}

// GetWebSocketURL turns a bridge http(s) URL into its websocket endpoint.
func GetWebSocketURL(bridgeURL, protocol, version string) string {
	switch {
	case strings.HasPrefix(bridgeURL, "https"):
		bridgeURL = strings.Replace(bridgeURL, "https", "wss", 1)
	case strings.HasPrefix(bridgeURL, "http"):
		bridgeURL = strings.Replace(bridgeURL, "http", "ws", 1)
	}
	sep := "?"
	if strings.Contains(bridgeURL, "?") {
		sep = "&"
	}
	return bridgeURL + sep + "protocol=" + protocol + "&version=" + version + "&env=go"
}

// PairingURI is the string encoded in the QR code the wallet scans.
func PairingURI(handshakeTopic, bridgeURL string, key []byte) string {
	return fmt.Sprintf("wc:%s@%s?bridge=%s&key=%s",
		handshakeTopic, ProtocolVersion, url.QueryEscape(bridgeURL), hex.EncodeToString(key))
}

func extractHostname(rawURL string) string {
	var hostname string
	if idx := strings.Index(rawURL, "//"); idx > -1 {
		hostname = rawURL[idx+2:]
	} else {
		hostname = rawURL
	}
	hostname = strings.Split(hostname, "/")[0]
	hostname = strings.Split(hostname, "?")[0]
	return strings.Split(hostname, ":")[0]
}

// ExtractRootDomain returns the last two labels of the URL host.
func ExtractRootDomain(rawURL string) string {
	arr := strings.Split(extractHostname(rawURL), ".")
	if len(arr) > 2 {
		arr = arr[len(arr)-2:]
	}
	return strings.Join(arr, ".")
}
