package walletconnect

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// verifySignature checks an EIP-191 personal signature against signAddrHex.
func verifySignature(signAddrHex, signatureHex string, msg []byte) bool {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return false
	}
	hash := accounts.TextHash(msg)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27 // Transform yellow paper V from 27/28 to 0/1
	}
	recovered, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false
	}
	if !common.IsHexAddress(signAddrHex) {
		return false
	}
	return common.HexToAddress(signAddrHex) == crypto.PubkeyToAddress(*recovered)
}

// personalSignPayload extracts message and signer from personal_sign params.
// Wallets disagree on the order, so the address is detected.
func personalSignPayload(params []interface{}) (msg []byte, signer string, ok bool) {
	if len(params) < 2 {
		return nil, "", false
	}
	first, ok1 := params[0].(string)
	second, ok2 := params[1].(string)
	if !ok1 || !ok2 {
		return nil, "", false
	}
	data, signer := first, second
	if common.IsHexAddress(first) && !common.IsHexAddress(second) {
		data, signer = second, first
	}
	return decodeMessage(data), signer, true
}

func decodeMessage(data string) []byte {
	if strings.HasPrefix(data, "0x") {
		if b, err := hexutil.Decode(data); err == nil {
			return b
		}
	}
	return []byte(data)
}
