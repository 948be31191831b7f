package web3

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"moff.io/moff-wallet/pkg/errors"
)

// NormalizeAddress returns the EIP-55 checksum form of addr, whatever its case.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", errors.Wrapf(ErrInvalidAddress, "%q", addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}

// maxFloatChainID is the largest integer a float64 holds exactly.
const maxFloatChainID = 1 << 53

// NormalizeChainID accepts the shapes wallets use for chain ids: hex or
// decimal strings and any JSON or Go number.
func NormalizeChainID(v interface{}) (int, error) {
	var (
		id uint64
		ok = true
	)
	switch t := v.(type) {
	case int:
		ok = t >= 0
		id = uint64(t)
	case int32:
		ok = t >= 0
		id = uint64(t)
	case int64:
		ok = t >= 0
		id = uint64(t)
	case uint:
		id = uint64(t)
	case uint32:
		id = uint64(t)
	case uint64:
		id = t
	case float64:
		ok = t >= 0 && t == math.Trunc(t) && t <= maxFloatChainID
		id = uint64(t)
	case json.Number:
		return NormalizeChainID(t.String())
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			ok = false
			break
		}
		id, ok = ethmath.ParseUint64(s)
	case hexutil.Uint64:
		id = uint64(t)
	case hexutil.Uint:
		id = uint64(t)
	case *hexutil.Big:
		if t == nil {
			ok = false
			break
		}
		return NormalizeChainID((*big.Int)(t))
	case *big.Int:
		ok = t != nil && t.Sign() >= 0 && t.IsUint64()
		if ok {
			id = t.Uint64()
		}
	default:
		ok = false
	}
	if !ok || id > math.MaxInt {
		return 0, errors.Wrapf(ErrInvalidChainID, "%v", v)
	}
	return int(id), nil
}

// accountList reads the account list out of a native response.
func accountList(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		accounts := make([]string, 0, len(t))
		for _, a := range t {
			if s, ok := a.(string); ok {
				accounts = append(accounts, s)
			}
		}
		return accounts
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}
