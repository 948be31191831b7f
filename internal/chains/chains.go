package chains

import (
	"sort"
	"strings"
)

// DefaultChainID is the primary chain proposed when a session is requested.
const DefaultChainID = 1

// projectKeyPlaceholder is replaced by the infura project key in RPC URLs.
const projectKeyPlaceholder = "{project_key}"

// DefaultProjectKey is the public infura key used when none is configured.
const DefaultProjectKey = "9aa3d95b3bc440fa88ea12eaa4456161"

type Blockchain struct {
	ID    int
	IDHex string
	Name  string
	RPC   string
}

var (
	Array = []*Blockchain{
		{
			ID:    1,
			IDHex: "0x1",
			Name:  "eth",
			RPC:   "https://cloudflare-eth.com",
		},
		{
			ID:    3,
			IDHex: "0x3",
			Name:  "ropsten",
			RPC:   "https://ropsten.infura.io/v3/" + projectKeyPlaceholder,
		},
		{
			ID:    4,
			IDHex: "0x4",
			Name:  "rinkeby",
			RPC:   "https://rinkeby.infura.io/v3/" + projectKeyPlaceholder,
		},
		{
			ID:    5,
			IDHex: "0x5",
			Name:  "goerli",
			RPC:   "https://goerli.infura.io/v3/" + projectKeyPlaceholder,
		},
		{
			ID:    42,
			IDHex: "0x2a",
			Name:  "kovan",
			RPC:   "https://kovan.infura.io/v3/" + projectKeyPlaceholder,
		},
		{
			ID:    137,
			IDHex: "0x89",
			Name:  "polygon",
			RPC:   "https://polygon-rpc.com",
		},
		{
			ID:    80001,
			IDHex: "0x13881",
			Name:  "mumbai",
			RPC:   "https://rpc-mumbai.maticvigil.com",
		},
		{
			ID:    56,
			IDHex: "0x38",
			Name:  "bsc",
			RPC:   "https://bsc-dataseed.binance.org",
		},
		{
			ID:    97,
			IDHex: "0x61",
			Name:  "bsc testnet",
			RPC:   "https://data-seed-prebsc-1-s1.binance.org:8545",
		},
		{
			ID:    42161,
			IDHex: "0xa4b1",
			Name:  "arbitrum",
			RPC:   "https://arb1.arbitrum.io/rpc",
		},
		{
			ID:    421611,
			IDHex: "0x66eeb",
			Name:  "arbitrum rinkeby",
			RPC:   "https://rinkeby.arbitrum.io/rpc",
		},
		{
			ID:    43114,
			IDHex: "0xa86a",
			Name:  "avalanche",
			RPC:   "https://api.avax.network/ext/bc/C/rpc",
		},
		{
			ID:    43113,
			IDHex: "0xa869",
			Name:  "avalanche testnet",
			RPC:   "https://api.avax-test.network/ext/bc/C/rpc",
		},
		{
			ID:    250,
			IDHex: "0xfa",
			Name:  "fantom",
			RPC:   "https://rpc.ftm.tools",
		},
		{
			ID:    25,
			IDHex: "0x19",
			Name:  "cronos",
			RPC:   "https://evm.cronos.org",
		},
	}

	Mapping    = map[int]*Blockchain{}
	hexMapping = map[string]*Blockchain{}
)

func init() {
	for _, c := range Array {
		Mapping[c.ID] = c
		hexMapping[c.IDHex] = c
	}
}

func Get(id int) (*Blockchain, bool) {
	c, ok := Mapping[id]
	return c, ok
}

func GetByHex(idHex string) (*Blockchain, bool) {
	c, ok := hexMapping[strings.ToLower(idHex)]
	return c, ok
}

// RPCURL resolves the endpoint of the chain with the project key filled in.
func (in *Blockchain) RPCURL(projectKey string) string {
	if projectKey == "" {
		projectKey = DefaultProjectKey
	}
	return strings.ReplaceAll(in.RPC, projectKeyPlaceholder, projectKey)
}

// RPCMap is the chain id => RPC endpoint table handed to the native provider.
func RPCMap(projectKey string) map[int]string {
	rpc := make(map[int]string, len(Array))
	for _, c := range Array {
		rpc[c.ID] = c.RPCURL(projectKey)
	}
	return rpc
}

// IDs lists the known chain ids in ascending order.
func IDs() []int {
	ids := make([]int, 0, len(Array))
	for _, c := range Array {
		ids = append(ids, c.ID)
	}
	sort.Ints(ids)
	return ids
}
