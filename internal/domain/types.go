package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
	ChainBaseMainnet     Chain = "eip155:8453"
	ChainBaseSepolia     Chain = "eip155:84532"
	ChainPolygonMainnet  Chain = "eip155:137"
)

// chainNames maps the human readable chain names used by the query API to CAIP-2 identifiers
var chainNames = map[string]Chain{
	"ethereum":     ChainEthereumMainnet,
	"sepolia":      ChainEthereumSepolia,
	"base":         ChainBaseMainnet,
	"base-sepolia": ChainBaseSepolia,
	"polygon":      ChainPolygonMainnet,
}

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	for _, c := range chainNames {
		if c == chain {
			return true
		}
	}
	return false
}

// ParseChain accepts either a chain name ("base") or a CAIP-2 identifier ("eip155:8453")
func ParseChain(s string) (Chain, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := chainNames[s]; ok {
		return c, nil
	}
	if IsValidChain(Chain(s)) {
		return Chain(s), nil
	}
	return "", fmt.Errorf("unsupported chain: %q", s)
}

// Slug returns the chain name used in message subjects, e.g. "base" for eip155:8453
func (c Chain) Slug() string {
	for name, chain := range chainNames {
		if chain == c {
			return name
		}
	}
	return strings.ReplaceAll(string(c), ":", "-")
}

// String returns the string representation of the chain
func (c Chain) String() string {
	return string(c)
}

// IsValidAddress checks whether s is a hex encoded EVM address
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// NormalizeAddress lower-cases a hex address so it can be used in identifiers
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return strings.ToLower(address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex())
}

// NewUserID builds the deterministic user identifier: <chain>:<lower-case wallet address>
func NewUserID(chain Chain, wallet string) string {
	return fmt.Sprintf("%s:%s", chain, NormalizeAddress(wallet))
}

// NewBucketID builds the deterministic bucket identifier: <userID>/<bucket name>
func NewBucketID(userID string, name string) string {
	return userID + "/" + name
}

// NewHistoryID builds the ledger entry identifier: <txHash>-<logIndex>
func NewHistoryID(txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(txHash), logIndex)
}

// Position is the place of an event in a chain's event stream
type Position struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint64 `json:"log_index"`
}

// Less reports whether p comes strictly before other
func (p Position) Less(other Position) bool {
	if p.BlockNumber != other.BlockNumber {
		return p.BlockNumber < other.BlockNumber
	}
	return p.LogIndex < other.LogIndex
}

// String returns "<block>:<logIndex>"
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.BlockNumber, p.LogIndex)
}
