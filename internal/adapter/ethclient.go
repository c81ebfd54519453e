package adapter

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EthClient is the part of the node API the wallet log feed reads
//
//go:generate mockgen -source=ethclient.go -destination=../mocks/ethclient.go -package=mocks -mock_names=EthClient=MockEthClient,EthClientDialer=MockEthClientDialer
type EthClient interface {
	// ChainID returns the EIP-155 chain id the node serves
	ChainID(ctx context.Context) (*big.Int, error)

	// SubscribeFilterLogs streams logs matching the query as they are mined
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// FilterLogs returns the logs matching the query
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// HeaderByNumber returns a block header; nil number means the latest block
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	Close()
}

// EthClientDialer opens node connections
type EthClientDialer interface {
	Dial(ctx context.Context, rawurl string) (EthClient, error)
}

type ethClientDialer struct{}

// NewEthClientDialer creates a dialer backed by go-ethereum's ethclient
func NewEthClientDialer() EthClientDialer {
	return &ethClientDialer{}
}

func (d *ethClientDialer) Dial(ctx context.Context, rawurl string) (EthClient, error) {
	return ethclient.DialContext(ctx, rawurl)
}
