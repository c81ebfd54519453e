package ethereum

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/ff-ledger/internal/decoder"
	"github.com/feral-file/ff-ledger/internal/domain"
)

// walletABI holds the events of the wallet factory and the bucket wallet contracts.
// Argument names are the raw event param names the decoder reads.
const walletABI = `[
	{"type":"event","name":"WalletCreated","anonymous":false,"inputs":[
		{"name":"wallet","type":"address","indexed":true},
		{"name":"owner","type":"address","indexed":true},
		{"name":"salt","type":"bytes32","indexed":false}]},
	{"type":"event","name":"WalletRegistered","anonymous":false,"inputs":[
		{"name":"wallet","type":"address","indexed":true},
		{"name":"owner","type":"address","indexed":true}]},
	{"type":"event","name":"Deposit","anonymous":false,"inputs":[
		{"name":"sender","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"bucket","type":"string","indexed":false}]},
	{"type":"event","name":"Withdrawal","anonymous":false,"inputs":[
		{"name":"recipient","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"bucket","type":"string","indexed":false}]},
	{"type":"event","name":"UnallocatedWithdraw","anonymous":false,"inputs":[
		{"name":"recipient","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"EmergencyWithdraw","anonymous":false,"inputs":[
		{"name":"recipient","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"bucket","type":"string","indexed":false}]},
	{"type":"event","name":"BucketCreated","anonymous":false,"inputs":[
		{"name":"bucket","type":"string","indexed":false},
		{"name":"monthlyLimit","type":"uint256","indexed":false}]},
	{"type":"event","name":"BucketUpdated","anonymous":false,"inputs":[
		{"name":"bucket","type":"string","indexed":false},
		{"name":"monthlyLimit","type":"uint256","indexed":false},
		{"name":"active","type":"bool","indexed":false}]},
	{"type":"event","name":"BucketFunding","anonymous":false,"inputs":[
		{"name":"bucket","type":"string","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"BucketSpending","anonymous":false,"inputs":[
		{"name":"recipient","type":"address","indexed":true},
		{"name":"bucket","type":"string","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"fromBucket","type":"string","indexed":false},
		{"name":"toBucket","type":"string","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"BucketPeriodReset","anonymous":false,"inputs":[
		{"name":"bucket","type":"string","indexed":false}]},
	{"type":"event","name":"DelegateGranted","anonymous":false,"inputs":[
		{"name":"delegate","type":"address","indexed":true}]},
	{"type":"event","name":"DelegateRevoked","anonymous":false,"inputs":[
		{"name":"delegate","type":"address","indexed":true}]}
]`

// LogDecoder turns wallet contract logs into raw events
type LogDecoder struct {
	chain domain.Chain
	abi   abi.ABI
}

// NewLogDecoder parses the wallet ABI for a chain
func NewLogDecoder(chain domain.Chain) (*LogDecoder, error) {
	parsed, err := abi.JSON(strings.NewReader(walletABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet ABI: %w", err)
	}
	return &LogDecoder{chain: chain, abi: parsed}, nil
}

// Topics returns the event signatures to filter logs by
func (d *LogDecoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.abi.Events))
	for _, ev := range d.abi.Events {
		topics = append(topics, ev.ID)
	}
	return topics
}

// Decode converts a log into a raw event. Events emitted by a wallet contract
// concern the emitting address; factory events name the wallet explicitly.
func (d *LogDecoder) Decode(vLog types.Log, blockTime time.Time) (*domain.RawEvent, error) {
	if len(vLog.Topics) == 0 {
		return nil, fmt.Errorf("%w: log %s-%d has no topics", domain.ErrInvalidEventPayload, vLog.TxHash.Hex(), vLog.Index)
	}

	ev, err := d.abi.EventByID(vLog.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: signature %s", domain.ErrUnrecognizedEventKind, vLog.Topics[0].Hex())
	}

	values := make(map[string]interface{})
	if err := d.abi.UnpackIntoMap(values, ev.Name, vLog.Data); err != nil {
		return nil, fmt.Errorf("%w: unpack %s data: %v", domain.ErrInvalidEventPayload, ev.Name, err)
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, vLog.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: parse %s topics: %v", domain.ErrInvalidEventPayload, ev.Name, err)
	}

	params := make(map[string]any, len(values)+1)
	for k, v := range values {
		params[k] = paramValue(v)
	}
	if _, ok := params[decoder.ParamWallet]; !ok {
		params[decoder.ParamWallet] = strings.ToLower(vLog.Address.Hex())
	}

	blockHash := vLog.BlockHash.Hex()
	return &domain.RawEvent{
		Chain:          d.chain,
		EventName:      ev.Name,
		Address:        strings.ToLower(vLog.Address.Hex()),
		Params:         params,
		BlockNumber:    vLog.BlockNumber,
		LogIndex:       uint64(vLog.Index),
		TxHash:         vLog.TxHash.Hex(),
		BlockTimestamp: blockTime.UTC(),
		BlockHash:      &blockHash,
	}, nil
}

// paramValue renders ABI values the way the feed carries them: integers as
// base-10 strings, addresses lower-cased, fixed bytes as hex
func paramValue(v interface{}) any {
	switch val := v.(type) {
	case *big.Int:
		return val.String()
	case common.Address:
		return strings.ToLower(val.Hex())
	case [32]byte:
		return hexutil.Encode(val[:])
	case common.Hash:
		return val.Hex()
	default:
		return val
	}
}
