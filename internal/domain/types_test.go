package domain

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidChain(t *testing.T) {
	tests := []struct {
		name     string
		chain    Chain
		expected bool
	}{
		{
			name:     "valid ethereum mainnet",
			chain:    ChainEthereumMainnet,
			expected: true,
		},
		{
			name:     "valid base mainnet",
			chain:    ChainBaseMainnet,
			expected: true,
		},
		{
			name:     "valid polygon mainnet",
			chain:    ChainPolygonMainnet,
			expected: true,
		},
		{
			name:     "invalid empty chain",
			chain:    Chain(""),
			expected: false,
		},
		{
			name:     "invalid random chain",
			chain:    Chain("invalid:chain"),
			expected: false,
		},
		{
			name:     "invalid tezos chain",
			chain:    Chain("tezos:mainnet"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidChain(tt.chain))
		})
	}
}

func TestParseChain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Chain
		wantErr  bool
	}{
		{
			name:     "chain name",
			input:    "base",
			expected: ChainBaseMainnet,
		},
		{
			name:     "chain name with casing and spaces",
			input:    " Base-Sepolia ",
			expected: ChainBaseSepolia,
		},
		{
			name:     "caip-2 identifier",
			input:    "eip155:1",
			expected: ChainEthereumMainnet,
		},
		{
			name:    "unknown chain",
			input:   "solana",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := ParseChain(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, chain)
		})
	}
}

func TestChainSlug(t *testing.T) {
	assert.Equal(t, "base", ChainBaseMainnet.Slug())
	assert.Equal(t, "ethereum", ChainEthereumMainnet.Slug())
	assert.Equal(t, "eip155-10", Chain("eip155:10").Slug())
}

func TestIdentifiers(t *testing.T) {
	wallet := "0xAbCDEF0123456789abcdef0123456789ABCDEF01"

	userID := NewUserID(ChainBaseMainnet, wallet)
	assert.Equal(t, "eip155:8453:0xabcdef0123456789abcdef0123456789abcdef01", userID)
	assert.Equal(t, userID+"/groceries", NewBucketID(userID, "groceries"))
	assert.Equal(t, "0xabc-7", NewHistoryID("0xABC", 7))
}

func TestPositionLess(t *testing.T) {
	tests := []struct {
		name     string
		a        Position
		b        Position
		expected bool
	}{
		{name: "earlier block", a: Position{1, 9}, b: Position{2, 0}, expected: true},
		{name: "same block earlier log", a: Position{2, 1}, b: Position{2, 2}, expected: true},
		{name: "equal", a: Position{2, 2}, b: Position{2, 2}, expected: false},
		{name: "later block", a: Position{3, 0}, b: Position{2, 5}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Less(tt.b))
		})
	}
}

func TestAmountFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals int32
		expected string
		wantErr  bool
	}{
		{name: "usdc amount", input: "15000000", decimals: 6, expected: "15.000000"},
		{name: "fractional usdc", input: "1", decimals: 6, expected: "0.000001"},
		{name: "hex amount", input: "0x0f4240", decimals: 6, expected: "1.000000"},
		{name: "large native amount", input: "123456789012345678901234567890", decimals: 18, expected: "123456789012.345678901234567890"},
		{name: "negative", input: "-1", decimals: 6, wantErr: true},
		{name: "not a number", input: "1.5", decimals: 6, wantErr: true},
		{name: "leading zero is decimal", input: "0100", decimals: 0, expected: "100"},
		{name: "upper case hex", input: "0X10", decimals: 0, expected: "16"},
		{name: "binary prefix", input: "0b101", decimals: 0, wantErr: true},
		{name: "octal prefix", input: "0o17", decimals: 0, wantErr: true},
		{name: "digit separator", input: "1_000", decimals: 0, wantErr: true},
		{name: "bare hex prefix", input: "0x", decimals: 0, wantErr: true},
		{name: "signed hex", input: "0x-1", decimals: 0, wantErr: true},
		{name: "empty", input: "", decimals: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseBaseUnits(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, FormatAmount(AmountFromBaseUnits(v, tt.decimals), tt.decimals))
		})
	}
}

func TestAmountSumIsExact(t *testing.T) {
	// 0.1 + 0.2 in base units must be exactly 0.3
	a := AmountFromBaseUnits(big.NewInt(100000), 6)
	b := AmountFromBaseUnits(big.NewInt(200000), 6)
	assert.True(t, a.Add(b).Equal(decimal.RequireFromString("0.3")))
	assert.Equal(t, "0.000001", SmallestUnit(6).String())
}

func TestDecimalsFor(t *testing.T) {
	d := Decimals{PerChain: map[Chain]int32{ChainEthereumMainnet: 18}}
	assert.Equal(t, int32(18), d.For(ChainEthereumMainnet))
	assert.Equal(t, USDC_DECIMALS, d.For(ChainBaseMainnet))
	assert.Equal(t, USDC_DECIMALS, DefaultDecimals().For(ChainPolygonMainnet))
}

func TestParseHistoryType(t *testing.T) {
	for _, ht := range AllHistoryTypes {
		parsed, err := ParseHistoryType(string(ht))
		require.NoError(t, err)
		assert.Equal(t, ht, parsed)
	}

	_, err := ParseHistoryType("REFUND")
	assert.Error(t, err)
}

func TestEventHistoryTypesAreDistinct(t *testing.T) {
	events := []Event{
		WalletCreated{}, WalletRegistered{}, Deposit{}, Withdrawal{}, UnallocatedWithdraw{},
		EmergencyWithdraw{}, BucketCreated{}, BucketUpdated{}, BucketFunding{}, BucketSpending{},
		Transfer{}, BucketPeriodReset{}, DelegateGranted{}, DelegateRevoked{},
	}

	seen := make(map[HistoryType]bool)
	for _, e := range events {
		ht := e.HistoryType()
		assert.True(t, ht.Valid(), "invalid history type %s", ht)
		assert.False(t, seen[ht], "duplicate history type %s", ht)
		seen[ht] = true
	}
	assert.Len(t, seen, len(AllHistoryTypes))
}

func TestEventError(t *testing.T) {
	err := NewEventError("0xabc-1", "Withdrawal", "eip155:8453:0x01", ErrMissingBucketReference)
	wrapped := fmt.Errorf("apply: %w", err)

	assert.True(t, errors.Is(wrapped, ErrMissingBucketReference))

	var eventErr *EventError
	require.True(t, errors.As(wrapped, &eventErr))
	assert.Equal(t, "0xabc-1", eventErr.EventID)
	assert.Contains(t, err.Error(), "missing bucket reference")
	assert.Equal(t, "missing_bucket_reference", ErrorKind(wrapped))
	assert.Equal(t, "internal", ErrorKind(errors.New("boom")))
}
