package decoder

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/domain"
)

const (
	testWallet    = "0x1111111111111111111111111111111111111111"
	testOwner     = "0x2222222222222222222222222222222222222222"
	testDelegate  = "0x3333333333333333333333333333333333333333"
	testRecipient = "0x4444444444444444444444444444444444444444"
)

func rawEvent(name string, params map[string]any) domain.RawEvent {
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params[ParamWallet]; !ok {
		params[ParamWallet] = testWallet
	}
	return domain.RawEvent{
		Chain:          domain.ChainBaseMainnet,
		EventName:      name,
		Params:         params,
		BlockNumber:    100,
		LogIndex:       3,
		TxHash:         "0xABCDEF",
		BlockTimestamp: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestDecode_AllKinds(t *testing.T) {
	d := New(domain.DefaultDecimals())

	tests := []struct {
		name     string
		raw      domain.RawEvent
		expected domain.HistoryType
		check    func(t *testing.T, ev domain.Event)
	}{
		{
			name:     "wallet created",
			raw:      rawEvent("WalletCreated", map[string]any{ParamOwner: testOwner, ParamSalt: "7"}),
			expected: domain.HistoryTypeWalletCreated,
			check: func(t *testing.T, ev domain.Event) {
				wc := ev.(domain.WalletCreated)
				assert.Equal(t, testOwner, wc.Owner)
				assert.Equal(t, "7", wc.Salt)
			},
		},
		{
			name:     "wallet registered",
			raw:      rawEvent("WalletRegistered", nil),
			expected: domain.HistoryTypeWalletRegistered,
		},
		{
			name:     "deposit without bucket",
			raw:      rawEvent("Deposit", map[string]any{ParamAmount: "100000000"}),
			expected: domain.HistoryTypeDeposit,
			check: func(t *testing.T, ev domain.Event) {
				dep := ev.(domain.Deposit)
				assert.Equal(t, "100", dep.Amount.String())
				assert.Empty(t, dep.Bucket)
			},
		},
		{
			name:     "withdrawal with recipient",
			raw:      rawEvent("Withdrawal", map[string]any{ParamAmount: "1", ParamRecipient: testRecipient}),
			expected: domain.HistoryTypeWithdrawal,
			check: func(t *testing.T, ev domain.Event) {
				w := ev.(domain.Withdrawal)
				assert.Equal(t, "0.000001", w.Amount.String())
				assert.Equal(t, testRecipient, w.Recipient)
			},
		},
		{
			name:     "unallocated withdraw",
			raw:      rawEvent("UnallocatedWithdraw", map[string]any{ParamAmount: "5000000"}),
			expected: domain.HistoryTypeUnallocatedWithdraw,
		},
		{
			name:     "emergency withdraw",
			raw:      rawEvent("EmergencyWithdraw", map[string]any{ParamAmount: "5000000", ParamBucket: "rent"}),
			expected: domain.HistoryTypeEmergencyWithdraw,
		},
		{
			name:     "bucket created",
			raw:      rawEvent("BucketCreated", map[string]any{ParamBucket: "groceries", ParamMonthlyLimit: "50000000"}),
			expected: domain.HistoryTypeBucketCreated,
			check: func(t *testing.T, ev domain.Event) {
				bc := ev.(domain.BucketCreated)
				assert.Equal(t, "groceries", bc.Bucket)
				assert.Equal(t, "50", bc.MonthlyLimit.String())
			},
		},
		{
			name:     "bucket updated with active flag only",
			raw:      rawEvent("BucketUpdated", map[string]any{ParamBucket: "groceries", ParamActive: false}),
			expected: domain.HistoryTypeBucketUpdated,
			check: func(t *testing.T, ev domain.Event) {
				bu := ev.(domain.BucketUpdated)
				assert.Nil(t, bu.MonthlyLimit)
				require.NotNil(t, bu.Active)
				assert.False(t, *bu.Active)
			},
		},
		{
			name:     "bucket funding",
			raw:      rawEvent("BucketFunding", map[string]any{ParamBucket: "groceries", ParamAmount: float64(15000000)}),
			expected: domain.HistoryTypeBucketFunding,
			check: func(t *testing.T, ev domain.Event) {
				bf := ev.(domain.BucketFunding)
				assert.Equal(t, "15", bf.Amount.String())
				assert.Nil(t, bf.MonthlyLimit)
			},
		},
		{
			name:     "bucket spending",
			raw:      rawEvent("BucketSpending", map[string]any{ParamBucket: "groceries", ParamAmount: big.NewInt(20000000)}),
			expected: domain.HistoryTypeBucketSpending,
		},
		{
			name:     "transfer from unallocated",
			raw:      rawEvent("Transfer", map[string]any{ParamToBucket: "rent", ParamAmount: "10000000"}),
			expected: domain.HistoryTypeTransfer,
			check: func(t *testing.T, ev domain.Event) {
				tr := ev.(domain.Transfer)
				assert.Empty(t, tr.FromBucket)
				assert.Equal(t, "rent", tr.ToBucket)
			},
		},
		{
			name:     "bucket period reset",
			raw:      rawEvent("BucketPeriodReset", map[string]any{ParamBucket: "groceries"}),
			expected: domain.HistoryTypeBucketPeriodReset,
		},
		{
			name:     "delegate granted",
			raw:      rawEvent("DelegateGranted", map[string]any{ParamDelegate: testDelegate}),
			expected: domain.HistoryTypeDelegateGranted,
		},
		{
			name:     "delegate revoked",
			raw:      rawEvent("DelegateRevoked", map[string]any{ParamDelegate: testDelegate}),
			expected: domain.HistoryTypeDelegateRevoked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := d.Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ev.HistoryType())

			meta := ev.Meta()
			assert.Equal(t, domain.ChainBaseMainnet, meta.Chain)
			assert.Equal(t, testWallet, meta.Wallet)
			assert.Equal(t, "0xabcdef-3", meta.ID())
			assert.NotEmpty(t, meta.Raw)

			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	d := New(domain.DefaultDecimals())

	tests := []struct {
		name     string
		raw      domain.RawEvent
		expected error
	}{
		{
			name:     "unknown event name",
			raw:      rawEvent("Refund", map[string]any{ParamAmount: "1"}),
			expected: domain.ErrUnrecognizedEventKind,
		},
		{
			name:     "missing amount",
			raw:      rawEvent("Deposit", nil),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "negative amount",
			raw:      rawEvent("Deposit", map[string]any{ParamAmount: "-5"}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "fractional float amount",
			raw:      rawEvent("Deposit", map[string]any{ParamAmount: 1.5}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "float amount beyond exact range",
			raw:      rawEvent("Deposit", map[string]any{ParamAmount: float64(1 << 60)}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "binary prefixed amount",
			raw:      rawEvent("Deposit", map[string]any{ParamAmount: "0b101"}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "underscore separated amount",
			raw:      rawEvent("Deposit", map[string]any{ParamAmount: "1_000"}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "invalid wallet address",
			raw:      rawEvent("Deposit", map[string]any{ParamWallet: "not-an-address", ParamAmount: "1"}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "bucket spending without bucket",
			raw:      rawEvent("BucketSpending", map[string]any{ParamAmount: "1"}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "transfer to same bucket",
			raw:      rawEvent("Transfer", map[string]any{ParamFromBucket: "a", ParamToBucket: "a", ParamAmount: "1"}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "delegate with bad address",
			raw:      rawEvent("DelegateGranted", map[string]any{ParamDelegate: "0x12"}),
			expected: domain.ErrInvalidEventPayload,
		},
		{
			name:     "bad active flag",
			raw:      rawEvent("BucketUpdated", map[string]any{ParamBucket: "a", ParamActive: "maybe"}),
			expected: domain.ErrInvalidEventPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := d.Decode(tt.raw)
			require.Error(t, err)
			assert.Nil(t, ev)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestDecode_UnknownChain(t *testing.T) {
	d := New(domain.DefaultDecimals())
	raw := rawEvent("Deposit", map[string]any{ParamAmount: "1"})
	raw.Chain = domain.Chain("tezos:mainnet")

	_, err := d.Decode(raw)
	assert.ErrorIs(t, err, domain.ErrInvalidEventPayload)
}

func TestDecode_WalletFallsBackToAddress(t *testing.T) {
	d := New(domain.DefaultDecimals())
	raw := rawEvent("Deposit", map[string]any{ParamAmount: "1"})
	delete(raw.Params, ParamWallet)
	raw.Address = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

	ev, err := d.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ev.Meta().Wallet)
}

func TestDecode_PerChainDecimals(t *testing.T) {
	d := New(domain.Decimals{Default: 6, PerChain: map[domain.Chain]int32{domain.ChainEthereumMainnet: 18}})
	raw := rawEvent("Deposit", map[string]any{ParamAmount: "1000000000000000000"})
	raw.Chain = domain.ChainEthereumMainnet

	ev, err := d.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "1", ev.(domain.Deposit).Amount.String())
}

func TestDecode_CanonicalRawIsKeyOrderIndependent(t *testing.T) {
	d := New(domain.DefaultDecimals())

	a, err := d.Decode(rawEvent("BucketSpending", map[string]any{ParamBucket: "x", ParamAmount: "7"}))
	require.NoError(t, err)
	b, err := d.Decode(rawEvent("BucketSpending", map[string]any{ParamAmount: "7", ParamBucket: "x"}))
	require.NoError(t, err)

	assert.Equal(t, string(a.Meta().Raw), string(b.Meta().Raw))
}

func TestDecode_LargeAmountsStayExact(t *testing.T) {
	d := New(domain.Decimals{Default: 6, PerChain: map[domain.Chain]int32{domain.ChainEthereumMainnet: 18}})

	raw := rawEvent("Deposit", map[string]any{ParamAmount: json.Number("1500000000000000001")})
	raw.Chain = domain.ChainEthereumMainnet
	ev, err := d.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "1.500000000000000001", ev.(domain.Deposit).Amount.String())
	assert.Contains(t, string(ev.Meta().Raw), `"1500000000000000001"`)

	ev, err = d.Decode(rawEvent("Deposit", map[string]any{ParamAmount: float64(1 << 53)}))
	require.NoError(t, err)
	assert.Equal(t, "9007199254.740992", ev.(domain.Deposit).Amount.String())
}

func TestDecode_LeadingZeroIsDecimal(t *testing.T) {
	d := New(domain.Decimals{Default: 0})

	ev, err := d.Decode(rawEvent("Deposit", map[string]any{ParamAmount: "0100"}))
	require.NoError(t, err)
	assert.Equal(t, "100", ev.(domain.Deposit).Amount.String())
}

func TestIsKnownEvent(t *testing.T) {
	assert.True(t, IsKnownEvent("Transfer"))
	assert.False(t, IsKnownEvent("transfer"))
}
