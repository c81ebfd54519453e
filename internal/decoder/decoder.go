package decoder

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-ledger/internal/domain"
)

// Param names shared by every wallet contract event
const (
	ParamWallet       = "wallet"
	ParamOwner        = "owner"
	ParamSalt         = "salt"
	ParamAmount       = "amount"
	ParamBucket       = "bucket"
	ParamFromBucket   = "fromBucket"
	ParamToBucket     = "toBucket"
	ParamMonthlyLimit = "monthlyLimit"
	ParamActive       = "active"
	ParamDelegate     = "delegate"
	ParamRecipient    = "recipient"
)

// Decoder turns raw events into typed domain events
type Decoder interface {
	// Decode classifies the raw event and parses its params
	Decode(raw domain.RawEvent) (domain.Event, error)
}

type decoder struct {
	decimals domain.Decimals
}

// New creates a decoder that converts base-unit amounts with the given per-chain decimals
func New(decimals domain.Decimals) Decoder {
	return &decoder{decimals: decimals}
}

type decodeFunc func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error)

var registry = map[domain.EventName]decodeFunc{
	domain.EventWalletCreated: func(_ *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		owner, err := p.optionalAddress(ParamOwner)
		if err != nil {
			return nil, err
		}
		return domain.WalletCreated{EventMeta: meta, Owner: owner, Salt: p.optionalString(ParamSalt)}, nil
	},
	domain.EventWalletRegistered: func(_ *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		owner, err := p.optionalAddress(ParamOwner)
		if err != nil {
			return nil, err
		}
		return domain.WalletRegistered{EventMeta: meta, Owner: owner}, nil
	},
	domain.EventDeposit: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		amount, err := d.amount(meta.Chain, p, ParamAmount)
		if err != nil {
			return nil, err
		}
		return domain.Deposit{EventMeta: meta, Amount: amount, Bucket: p.optionalString(ParamBucket)}, nil
	},
	domain.EventWithdrawal: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		amount, err := d.amount(meta.Chain, p, ParamAmount)
		if err != nil {
			return nil, err
		}
		recipient, err := p.optionalAddress(ParamRecipient)
		if err != nil {
			return nil, err
		}
		return domain.Withdrawal{EventMeta: meta, Amount: amount, Bucket: p.optionalString(ParamBucket), Recipient: recipient}, nil
	},
	domain.EventUnallocatedWithdraw: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		amount, err := d.amount(meta.Chain, p, ParamAmount)
		if err != nil {
			return nil, err
		}
		recipient, err := p.optionalAddress(ParamRecipient)
		if err != nil {
			return nil, err
		}
		return domain.UnallocatedWithdraw{EventMeta: meta, Amount: amount, Recipient: recipient}, nil
	},
	domain.EventEmergencyWithdraw: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		amount, err := d.amount(meta.Chain, p, ParamAmount)
		if err != nil {
			return nil, err
		}
		recipient, err := p.optionalAddress(ParamRecipient)
		if err != nil {
			return nil, err
		}
		return domain.EmergencyWithdraw{EventMeta: meta, Amount: amount, Bucket: p.optionalString(ParamBucket), Recipient: recipient}, nil
	},
	domain.EventBucketCreated: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		bucket, err := p.requiredString(ParamBucket)
		if err != nil {
			return nil, err
		}
		limit, err := d.optionalAmount(meta.Chain, p, ParamMonthlyLimit)
		if err != nil {
			return nil, err
		}
		ev := domain.BucketCreated{EventMeta: meta, Bucket: bucket}
		if limit != nil {
			ev.MonthlyLimit = *limit
		}
		return ev, nil
	},
	domain.EventBucketUpdated: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		bucket, err := p.requiredString(ParamBucket)
		if err != nil {
			return nil, err
		}
		limit, err := d.optionalAmount(meta.Chain, p, ParamMonthlyLimit)
		if err != nil {
			return nil, err
		}
		active, err := p.optionalBool(ParamActive)
		if err != nil {
			return nil, err
		}
		return domain.BucketUpdated{EventMeta: meta, Bucket: bucket, MonthlyLimit: limit, Active: active}, nil
	},
	domain.EventBucketFunding: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		bucket, err := p.requiredString(ParamBucket)
		if err != nil {
			return nil, err
		}
		amount, err := d.amount(meta.Chain, p, ParamAmount)
		if err != nil {
			return nil, err
		}
		limit, err := d.optionalAmount(meta.Chain, p, ParamMonthlyLimit)
		if err != nil {
			return nil, err
		}
		return domain.BucketFunding{EventMeta: meta, Bucket: bucket, Amount: amount, MonthlyLimit: limit}, nil
	},
	domain.EventBucketSpending: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		bucket, err := p.requiredString(ParamBucket)
		if err != nil {
			return nil, err
		}
		amount, err := d.amount(meta.Chain, p, ParamAmount)
		if err != nil {
			return nil, err
		}
		recipient, err := p.optionalAddress(ParamRecipient)
		if err != nil {
			return nil, err
		}
		return domain.BucketSpending{EventMeta: meta, Bucket: bucket, Amount: amount, Recipient: recipient}, nil
	},
	domain.EventTransfer: func(d *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		amount, err := d.amount(meta.Chain, p, ParamAmount)
		if err != nil {
			return nil, err
		}
		from := p.optionalString(ParamFromBucket)
		to := p.optionalString(ParamToBucket)
		if from == to {
			return nil, fmt.Errorf("%w: transfer source and destination are both %q", domain.ErrInvalidEventPayload, from)
		}
		return domain.Transfer{EventMeta: meta, FromBucket: from, ToBucket: to, Amount: amount}, nil
	},
	domain.EventBucketPeriodReset: func(_ *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		bucket, err := p.requiredString(ParamBucket)
		if err != nil {
			return nil, err
		}
		return domain.BucketPeriodReset{EventMeta: meta, Bucket: bucket}, nil
	},
	domain.EventDelegateGranted: func(_ *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		delegate, err := p.requiredAddress(ParamDelegate)
		if err != nil {
			return nil, err
		}
		return domain.DelegateGranted{EventMeta: meta, Delegate: delegate}, nil
	},
	domain.EventDelegateRevoked: func(_ *decoder, meta domain.EventMeta, p params) (domain.Event, error) {
		delegate, err := p.requiredAddress(ParamDelegate)
		if err != nil {
			return nil, err
		}
		return domain.DelegateRevoked{EventMeta: meta, Delegate: delegate}, nil
	},
}

// IsKnownEvent reports whether the event name belongs to the closed vocabulary
func IsKnownEvent(name string) bool {
	_, ok := registry[domain.EventName(name)]
	return ok
}

func walletParam(raw domain.RawEvent) string {
	wallet := params(raw.Params).optionalString(ParamWallet)
	if wallet == "" {
		wallet = raw.Address
	}
	return wallet
}

// WalletOf returns the normalized wallet address a raw event concerns, empty when it has none
func WalletOf(raw domain.RawEvent) string {
	wallet := walletParam(raw)
	if !domain.IsValidAddress(wallet) {
		return ""
	}
	return domain.NormalizeAddress(wallet)
}

// Decode classifies the raw event and parses its params
func (d *decoder) Decode(raw domain.RawEvent) (domain.Event, error) {
	fn, ok := registry[domain.EventName(raw.EventName)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (event %s)", domain.ErrUnrecognizedEventKind, raw.EventName, raw.ID())
	}

	if !domain.IsValidChain(raw.Chain) {
		return nil, fmt.Errorf("%w: unsupported chain %q (event %s)", domain.ErrInvalidEventPayload, raw.Chain, raw.ID())
	}
	if raw.TxHash == "" {
		return nil, fmt.Errorf("%w: missing tx hash", domain.ErrInvalidEventPayload)
	}

	p := params(raw.Params)
	wallet := walletParam(raw)
	if !domain.IsValidAddress(wallet) {
		return nil, fmt.Errorf("%w: invalid wallet address %q (event %s)", domain.ErrInvalidEventPayload, wallet, raw.ID())
	}

	canonical, err := canonicalParams(raw.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v (event %s)", domain.ErrInvalidEventPayload, err, raw.ID())
	}

	meta := domain.EventMeta{
		Chain:          raw.Chain,
		Name:           domain.EventName(raw.EventName),
		Wallet:         domain.NormalizeAddress(wallet),
		BlockNumber:    raw.BlockNumber,
		LogIndex:       raw.LogIndex,
		TxHash:         strings.ToLower(raw.TxHash),
		BlockTimestamp: raw.BlockTimestamp.UTC(),
		Raw:            canonical,
	}

	ev, err := fn(d, meta, p)
	if err != nil {
		return nil, fmt.Errorf("decode %s event %s: %w", raw.EventName, raw.ID(), err)
	}

	return ev, nil
}

func (d *decoder) amount(chain domain.Chain, p params, key string) (decimal.Decimal, error) {
	v, err := p.requiredInteger(key)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.AmountFromBaseUnits(v, d.decimals.For(chain)), nil
}

func (d *decoder) optionalAmount(chain domain.Chain, p params, key string) (*decimal.Decimal, error) {
	if _, ok := p[key]; !ok {
		return nil, nil
	}
	amount, err := d.amount(chain, p, key)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

// canonicalParams renders the params as RFC 8785 canonical JSON. Integers that do
// not fit a float64 exactly are written as strings, since JCS numbers are doubles.
func canonicalParams(p map[string]any) ([]byte, error) {
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch n := v.(type) {
		case json.Number:
			out[k] = n.String()
		case *big.Int:
			out[k] = n.String()
		default:
			out[k] = v
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return jcs.Transform(b)
}

type params map[string]any

func (p params) optionalString(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func (p params) requiredString(key string) (string, error) {
	s := p.optionalString(key)
	if s == "" {
		return "", fmt.Errorf("%w: missing %s", domain.ErrInvalidEventPayload, key)
	}
	return s, nil
}

func (p params) optionalAddress(key string) (string, error) {
	s := p.optionalString(key)
	if s == "" {
		return "", nil
	}
	if !domain.IsValidAddress(s) {
		return "", fmt.Errorf("%w: invalid %s address %q", domain.ErrInvalidEventPayload, key, s)
	}
	return domain.NormalizeAddress(s), nil
}

func (p params) requiredAddress(key string) (string, error) {
	s, err := p.optionalAddress(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%w: missing %s", domain.ErrInvalidEventPayload, key)
	}
	return s, nil
}

func (p params) optionalBool(key string) (*bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch b := v.(type) {
	case bool:
		return &b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidEventPayload, key, b)
		}
		return &parsed, nil
	default:
		return nil, fmt.Errorf("%w: invalid %s type %T", domain.ErrInvalidEventPayload, key, v)
	}
}

// maxExactFloat is the largest integer every float64 below it represents exactly
const maxExactFloat = 1 << 53

// requiredInteger accepts integer strings, json.Number, *big.Int and integral float64
// values up to 2^53; larger floats have already lost precision
func (p params) requiredInteger(key string) (*big.Int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidEventPayload, key)
	}

	var s string
	switch n := v.(type) {
	case string:
		s = strings.TrimSpace(n)
	case json.Number:
		s = n.String()
	case *big.Int:
		s = n.String()
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%w: non-integer %s %v", domain.ErrInvalidEventPayload, key, n)
		}
		if math.Abs(n) > maxExactFloat {
			return nil, fmt.Errorf("%w: %s %v exceeds exact float range, send it as a string", domain.ErrInvalidEventPayload, key, n)
		}
		s = strconv.FormatFloat(n, 'f', 0, 64)
	case int:
		s = strconv.Itoa(n)
	case int64:
		s = strconv.FormatInt(n, 10)
	case uint64:
		s = strconv.FormatUint(n, 10)
	default:
		return nil, fmt.Errorf("%w: invalid %s type %T", domain.ErrInvalidEventPayload, key, v)
	}

	parsed, err := domain.ParseBaseUnits(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidEventPayload, key, err)
	}
	return parsed, nil
}
