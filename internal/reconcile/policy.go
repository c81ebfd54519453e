package reconcile

import (
	"fmt"
	"sort"

	"github.com/feral-file/ff-ledger/internal/domain"
)

const (
	// PolicyV1 is the classification the live aggregator applies: transfers and bucket
	// fundings move funds inside the wallet and count as neither spending nor deposit.
	PolicyV1 = "v1"
	// PolicyV0Legacy reproduces the old debug tooling, which counted transfers as spending
	// and classified only the money-moving types.
	PolicyV0Legacy = "v0-legacy"

	// CurrentPolicy is used when no version is requested
	CurrentPolicy = PolicyV1
)

// Class is the role a history type plays in the reconciliation fold
type Class string

const (
	ClassUnclassified Class = ""
	ClassDeposit      Class = "deposit"
	ClassSpending     Class = "spending"
	ClassNeutral      Class = "neutral"
)

// Policy maps history types to classes. A published policy is never edited; changing
// the classification means registering a new version.
type Policy struct {
	Version string
	classes map[domain.HistoryType]Class
}

// NewPolicy builds a policy from disjoint type sets
func NewPolicy(version string, deposit, spending, neutral []domain.HistoryType) (Policy, error) {
	if version == "" {
		return Policy{}, fmt.Errorf("policy version is required")
	}

	p := Policy{Version: version, classes: make(map[domain.HistoryType]Class)}
	add := func(types []domain.HistoryType, class Class) error {
		for _, t := range types {
			if !t.Valid() {
				return fmt.Errorf("policy %s: unknown history type %q", version, t)
			}
			if prev, ok := p.classes[t]; ok {
				return fmt.Errorf("policy %s: %s classified as both %s and %s", version, t, prev, class)
			}
			p.classes[t] = class
		}
		return nil
	}

	if err := add(deposit, ClassDeposit); err != nil {
		return Policy{}, err
	}
	if err := add(spending, ClassSpending); err != nil {
		return Policy{}, err
	}
	if err := add(neutral, ClassNeutral); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Classify returns the class of a history type, ClassUnclassified when the policy does not cover it
func (p Policy) Classify(t domain.HistoryType) Class {
	return p.classes[t]
}

// Types returns the types of a class in enumeration order
func (p Policy) Types(class Class) []domain.HistoryType {
	var types []domain.HistoryType
	for _, t := range domain.AllHistoryTypes {
		if p.classes[t] == class {
			types = append(types, t)
		}
	}
	return types
}

var policies = map[string]Policy{}

func mustRegister(version string, deposit, spending, neutral []domain.HistoryType) {
	p, err := NewPolicy(version, deposit, spending, neutral)
	if err != nil {
		panic(err)
	}
	policies[version] = p
}

func init() {
	mustRegister(PolicyV1,
		[]domain.HistoryType{domain.HistoryTypeDeposit},
		[]domain.HistoryType{
			domain.HistoryTypeWithdrawal,
			domain.HistoryTypeBucketSpending,
			domain.HistoryTypeUnallocatedWithdraw,
			domain.HistoryTypeEmergencyWithdraw,
		},
		[]domain.HistoryType{
			domain.HistoryTypeTransfer,
			domain.HistoryTypeBucketFunding,
			domain.HistoryTypeWalletCreated,
			domain.HistoryTypeWalletRegistered,
			domain.HistoryTypeBucketCreated,
			domain.HistoryTypeBucketUpdated,
			domain.HistoryTypeBucketPeriodReset,
			domain.HistoryTypeDelegateGranted,
			domain.HistoryTypeDelegateRevoked,
		},
	)

	mustRegister(PolicyV0Legacy,
		[]domain.HistoryType{domain.HistoryTypeDeposit},
		[]domain.HistoryType{
			domain.HistoryTypeWithdrawal,
			domain.HistoryTypeBucketSpending,
			domain.HistoryTypeUnallocatedWithdraw,
			domain.HistoryTypeEmergencyWithdraw,
			domain.HistoryTypeTransfer,
		},
		[]domain.HistoryType{
			domain.HistoryTypeBucketFunding,
			domain.HistoryTypeWalletCreated,
		},
	)
}

// LookupPolicy returns a registered policy; an empty version selects CurrentPolicy
func LookupPolicy(version string) (Policy, error) {
	if version == "" {
		version = CurrentPolicy
	}
	p, ok := policies[version]
	if !ok {
		return Policy{}, fmt.Errorf("%w: unknown reconciliation policy %q", domain.ErrInvalidArgument, version)
	}
	return p, nil
}

// PolicyVersions lists the registered policy versions
func PolicyVersions() []string {
	versions := make([]string, 0, len(policies))
	for v := range policies {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
