package pricing

import "context"

// epsilon absorbs floating-point rounding introduced by upstream unit
// conversions (cm³ -> m³, g -> kg). A parcel weighing 5.00004 kg still fits
// a 5 kg tier.
const epsilon = 0.0001

// TierStore loads the price table in stored order.
type TierStore interface {
	ListTiers(ctx context.Context) ([]Tier, error)
}

// Matcher selects the first tier that accepts a parcel's weight and volume.
type Matcher struct {
	store TierStore
}

func NewMatcher(store TierStore) *Matcher {
	return &Matcher{store: store}
}

// Match iterates the tiers in stored order and returns the first one whose
// limits accept the parcel. The second return is false when no tier matches;
// the caller decides the fallback.
func (m *Matcher) Match(ctx context.Context, weightKg, volumeM3 float64) (*Tier, bool, error) {
	tiers, err := m.store.ListTiers(ctx)
	if err != nil {
		return nil, false, err
	}
	tier, ok := MatchTier(tiers, weightKg, volumeM3)
	return tier, ok, nil
}

// MatchTier is the pure selection rule: first tier in order where the weight
// fits (or the limit is unlimited) AND the volume fits.
func MatchTier(tiers []Tier, weightKg, volumeM3 float64) (*Tier, bool) {
	for i := range tiers {
		tier := &tiers[i]
		if tier.MaxWeightKg != nil && weightKg > *tier.MaxWeightKg+epsilon {
			continue
		}
		if tier.MaxVolumeM3 != nil && volumeM3 > *tier.MaxVolumeM3+epsilon {
			continue
		}
		return tier, true
	}
	return nil, false
}

// currencySymbols is the small fixed lookup used when rendering tier prices.
var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
	"PLN": "zł",
}

// CurrencySymbol resolves the display symbol for an ISO currency code,
// falling back to the code itself.
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return code
}
