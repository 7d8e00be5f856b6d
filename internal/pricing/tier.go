package pricing

import "errors"

// Tier is one bracket of the tiered price table. A nil limit means the tier
// accepts any value for that dimension.
type Tier struct {
	Index       int
	Label       string
	MaxWeightKg *float64
	MaxVolumeM3 *float64
	Price       float64 // in currency units, e.g. 4.99
}

// ValidateTiers enforces the invariants the matcher relies on: at least one
// tier, strictly increasing limits where both are set, non-negative prices.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return errors.New("at least one pricing tier is required")
	}
	for i, tier := range tiers {
		if tier.Price < 0 {
			return errors.New("tier prices must be non-negative")
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if prev.MaxWeightKg != nil && tier.MaxWeightKg != nil && *tier.MaxWeightKg <= *prev.MaxWeightKg {
			return errors.New("tier weight limits must be strictly increasing")
		}
		if prev.MaxVolumeM3 != nil && tier.MaxVolumeM3 != nil && *tier.MaxVolumeM3 <= *prev.MaxVolumeM3 {
			return errors.New("tier volume limits must be strictly increasing")
		}
	}
	return nil
}
