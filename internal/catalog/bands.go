package catalog

// AmountBand is the plausible MXN range for one category.
type AmountBand struct {
	Min float64
	Max float64
}

// AmountBands maps category slugs to their plausible amount ranges. The
// values are business heuristics tuned for Mexican peso spending, kept as
// data so they can be replaced wholesale from configuration.
type AmountBands map[string]AmountBand

// DefaultAmountBands returns the built-in band table for the seeded
// catalog.
func DefaultAmountBands() AmountBands {
	return AmountBands{
		"coffee_shops":   {Min: 30, Max: 200},
		"restaurants":    {Min: 80, Max: 1500},
		"groceries":      {Min: 100, Max: 3000},
		"rideshare":      {Min: 40, Max: 450},
		"fuel":           {Min: 200, Max: 1500},
		"public_transit": {Min: 5, Max: 100},
		"rent_mortgage":  {Min: 3000, Max: 50000},
		"utilities":      {Min: 100, Max: 3000},
		"streaming":      {Min: 99, Max: 500},
		"cinema":         {Min: 60, Max: 600},
		"pharmacy":       {Min: 50, Max: 1500},
		"clothing":       {Min: 200, Max: 5000},
		"electronics":    {Min: 300, Max: 30000},
	}
}

// Contains reports whether the amount falls inside the band for slug.
// Unknown slugs never match.
func (b AmountBands) Contains(slug string, amount float64) bool {
	band, ok := b[slug]
	if !ok {
		return false
	}
	return amount >= band.Min && amount <= band.Max
}
