package loan

// Product describes one loan offering and the bounds underwriting works within.
// Amounts are whole currency units; BaseRate is the annual percentage rate
// before any credit-score adjustment.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MinAmount    int64    `json:"minAmount"`
	MaxAmount    int64    `json:"maxAmount"`
	BaseRate     float64  `json:"baseInterestRate"`
	TenureMonths []int    `json:"allowedTenuresMonths"`
	Aliases      []string `json:"-"`
}

// NearestTenure snaps a requested tenure to the closest allowed value.
// On an exact midpoint the earlier entry in TenureMonths wins.
func (p Product) NearestTenure(months int) int {
	if len(p.TenureMonths) == 0 {
		return months
	}
	best := p.TenureMonths[0]
	bestDist := abs(months - best)
	for _, candidate := range p.TenureMonths[1:] {
		if d := abs(months - candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
