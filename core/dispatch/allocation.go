package dispatch

import "github.com/kilianp07/sitesim/core/model"

// allocate serves per-charger power claims against a shared headroom budget.
// Each charger receives min(claim, own PCS ceiling, remaining budget), visited
// in ascending charger index order. Contention is therefore resolved by index
// priority, the deterministic policy chosen for multi-charger scarcity.
func allocate(claims []float64, chargers []model.Charger, budgetKW float64) (served []float64, total float64) {
	served = make([]float64, len(claims))
	remaining := budgetKW
	for i, claim := range claims {
		if remaining <= 0 {
			break
		}
		p := min(claim, chargers[i].PCSLimitKW, remaining)
		if p <= 0 {
			continue
		}
		served[i] = p
		remaining -= p
		total += p
	}
	return served, total
}

// allocateExtra distributes an additional power budget across chargers, each
// bounded by its own per-charger ceiling, again in index order.
func allocateExtra(ceilings []float64, budgetKW float64) (served []float64, total float64) {
	served = make([]float64, len(ceilings))
	remaining := budgetKW
	for i, c := range ceilings {
		if remaining <= 0 {
			break
		}
		p := min(c, remaining)
		if p <= 0 {
			continue
		}
		served[i] = p
		remaining -= p
		total += p
	}
	return served, total
}
