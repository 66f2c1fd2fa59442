package zone

import "math"

// Distribution is derived occupancy statistics, recomputed on every
// placement and release.
type Distribution struct {
	Densities         map[string]float64 `json:"densities"`
	MeanDensity       float64            `json:"mean_density"`
	TotalOccupants    int                `json:"total_occupants"`
	CenterOccupants   int                `json:"center_occupants"`
	CenterUtilization float64            `json:"center_utilization"`
	BalanceScore      float64            `json:"balance_score"`
}

// ComputeDistribution summarises the regions' current occupancy.
func ComputeDistribution(regions []*Region) Distribution {
	d := Distribution{
		Densities:    make(map[string]float64, len(regions)),
		BalanceScore: 1,
	}
	if len(regions) == 0 {
		return d
	}

	densities := make([]float64, len(regions))
	for i, r := range regions {
		densities[i] = r.Density()
		d.Densities[r.ID] = densities[i]
		d.TotalOccupants += r.ActiveOccupants
		if r.Kind == KindCenter {
			d.CenterOccupants += r.ActiveOccupants
		}
	}
	if d.TotalOccupants > 0 {
		d.CenterUtilization = float64(d.CenterOccupants) / float64(d.TotalOccupants)
	}
	d.MeanDensity = mean(densities)
	d.BalanceScore = BalanceScore(densities)
	return d
}

// BalanceScore returns 1 − coefficient of variation of densities, clamped to
// [0, 1]. An all-zero (or empty) distribution scores 1.
func BalanceScore(densities []float64) float64 {
	m := mean(densities)
	if m <= 0 {
		return 1
	}
	var sq float64
	for _, d := range densities {
		sq += (d - m) * (d - m)
	}
	cv := math.Sqrt(sq/float64(len(densities))) / m
	return max(0, min(1, 1-cv))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
