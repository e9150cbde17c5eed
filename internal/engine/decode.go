package engine

// Decode converts a winning bitstring back into normalized per-asset
// weights. Each asset's raw weight is its on-bit count over numSlices;
// normalizing by the raw sum repairs any residual budget violation the
// penalty term left behind, so the result always sums to 1. Zero-weight
// assets stay in the map so callers see the full universe.
//
// RawSum in the result is the pre-normalization total: exactly 1 means the
// annealer satisfied the budget constraint on its own.
func Decode(sol Solution, universe AssetUniverse, numSlices int) (Allocation, float64, error) {
	if numSlices <= 0 {
		numSlices = DefaultSlices
	}

	raw := make([]float64, len(universe))
	var rawSum float64
	for i := range universe {
		on := 0
		for k := 0; k < numSlices; k++ {
			idx := i*numSlices + k
			if idx < len(sol.Bits) && sol.Bits[idx] != 0 {
				on++
			}
		}
		raw[i] = float64(on) / float64(numSlices)
		rawSum += raw[i]
	}

	if rawSum == 0 {
		return nil, 0, &DegenerateSolutionError{Energy: sol.Energy}
	}

	alloc := make(Allocation, len(universe))
	for i, t := range universe {
		alloc[t] = raw[i] / rawSum
	}
	return alloc, rawSum, nil
}

// Normalize rescales an allocation to sum to 1. Idempotent: an already
// normalized allocation comes back unchanged.
func Normalize(alloc Allocation) Allocation {
	var sum float64
	for _, w := range alloc {
		sum += w
	}
	if sum == 0 {
		return alloc
	}
	out := make(Allocation, len(alloc))
	for t, w := range alloc {
		out[t] = w / sum
	}
	return out
}
