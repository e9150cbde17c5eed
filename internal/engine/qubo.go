package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultSlices is the default discretization granularity: 20 slices
	// give 5% weight resolution per asset.
	DefaultSlices = 20

	// DefaultPenaltyMultiplier scales the budget penalty relative to the
	// largest objective coefficient. Too small lets the annealer return
	// non-summing allocations; too large traps the search in poor local
	// minima. Tuned empirically, not a contract.
	DefaultPenaltyMultiplier = 10.0
)

// BuildQUBO maps the mean-variance objective onto a binary quadratic form
// over slice variables. Each asset i gets numSlices binaries x_{i,k}; its
// raw weight is the on-bit count divided by numSlices. The minimized energy
// is
//
//	riskAversion·w'Cw − r'w + P·(Σw − 1)²
//
// with P derived from the largest objective coefficient magnitude times the
// penalty multiplier. The construction is purely deterministic: identical
// inputs yield a bit-identical matrix.
func BuildQUBO(in *Inputs, riskAversion float64, numSlices int, penaltyMultiplier float64) *QUBO {
	if numSlices <= 0 {
		numSlices = DefaultSlices
	}
	if penaltyMultiplier <= 0 {
		penaltyMultiplier = DefaultPenaltyMultiplier
	}

	nAssets := len(in.Universe)
	n := nAssets * numSlices
	s := float64(numSlices)
	s2 := s * s

	// Penalty strength from the objective's own scale so the budget term
	// dominates both the covariance and return coefficients.
	var maxCoeff float64
	for i := 0; i < nAssets; i++ {
		if v := math.Abs(in.Mu[i]); v > maxCoeff {
			maxCoeff = v
		}
		for j := i; j < nAssets; j++ {
			if v := math.Abs(riskAversion * in.Cov.At(i, j)); v > maxCoeff {
				maxCoeff = v
			}
		}
	}
	if maxCoeff == 0 {
		maxCoeff = 1
	}
	penalty := penaltyMultiplier * maxCoeff

	// Expand the quadratic forms in slice binaries. With energy defined as
	// x'Qx, the coefficient between variables a=(i,k) and b=(j,l) picks up
	// the cross-asset covariance plus the cross-slice penalty; squared
	// single-bit contributions and the linear return/penalty terms land on
	// the diagonal (x² = x for binaries).
	q := mat.NewSymDense(n, nil)
	for a := 0; a < n; a++ {
		i := a / numSlices
		for b := a; b < n; b++ {
			j := b / numSlices
			coeff := (riskAversion*in.Cov.At(i, j) + penalty) / s2
			if a == b {
				coeff += -in.Mu[i]/s - 2*penalty/s
			}
			q.SetSym(a, b, coeff)
		}
	}

	return &QUBO{N: n, Slices: numSlices, Q: q}
}

// Energy evaluates x'Qx for a full bitstring. The solver uses incremental
// single-flip deltas instead; this is for initialization and verification.
func (q *QUBO) Energy(bits []uint8) float64 {
	var e float64
	for a := 0; a < q.N; a++ {
		if bits[a] == 0 {
			continue
		}
		e += q.Q.At(a, a)
		for b := a + 1; b < q.N; b++ {
			if bits[b] != 0 {
				e += 2 * q.Q.At(a, b)
			}
		}
	}
	return e
}

// flipDelta returns the energy change of flipping variable a given the
// current bitstring. O(N) using the matrix row, not a full recompute.
func (q *QUBO) flipDelta(bits []uint8, a int) float64 {
	field := q.Q.At(a, a)
	for b := 0; b < q.N; b++ {
		if b != a && bits[b] != 0 {
			field += 2 * q.Q.At(a, b)
		}
	}
	if bits[a] != 0 {
		return -field
	}
	return field
}
