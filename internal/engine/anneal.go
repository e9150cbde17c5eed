package engine

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"
)

const (
	// DefaultReads is the default number of independent annealing runs.
	// More reads trade latency for solution quality.
	DefaultReads = 50
	// DefaultSweeps is the default number of Monte Carlo sweeps per read.
	DefaultSweeps = 300
)

// AnnealConfig tunes the simulated-annealing solver. Zero values fall back
// to defaults; zero temperatures are derived from the matrix scale.
type AnnealConfig struct {
	Reads  int
	Sweeps int
	// InitialTemp and FinalTemp bound the geometric cooling schedule.
	InitialTemp float64
	FinalTemp   float64
	// Seed makes the whole solve reproducible when non-zero; each read
	// derives its own generator from it.
	Seed int64
	// Parallelism caps the worker pool over reads. Defaults to NumCPU.
	Parallelism int
}

func (c AnnealConfig) withDefaults(q *QUBO) AnnealConfig {
	if c.Reads <= 0 {
		c.Reads = DefaultReads
	}
	if c.Sweeps <= 0 {
		c.Sweeps = DefaultSweeps
	}
	if c.InitialTemp <= 0 || c.FinalTemp <= 0 {
		scale := maxAbsCoeff(q)
		if c.InitialTemp <= 0 {
			c.InitialTemp = scale
		}
		if c.FinalTemp <= 0 {
			c.FinalTemp = scale * 1e-3
		}
	}
	if c.FinalTemp > c.InitialTemp {
		c.FinalTemp = c.InitialTemp
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.Parallelism > c.Reads {
		c.Parallelism = c.Reads
	}
	return c
}

// Anneal searches the QUBO's binary space with multi-read simulated
// annealing and returns the lowest-energy bitstring seen. Reads are
// independent and run on a bounded worker pool; ties between reads break to
// the first found (lowest read index). The process is stochastic by design:
// results are only reproducible under a fixed Seed.
func Anneal(q *QUBO, cfg AnnealConfig) (Solution, error) {
	if q == nil || q.N == 0 {
		return Solution{}, &EmptyProblemError{}
	}
	cfg = cfg.withDefaults(q)

	baseSeed := cfg.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	type readResult struct {
		read   int
		bits   []uint8
		energy float64
	}

	reads := make(chan int)
	results := make(chan readResult, cfg.Reads)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Parallelism; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range reads {
				rng := rand.New(rand.NewSource(baseSeed + int64(r)*0x9E3779B9))
				bits, energy := runRead(q, cfg, rng, nil)
				results <- readResult{read: r, bits: bits, energy: energy}
			}
		}()
	}

	go func() {
		for r := 0; r < cfg.Reads; r++ {
			reads <- r
		}
		close(reads)
		wg.Wait()
		close(results)
	}()

	best := readResult{read: -1, energy: math.Inf(1)}
	for res := range results {
		if res.energy < best.energy ||
			(res.energy == best.energy && (best.read < 0 || res.read < best.read)) {
			best = res
		}
	}

	return Solution{Bits: best.bits, Energy: best.energy}, nil
}

// runRead performs one annealing read: random initial state, then Sweeps
// passes over the variables in per-sweep shuffled order with Metropolis
// acceptance under geometric cooling. trace, when non-nil, observes the
// best-so-far energy after every sweep.
func runRead(q *QUBO, cfg AnnealConfig, rng *rand.Rand, trace func(best float64)) ([]uint8, float64) {
	bits := make([]uint8, q.N)
	for i := range bits {
		bits[i] = uint8(rng.Intn(2))
	}
	energy := q.Energy(bits)

	bestBits := append([]uint8(nil), bits...)
	bestEnergy := energy

	// Geometric decay from InitialTemp to FinalTemp.
	ratio := 1.0
	if cfg.Sweeps > 1 {
		ratio = math.Pow(cfg.FinalTemp/cfg.InitialTemp, 1/float64(cfg.Sweeps-1))
	}

	order := make([]int, q.N)
	for i := range order {
		order[i] = i
	}

	temp := cfg.InitialTemp
	for sweep := 0; sweep < cfg.Sweeps; sweep++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, a := range order {
			delta := q.flipDelta(bits, a)
			if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
				bits[a] ^= 1
				energy += delta
				if energy < bestEnergy {
					bestEnergy = energy
					copy(bestBits, bits)
				}
			}
		}
		if trace != nil {
			trace(bestEnergy)
		}
		temp *= ratio
	}

	return bestBits, bestEnergy
}

func maxAbsCoeff(q *QUBO) float64 {
	var m float64
	for a := 0; a < q.N; a++ {
		for b := a; b < q.N; b++ {
			if v := math.Abs(q.Q.At(a, b)); v > m {
				m = v
			}
		}
	}
	if m == 0 {
		m = 1
	}
	return m
}
