package engine

import (
	"errors"
	"math"
	"testing"
)

func TestDecodeNormalizes(t *testing.T) {
	universe := AssetUniverse{"AAA", "BBB"}
	// AAA: 3 of 4 slices on, BBB: 1 of 4
	sol := Solution{Bits: []uint8{1, 1, 1, 0, 0, 1, 0, 0}}
	alloc, rawSum, err := Decode(sol, universe, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(rawSum-1.0) > 1e-12 {
		t.Fatalf("expected raw sum 1.0, got %g", rawSum)
	}
	if math.Abs(alloc["AAA"]-0.75) > 1e-12 || math.Abs(alloc["BBB"]-0.25) > 1e-12 {
		t.Fatalf("unexpected allocation %v", alloc)
	}
}

func TestDecodeRepairsBudget(t *testing.T) {
	universe := AssetUniverse{"AAA", "BBB"}
	// raw weights 0.5 and 1.0: sum 1.5, must renormalize
	sol := Solution{Bits: []uint8{1, 0, 1, 1}}
	alloc, rawSum, err := Decode(sol, universe, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(rawSum-1.5) > 1e-12 {
		t.Fatalf("expected raw sum 1.5, got %g", rawSum)
	}
	var sum float64
	for _, w := range alloc {
		sum += w
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("weights sum to %g, want 1", sum)
	}
	if math.Abs(alloc["BBB"]-2.0/3.0) > 1e-12 {
		t.Fatalf("unexpected BBB weight %g", alloc["BBB"])
	}
}

func TestDecodeRetainsZeroWeights(t *testing.T) {
	universe := AssetUniverse{"AAA", "BBB", "CCC"}
	sol := Solution{Bits: []uint8{1, 1, 0, 0, 0, 0}}
	alloc, _, err := Decode(sol, universe, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alloc) != 3 {
		t.Fatalf("expected all assets present, got %v", alloc)
	}
	if alloc["BBB"] != 0 || alloc["CCC"] != 0 {
		t.Fatalf("expected zero weights retained, got %v", alloc)
	}
}

func TestDecodeAllZeroDegenerate(t *testing.T) {
	sol := Solution{Bits: make([]uint8, 8), Energy: -1.25}
	_, _, err := Decode(sol, AssetUniverse{"AAA", "BBB"}, 4)
	var dse *DegenerateSolutionError
	if !errors.As(err, &dse) {
		t.Fatalf("expected DegenerateSolutionError, got %v", err)
	}
	if dse.Energy != -1.25 {
		t.Fatalf("expected energy carried through, got %g", dse.Energy)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	alloc := Allocation{"AAA": 2, "BBB": 2}
	once := Normalize(alloc)
	twice := Normalize(once)
	for k := range once {
		if math.Abs(once[k]-twice[k]) > 1e-15 {
			t.Fatalf("normalize not idempotent for %s: %g vs %g", k, once[k], twice[k])
		}
	}
	if math.Abs(once["AAA"]-0.5) > 1e-15 {
		t.Fatalf("unexpected weight %g", once["AAA"])
	}
}

func TestNormalizeZeroSum(t *testing.T) {
	alloc := Allocation{"AAA": 0, "BBB": 0}
	out := Normalize(alloc)
	if out["AAA"] != 0 || out["BBB"] != 0 {
		t.Fatalf("expected zero allocation unchanged, got %v", out)
	}
}
