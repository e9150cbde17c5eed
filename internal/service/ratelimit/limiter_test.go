package ratelimit

import "testing"

func TestAllowWithinCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		if !l.Allow("k", 5, 1) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("k", 5, 1) {
		t.Fatalf("expected bucket exhausted")
	}
}

func TestAllowIndependentKeys(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		l.Allow("a", 3, 1)
	}
	if l.Allow("a", 3, 1) {
		t.Fatalf("key a should be exhausted")
	}
	if !l.Allow("b", 3, 1) {
		t.Fatalf("key b should be fresh")
	}
}
