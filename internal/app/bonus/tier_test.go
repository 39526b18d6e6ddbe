package bonus

import "testing"

func TestCompute(t *testing.T) {
	tests := []struct {
		credited int64
		want     int64
	}{
		{50, 0},
		{99, 0},
		{100, 5},
		{199, 9},
		{200, 15},
		{499, 37},
		{500, 50},
		{999, 99},
		{1000, 120},
		{1999, 239},
		{2000, 300},
		{2001, 300},
		{0, 0},
		{-10, 0},
	}

	for _, tt := range tests {
		if got := Compute(tt.credited); got != tt.want {
			t.Errorf("Compute(%d): expected %d, got %d", tt.credited, tt.want, got)
		}
	}
}

func TestRate(t *testing.T) {
	if got := Rate(200).String(); got != "0.075" {
		t.Fatalf("expected 0.075, got %s", got)
	}
	if !Rate(99).IsZero() {
		t.Fatalf("expected zero rate below lowest tier")
	}
}

func TestTiers_ReturnsCopy(t *testing.T) {
	tt := Tiers()
	tt[0].Threshold = 1
	if Tiers()[0].Threshold != 2000 {
		t.Fatal("tier table mutated through returned slice")
	}
}
