package classification

import (
	"errors"
	"slices"
	"testing"

	"github.com/Dosada05/clay-tournament/models"
)

func totals(id, thrown, hit int) models.AthleteTotals {
	return models.AthleteTotals{AthleteID: id, TargetsThrown: thrown, TargetsHit: hit}
}

func TestThresholdPolicy(t *testing.T) {
	ata, _ := Lookup("ata")
	p := NewThresholdPolicy(100, nil)

	tests := []struct {
		name    string
		history models.AthleteTotals
		want    string
	}{
		{name: "insufficient history", history: totals(1, 50, 50), want: "D"},
		{name: "no history", history: totals(1, 0, 0), want: "D"},
		{name: "top class", history: totals(1, 200, 194), want: "AA"},
		{name: "exact cutoff", history: totals(1, 100, 93), want: "A"},
		{name: "just below cutoff", history: totals(1, 1000, 889), want: "C"},
		{name: "lowest", history: totals(1, 200, 100), want: "D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Classify(ata, tt.history, nil); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestThresholdPolicyCustomCutoffs(t *testing.T) {
	nssa, _ := Lookup("NSSA")
	p := NewThresholdPolicy(0, map[string][]float64{"NSSA": {0.9, 0.8, 0.7, 0.6, 0.5, 0.4}})
	if got := p.Classify(nssa, totals(1, 100, 75), nil); got != "A" {
		t.Fatalf("expected A, got %s", got)
	}
}

func TestPercentilePolicy(t *testing.T) {
	nsca, _ := Lookup("NSCA")
	p := NewPercentilePolicy(10)

	population := make([]models.AthleteTotals, 0, 14)
	for i := 1; i <= 14; i++ {
		// Athlete 1 is best, athlete 14 worst.
		population = append(population, totals(i, 100, 100-i))
	}
	population = append(population, totals(99, 5, 5))

	tests := []struct {
		athlete models.AthleteTotals
		want    string
	}{
		{athlete: population[0], want: "Master"},
		{athlete: population[1], want: "Master"},
		{athlete: population[2], want: "AA"},
		{athlete: population[7], want: "B"},
		{athlete: population[13], want: "E"},
		{athlete: totals(99, 5, 5), want: "E"},
	}
	for _, tt := range tests {
		if got := p.Classify(nsca, tt.athlete, population); got != tt.want {
			t.Fatalf("athlete %d: expected %s, got %s", tt.athlete.AthleteID, tt.want, got)
		}
	}
}

func TestPercentilePolicyAloneIsTopClass(t *testing.T) {
	skeet, _ := Lookup("nssa")
	p := NewPercentilePolicy(0)
	if got := p.Classify(skeet, totals(1, 25, 10), nil); got != "AAA" {
		t.Fatalf("expected AAA, got %s", got)
	}
}

func TestRandomPolicyIsSeeded(t *testing.T) {
	scale, _ := Lookup("NSCA")
	a, b := NewRandomPolicy(7), NewRandomPolicy(7)
	for i := 0; i < 20; i++ {
		ga := a.Classify(scale, models.AthleteTotals{}, nil)
		gb := b.Classify(scale, models.AthleteTotals{}, nil)
		if ga != gb {
			t.Fatalf("draw %d: expected identical sequences, got %s and %s", i, ga, gb)
		}
		if !slices.Contains(scale.Classes, ga) {
			t.Fatalf("class %q not on scale", ga)
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{PolicyThreshold, PolicyPercentile, PolicyRandom} {
		p, err := New(name, 50, 1)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if p.Name() != name {
			t.Fatalf("expected policy %s, got %s", name, p.Name())
		}
	}
	if _, err := New("coin-flip", 0, 0); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("FITASC"); ok {
		t.Fatal("expected unknown body")
	}
	s, ok := Lookup(" nsca ")
	if !ok || s.Lowest() != "E" {
		t.Fatalf("expected NSCA scale with lowest E, got %+v", s)
	}
	if got := len(Scales()); got != 3 {
		t.Fatalf("expected 3 scales, got %d", got)
	}
}
