// Package classification assigns skill classes from shooting history. The rule itself is a
// Policy so that governing-body specific formulas can replace the defaults.
package classification

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Dosada05/clay-tournament/models"
)

const (
	PolicyThreshold  = "threshold"
	PolicyPercentile = "percentile"
	PolicyRandom     = "random"
)

var ErrUnknownPolicy = errors.New("unknown classification policy")

// Policy maps an athlete's finalized history on a scale to one of the scale's classes.
type Policy interface {
	Name() string
	Classify(scale Scale, history models.AthleteTotals, population []models.AthleteTotals) string
}

// PopulationAware is implemented by policies that rank an athlete against everyone else with
// history on the same scale. Policies that do not implement it receive a nil population.
type PopulationAware interface {
	NeedsPopulation() bool
}

// New builds a policy by name. seed only affects the random policy.
func New(name string, minTargets int, seed uint64) (Policy, error) {
	switch name {
	case PolicyThreshold, "":
		return NewThresholdPolicy(minTargets, nil), nil
	case PolicyPercentile:
		return NewPercentilePolicy(minTargets), nil
	case PolicyRandom:
		return NewRandomPolicy(seed), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// DefaultCutoffs holds minimum hit ratios per class, aligned with Scale.Classes minus the lowest class.
var DefaultCutoffs = map[string][]float64{
	"NSCA": {0.80, 0.75, 0.70, 0.60, 0.45, 0.35},
	"ATA":  {0.96, 0.93, 0.89, 0.85},
	"NSSA": {0.985, 0.97, 0.95, 0.925, 0.895, 0.86},
}

type ThresholdPolicy struct {
	minTargets int
	cutoffs    map[string][]float64
}

// NewThresholdPolicy uses DefaultCutoffs for any body missing from cutoffs.
func NewThresholdPolicy(minTargets int, cutoffs map[string][]float64) *ThresholdPolicy {
	merged := make(map[string][]float64, len(DefaultCutoffs))
	for body, c := range DefaultCutoffs {
		merged[body] = c
	}
	for body, c := range cutoffs {
		merged[body] = c
	}
	return &ThresholdPolicy{minTargets: minTargets, cutoffs: merged}
}

func (p *ThresholdPolicy) Name() string { return PolicyThreshold }

func (p *ThresholdPolicy) Classify(scale Scale, history models.AthleteTotals, _ []models.AthleteTotals) string {
	if history.TargetsThrown == 0 || history.TargetsThrown < p.minTargets {
		return scale.Lowest()
	}
	ratio := float64(history.TargetsHit) / float64(history.TargetsThrown)
	for i, cutoff := range p.cutoffs[scale.Body] {
		if i >= len(scale.Classes)-1 {
			break
		}
		if ratio >= cutoff {
			return scale.Classes[i]
		}
	}
	return scale.Lowest()
}

// PercentilePolicy splits the qualified population into equal buckets, one per class, by hit ratio.
type PercentilePolicy struct {
	minTargets int
}

func NewPercentilePolicy(minTargets int) *PercentilePolicy {
	return &PercentilePolicy{minTargets: minTargets}
}

func (p *PercentilePolicy) Name() string          { return PolicyPercentile }
func (p *PercentilePolicy) NeedsPopulation() bool { return true }

func (p *PercentilePolicy) qualified(t models.AthleteTotals) bool {
	return t.TargetsThrown > 0 && t.TargetsThrown >= p.minTargets
}

func (p *PercentilePolicy) Classify(scale Scale, history models.AthleteTotals, population []models.AthleteTotals) string {
	if !p.qualified(history) {
		return scale.Lowest()
	}

	better, size := 0, 1
	for _, other := range population {
		if other.AthleteID == history.AthleteID || !p.qualified(other) {
			continue
		}
		size++
		if int64(other.TargetsHit)*int64(history.TargetsThrown) > int64(history.TargetsHit)*int64(other.TargetsThrown) {
			better++
		}
	}

	idx := better * len(scale.Classes) / size
	if idx >= len(scale.Classes) {
		idx = len(scale.Classes) - 1
	}
	return scale.Classes[idx]
}

// RandomPolicy picks a class uniformly at random. It exists to generate seed data and must not
// be used for real classification.
type RandomPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPolicy) Name() string { return PolicyRandom }

func (p *RandomPolicy) Classify(scale Scale, _ models.AthleteTotals, _ []models.AthleteTotals) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return scale.Classes[p.rng.IntN(len(scale.Classes))]
}
