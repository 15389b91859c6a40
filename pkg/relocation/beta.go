package relocation

import (
	"math"

	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thrand"
)

// displacementType selects how BetaPolicy computes its displacement
// rate each iteration.
type displacementType int

const (
	linearDisplacement displacementType = iota
	ipDisplacement
)

// boostCurve is an Iterative Partitioning decay curve shape.
type boostCurve byte

const (
	// BoostLinear decays the attraction coefficient linearly with step.
	BoostLinear boostCurve = 'L'
	// BoostSigmoid decays it along a logistic curve.
	BoostSigmoid boostCurve = 'S'
	// BoostExponential decays it exponentially.
	BoostExponential boostCurve = 'E'
)

func evalBoostCurve(curve boostCurve, br, step float64) float64 {
	var v float64
	switch curve {
	case BoostLinear:
		v = -br*step + br
	case BoostSigmoid:
		v = br / (1.0 + math.Exp(12*br*step-6*br))
	default: // BoostExponential
		v = br / math.Exp(12*br*step)
	}
	return math.Min(v, 1.0)
}

// BetaPolicy relocates every population member toward a Beta-quantile
// blend with the node's parent-best Solution, anchored to the node's
// sub-region. Its displacement rate is either the plain fraction of the
// run's budget already spent (Linear mode), or an Iterative
// Partitioning schedule that decays an attraction coefficient whenever
// the general best stops improving and periodically resets it from a
// boost curve (IP mode).
type BetaPolicy struct {
	rng *thrand.Source

	displacement displacementType
	boostType    boostCurve
	boostInc     float64
	maxTries     int

	k, maxK         float64
	nTries          int
	prevBestFitness float64
	firstPass       bool
}

// BetaOption configures a BetaPolicy at construction.
type BetaOption func(*BetaPolicy)

// WithIPDisplacement switches the policy to Iterative Partitioning
// mode, decaying the attraction coefficient along curve with boostInc
// as the curve's coefficient, and tolerating maxTries consecutive
// near-stagnant resets before reseeding it from the current step.
func WithIPDisplacement(curve boostCurve, boostInc float64, maxTries int) BetaOption {
	return func(p *BetaPolicy) {
		p.displacement = ipDisplacement
		p.boostType = curve
		p.boostInc = boostInc
		p.maxTries = maxTries
	}
}

// WithLinearDisplacement keeps the policy in its default mode: the
// displacement rate tracks the fraction of the configured budget spent
// so far.
func WithLinearDisplacement() BetaOption {
	return func(p *BetaPolicy) { p.displacement = linearDisplacement }
}

// NewBetaPolicy builds a BetaPolicy in Linear displacement mode unless
// overridden by an option.
func NewBetaPolicy(opts ...BetaOption) *BetaPolicy {
	p := &BetaPolicy{
		rng:          thrand.NewSource(0),
		displacement: linearDisplacement,
		boostType:    BoostExponential,
		boostInc:     1,
		maxTries:     3,
		k:            -1,
		firstPass:    true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply implements Policy.
func (p *BetaPolicy) Apply(data *Data, region *thmath.Region, population []*thmath.Solution) {
	if data == nil || region == nil || len(population) == 0 {
		panic("relocation: all parameters for the relocation strategy must be provided")
	}

	it := data.IterationData()

	var displacementRate float64
	if p.displacement == linearDisplacement {
		displacementRate = it.PercentageRuntime()
	} else {
		bestFit := it.GeneralBest().Fitness().FirstValue()
		displacementRate = p.attraction(it.PercentageRuntime(), bestFit, p.prevBestFitnessFor(bestFit))
	}
	data.SetDisplacementRate(displacementRate)

	betaProb := data.BetaStartingPerc() * data.BetaMax() *
		math.Pow(math.Max(data.DisplacementRate(), 1e-5), data.BetaAccelerationCoef())
	alpha := data.BetaMax() - betaProb
	beta := betaProb

	parentBest := it.ParentBest()
	n := population[0].NDimensions()
	for _, sol := range population {
		sol.Reset(region, nil)
		for j := 0; j < n; j++ {
			dim := region.OriginalDimension(j)
			pos := sol.Position(j)

			tmp := pos.Clone()
			tmp.SubPosition(parentBest.Position(j))
			tmp.Mult(thrand.BetaQuantile(p.rng.Float64(), alpha, beta))

			pos.SubPosition(tmp)
			pos.AdjustUpperBound(dim.EndPoint)
			pos.AdjustLowerBound(dim.StartPoint)
		}
	}
}

// prevBestFitnessFor latches bestFit as the baseline on the very first
// call, mirroring the original's first-pass short-circuit, and updates
// the baseline to bestFit on every subsequent call before returning the
// previous baseline.
func (p *BetaPolicy) prevBestFitnessFor(bestFit float64) float64 {
	prev := p.prevBestFitness
	if p.firstPass {
		p.firstPass = false
		prev = bestFit
	}
	p.prevBestFitness = bestFit
	return prev
}

// attraction implements the Iterative Partitioning attraction-
// coefficient schedule: K starts at the boost curve's value at step 0,
// decays by maxK/maxTries on every near-stagnant iteration, and resets
// to a fresh boost-curve evaluation once decayed past its floor (from
// the current step after maxTries consecutive near-stagnant resets,
// from step 0 otherwise).
func (p *BetaPolicy) attraction(step, currGb, prevGb float64) float64 {
	kr := 1.0 / float64(p.maxTries)
	switch {
	case p.k <= 0:
		p.maxK = evalBoostCurve(p.boostType, p.boostInc, 0)
		p.k = p.maxK
	case 1-currGb/prevGb < 5e-5:
		if int(p.k*1e4) <= int(p.maxK*kr*1e4) {
			p.nTries++
			if p.nTries == p.maxTries {
				p.maxK = evalBoostCurve(p.boostType, p.boostInc, step)
				p.nTries = 0
			} else {
				p.maxK = evalBoostCurve(p.boostType, p.boostInc, 0)
			}
			p.k = p.maxK
		} else {
			p.k = p.k - p.maxK*kr
		}
		if p.k < 1e-30 {
			return p.attraction(step, currGb, prevGb)
		}
	default:
		p.nTries = 0
	}
	return p.k
}
