// Package relocation implements RelocationStrategyPolicy, the pluggable
// rule that repositions a node's population every TH iteration, and its
// default Beta-distribution strategy with optional Iterative
// Partitioning (IP) attraction scheduling.
//
// Reference: Perroni, Weingaertner, Delgado. "Automated iterative
// partitioning for cooperatively coevolving particle swarms in large
// scale optimization." BRACIS 2015.
package relocation

import (
	"github.com/th-cooperative/treasurehunt/pkg/iterdata"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
)

// Data carries the shared iteration snapshot plus the Beta-strategy
// parameters every Policy implementation in this package reads from.
type Data struct {
	iterationData *iterdata.IterationData

	betaStartingPerc      float64
	betaMax               float64
	displacementRate      float64
	betaAccelerationCoef  float64
}

// NewData builds relocation Data with the given Beta-strategy
// parameters; the default configuration (per the engine builder) is
// betaStartingPerc=0.99, betaMax=1, betaAccelerationCoef=1.
func NewData(betaStartingPerc, betaMax, betaAccelerationCoef float64) *Data {
	return &Data{
		betaStartingPerc:     betaStartingPerc,
		betaMax:              betaMax,
		betaAccelerationCoef: betaAccelerationCoef,
	}
}

// IterationData returns the tracked iteration snapshot.
func (d *Data) IterationData() *iterdata.IterationData { return d.iterationData }

// SetIterationData installs the iteration snapshot this Data reads
// progress from.
func (d *Data) SetIterationData(data *iterdata.IterationData) { d.iterationData = data }

// BetaStartingPerc returns the configured starting percentage.
func (d *Data) BetaStartingPerc() float64 { return d.betaStartingPerc }

// BetaMax returns the configured maximum Beta-distribution shape value.
func (d *Data) BetaMax() float64 { return d.betaMax }

// DisplacementRate returns the most recently computed displacement
// rate.
func (d *Data) DisplacementRate() float64 { return d.displacementRate }

// SetDisplacementRate records the displacement rate computed for the
// current iteration.
func (d *Data) SetDisplacementRate(rate float64) { d.displacementRate = rate }

// BetaAccelerationCoef returns the configured acceleration exponent.
func (d *Data) BetaAccelerationCoef() float64 { return d.betaAccelerationCoef }

// Policy repositions a node's population within region every TH
// iteration.
type Policy interface {
	Apply(data *Data, region *thmath.Region, population []*thmath.Solution)
}
