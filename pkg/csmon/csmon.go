// Package csmon implements CSMOn, a curve-fit convergence and stagnation
// detector that drives a search.Search for one bounded TH iteration,
// stopping as soon as its improvement curve flattens into first an
// exponential and then a power-law decay, or its evaluation budget runs
// out.
//
// Reference: Perroni, Weingaertner, Delgado. "Estimating stop conditions
// of swarm based stochastic metaheuristic algorithms." GECCO 2017.
package csmon

import (
	"math"

	"github.com/th-cooperative/treasurehunt/pkg/search"
)

// point pairs a cumulative evaluation count with the best fitness
// observed at that point.
type point struct {
	x int
	y float64
}

// CSMOn implements search.ConvergenceControlPolicy.
type CSMOn struct {
	budget          int
	r               float64
	minEstimatedFit float64

	gb []point
	s  int
}

// New builds a CSMOn policy with an evaluation budget of m, a relaxation
// factor r in (0, 1) (larger values stop sooner), and the problem's
// minimum estimated fitness value, used as the decay calculations'
// asymptote.
func New(m int, r float64, minEstimatedFit float64) *CSMOn {
	return &CSMOn{budget: m, r: r, minEstimatedFit: minEstimatedFit, s: -1}
}

// BudgetSize implements search.ConvergenceControlPolicy.
func (c *CSMOn) BudgetSize() int { return c.budget }

// Run implements search.ConvergenceControlPolicy.
func (c *CSMOn) Run(s search.Search) {
	c.s = -1
	c.gb = c.gb[:0]
	s.Startup()

	pT, pS := -1, -1
	r := 0.99
	c.getBest(s, 1)
	for {
		r = math.Max(r*r, c.r)
		if pS == -1 {
			pT = c.adjustExp(s, r)
		}
		if pT > 0 {
			pS = c.adjustLog(s, r, pT)
		}
		if !(s.CurrentNEvals() < c.budget && (r > c.r || pS == -1) && !s.IsStuck()) {
			break
		}
	}

	s.Finalize()
}

// adjustExp looks for the point where the best-fitness curve's
// exponential-regime improvement rate (alphaE) stops increasing,
// returning that point's index, or -1 if the budget ran out, the search
// got stuck, or too few points were gathered to judge.
func (c *CSMOn) adjustExp(s search.Search, r float64) int {
	sPrev := c.s
	c.getBest(s, 2)
	if c.s-sPrev < 2 {
		return -1
	}

	pB := -1
	var alpha1, alpha2 float64
	for s.CurrentNEvals() < c.budget && !s.IsStuck() {
		if c.decayE() < r && c.decayL() < r {
			if pB == -1 {
				pB = c.s - 2
				alpha2 = c.alphaE(pB, c.s)
			} else {
				alpha1 = alpha2
				alpha2 = c.alphaE(pB, c.s)
				if alpha2 < alpha1 {
					return c.s
				}
			}
		} else {
			pB = -1
		}
		c.getBest(s, 1)
	}
	return -1
}

// adjustLog continues from the point pT where the exponential regime
// ended, watching the power-law improvement rate (alphaP) for the same
// flattening, returning the point where it is detected, or -1 on decay
// overrun, budget exhaustion, or a stuck search.
func (c *CSMOn) adjustLog(s search.Search, r float64, pT int) int {
	sPrev := c.s
	c.getBest(s, 3)
	if c.s-sPrev < 3 {
		return -1
	}

	alpha1 := c.alphaP(pT, c.s-1)
	alpha2 := c.alphaP(pT, c.s)
	for alpha2 >= alpha1 && s.CurrentNEvals() < c.budget && !s.IsStuck() {
		if c.decayE() >= r || c.decayL() >= r {
			return -1
		}
		c.getBest(s, 1)
		alpha1 = alpha2
		alpha2 = c.alphaP(pT, c.s)
	}
	return c.s
}

// getBest calls s.Next up to nBest times (stopping early on budget
// exhaustion or stagnation), recording the cumulative evaluation count
// and resulting best fitness after each call.
func (c *CSMOn) getBest(s search.Search, nBest int) {
	for i := 0; i < nBest && s.CurrentNEvals() < c.budget && !s.IsStuck(); i++ {
		s.Next(c.budget)
		c.gb = append(c.gb, point{x: s.CurrentNEvals(), y: s.BestFitness().FirstValue()})
		c.s++
	}
}

// decayE measures the relative change in improvement over the best
// estimated fitness between the two most recent points.
func (c *CSMOn) decayE() float64 {
	return math.Abs(1 - (c.gb[c.s].y-c.minEstimatedFit)/(c.gb[c.s-1].y-c.minEstimatedFit))
}

// decayL measures the relative change in the raw improvement delta
// across the three most recent points.
func (c *CSMOn) decayL() float64 {
	return math.Abs(1 - (c.gb[c.s].y-c.gb[c.s-1].y)/(c.gb[c.s-1].y-c.gb[c.s-2].y))
}

// alphaE returns the intercept of the ordinary-least-squares line
// fitted to (x, ln y) over points [p1, p2], i.e. the exponential-regime
// decay rate.
func (c *CSMOn) alphaE(p1, p2 int) float64 {
	n := float64(p2 - p1 + 1)
	var yAvg, ySumLn, xSum, s1, s2 float64
	for i := p1; i <= p2; i++ {
		xSum += float64(c.gb[i].x)
		yAvg += c.gb[i].y
		ySumLn += math.Log(c.gb[i].y)
	}
	xAvg := xSum / n
	yAvgLn := ySumLn / n
	for i := p1; i <= p2; i++ {
		aux := float64(c.gb[i].x) - xAvg
		s1 += aux * (math.Log(c.gb[i].y) - yAvgLn)
		s2 += aux * aux
	}
	return (ySumLn - (s1/s2)*xSum) / n
}

// alphaP returns the intercept of the ordinary-least-squares line
// fitted to (log10 x, log10 y) over points [p1, p2], i.e. the
// power-law-regime decay rate.
func (c *CSMOn) alphaP(p1, p2 int) float64 {
	n := float64(p2 - p1 + 1)
	var xSumLog, ySumLog, s1, s2 float64
	for i := p1; i <= p2; i++ {
		xSumLog += math.Log10(float64(c.gb[i].x))
		ySumLog += math.Log10(c.gb[i].y)
	}
	xAvgLog := xSumLog / n
	yAvgLog := ySumLog / n
	for i := p1; i <= p2; i++ {
		aux := math.Log10(float64(c.gb[i].x)) - xAvgLog
		s1 += aux * (math.Log10(c.gb[i].y) - yAvgLog)
		s2 += aux * aux
	}
	return (ySumLog - (s1/s2)*xSumLog) / n
}
