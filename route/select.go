package route

import (
	"fmt"

	"zephyra.io/zephyra/fault"
)

// Score rates one candidate: higher output is better, lower risk is better.
//
// Score = estimated_output * (100 - risk_score) / 100. This single rule is
// applied uniformly wherever candidates are compared.
func Score(o Option) uint64 {
	return o.EstimatedOutput * uint64(100-o.RiskScore) / 100
}

// SelectBest picks the highest-scoring candidate. Ties keep the first-seen
// candidate in input order; the input is never resorted.
func SelectBest(options []Option) (Selection, error) {
	if len(options) == 0 {
		return Selection{}, fault.New(fault.KindBound, "ZX-ROUTE-001", "no route options provided")
	}
	if len(options) > MaxOptions {
		return Selection{}, fault.New(fault.KindCapacity, "ZX-ROUTE-002",
			fmt.Sprintf("%d route options exceeds limit of %d", len(options), MaxOptions))
	}
	for _, o := range options {
		if o.RiskScore > 100 {
			return Selection{}, fault.New(fault.KindBound, "ZX-ROUTE-003",
				fmt.Sprintf("risk score %d exceeds 100", o.RiskScore))
		}
	}

	best := options[0]
	bestScore := Score(best)
	for _, o := range options[1:] {
		if s := Score(o); s > bestScore {
			best = o
			bestScore = s
		}
	}

	return Selection{
		Venue:           best.Venue,
		EstimatedOutput: best.EstimatedOutput,
		Reasoning: fmt.Sprintf("Selected %s due to optimal risk (%d) and output amount (%d)",
			best.Venue, best.RiskScore, best.EstimatedOutput),
	}, nil
}

// PriceImpact computes the basis-point loss between input and output,
// clamped to [0, 10000]. Zero input is defined as zero impact.
func PriceImpact(inputAmount, outputAmount uint64) uint16 {
	if inputAmount == 0 {
		return 0
	}
	if outputAmount >= inputAmount {
		return 0
	}
	impact := (inputAmount - outputAmount) * 10000 / inputAmount
	if impact > 10000 {
		impact = 10000
	}
	return uint16(impact)
}
