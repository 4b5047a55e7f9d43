package portal

import "semisto-service/internal/models"

// Allocation is the outcome of applying a contribution to a proposal
type Allocation struct {
	Requested int64
	Applied   int64
	Raised    int64
	Target    int64
}

// Funded reports whether the proposal reached its target
func (a Allocation) Funded() bool {
	return a.Raised >= a.Target
}

// Allocate adds amount to raised without ever passing target. Negative
// amounts apply nothing.
func Allocate(target, raised, amount int64) Allocation {
	a := Allocation{Requested: amount, Raised: raised, Target: target}
	if amount <= 0 || raised >= target {
		return a
	}

	applied := amount
	if remaining := target - raised; applied > remaining {
		applied = remaining
	}

	a.Applied = applied
	a.Raised = raised + applied
	return a
}

// Percent is the raised share rounded down, capped at 100
func Percent(target, raised int64) int {
	if target <= 0 {
		return 0
	}
	p := raised * 100 / target
	if p > 100 {
		p = 100
	}
	return int(p)
}

// ApplyProgress overlays persisted progress on a proposal and derives its
// status. Closed proposals keep their status.
func ApplyProgress(p models.FundingProposal, raised int64) models.FundingProposal {
	if raised > p.TargetAmount {
		raised = p.TargetAmount
	}
	p.RaisedAmount = raised
	p.RaisedPercent = Percent(p.TargetAmount, raised)

	switch {
	case p.Status == models.ProposalStatusClosed:
	case raised >= p.TargetAmount:
		p.Status = models.ProposalStatusFunded
	case raised > 0 && p.Status == models.ProposalStatusNew:
		p.Status = models.ProposalStatusOpen
	}
	return p
}
