// Package underwriting turns a complete application into a deterministic
// approve/reject decision. The policy is an ordered rule chain: the first
// rule that produces an outcome wins, later rules never run, and the
// ordering is data, not control flow, so it can be inspected and tested on
// its own.
package underwriting

import (
	"fmt"

	"github.com/finpilot/loanflow/backend/internal/model/application"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
)

// Policy thresholds, in whole currency units where applicable.
const (
	MinMonthlySalary = 25_000
	MinCreditScore   = 650
	MaxDTIRatio      = 0.5

	// Affordability caps are floored to this granularity.
	capRounding = 10_000
	// Haircut factor for the conservative fallback approval.
	haircutFactor = 0.7
)

// Outcome is the full underwriting verdict. RiskScore is informational and
// identical regardless of which rule decided.
type Outcome struct {
	Decision           application.Decision `json:"decision"`
	Reason             string               `json:"reason"`
	ApprovedAmount     int64                `json:"approvedAmount,omitempty"`
	InterestRate       float64              `json:"interestRate,omitempty"`
	MonthlyInstallment int64                `json:"monthlyInstallment,omitempty"`
	RiskScore          int                  `json:"riskScore"`
}

// evalContext carries the working state threaded through the rule chain.
type evalContext struct {
	app     *application.Application
	product loan.Product
	rate    float64
}

// rule is one step of the policy: it may settle the decision by returning a
// non-nil outcome, or adjust the context and pass (rate assignment does the
// latter).
type rule struct {
	name  string
	apply func(*evalContext) *Outcome
}

// Engine evaluates applications against the fixed rule chain.
type Engine struct {
	rules []rule
}

// NewEngine builds the engine with the production rule ordering.
func NewEngine() *Engine {
	return &Engine{rules: []rule{
		{name: "income-floor", apply: incomeFloor},
		{name: "credit-floor", apply: creditFloor},
		{name: "rate-assignment", apply: assignRate},
		{name: "affordability-cap", apply: affordabilityCap},
		{name: "installment-recheck", apply: installmentRecheck},
		{name: "full-approval", apply: fullApproval},
	}}
}

// Evaluate runs the rule chain. It is pure and deterministic: same
// application and product in, byte-identical outcome out. The caller is
// responsible for only passing complete applications.
func (e *Engine) Evaluate(app *application.Application, product loan.Product) Outcome {
	ctx := &evalContext{app: app, product: product}
	var out Outcome
	for _, r := range e.rules {
		if result := r.apply(ctx); result != nil {
			out = *result
			break
		}
	}
	out.RiskScore = riskScore(app)
	return out
}

func incomeFloor(ctx *evalContext) *Outcome {
	if ctx.app.MonthlySalary >= MinMonthlySalary {
		return nil
	}
	return &Outcome{
		Decision: application.DecisionRejected,
		Reason: fmt.Sprintf("Monthly income of %d is below our minimum of %d.",
			ctx.app.MonthlySalary, MinMonthlySalary),
	}
}

func creditFloor(ctx *evalContext) *Outcome {
	if ctx.app.CreditScore >= MinCreditScore {
		return nil
	}
	return &Outcome{
		Decision: application.DecisionRejected,
		Reason: fmt.Sprintf("Credit score %d is below our minimum of %d. "+
			"Clearing outstanding dues and reapplying after a few months usually helps.",
			ctx.app.CreditScore, MinCreditScore),
	}
}

// assignRate sets the personalized annual rate and lets evaluation continue.
func assignRate(ctx *evalContext) *Outcome {
	adjustment := 2.0
	switch score := ctx.app.CreditScore; {
	case score >= 750:
		adjustment = 0
	case score >= 700:
		adjustment = 0.5
	case score >= MinCreditScore:
		adjustment = 1.0
	}
	ctx.rate = ctx.product.BaseRate + adjustment
	return nil
}

// affordabilityCap approves a reduced principal when the requested amount's
// installment would push debt service past MaxDTIRatio of income.
func affordabilityCap(ctx *evalContext) *Outcome {
	app := ctx.app
	maxInstallment := float64(app.MonthlySalary) * MaxDTIRatio
	cap := maxPrincipal(maxInstallment, ctx.rate, app.TenureMonths)
	capped := (int64(cap) / capRounding) * capRounding
	if app.RequestedAmount <= capped {
		return nil
	}
	return &Outcome{
		Decision: application.DecisionApproved,
		Reason: fmt.Sprintf("Approved for %d instead of the requested %d to keep "+
			"your installment within half of your monthly income.",
			capped, app.RequestedAmount),
		ApprovedAmount:     capped,
		InterestRate:       ctx.rate,
		MonthlyInstallment: Installment(capped, ctx.rate, app.TenureMonths),
	}
}

// installmentRecheck guards the rounding edge where the requested amount sits
// inside the cap but its own installment still breaches the ratio. The
// fallback approval takes a deliberately harsher haircut than the cap.
func installmentRecheck(ctx *evalContext) *Outcome {
	app := ctx.app
	installment := Installment(app.RequestedAmount, ctx.rate, app.TenureMonths)
	if float64(installment) <= float64(app.MonthlySalary)*MaxDTIRatio {
		return nil
	}
	reduced := int64(float64(app.MonthlySalary) * MaxDTIRatio * float64(app.TenureMonths) * haircutFactor)
	return &Outcome{
		Decision: application.DecisionApproved,
		Reason: fmt.Sprintf("Approved for a reduced amount of %d so the "+
			"installment stays affordable on your income.", reduced),
		ApprovedAmount:     reduced,
		InterestRate:       ctx.rate,
		MonthlyInstallment: Installment(reduced, ctx.rate, app.TenureMonths),
	}
}

func fullApproval(ctx *evalContext) *Outcome {
	app := ctx.app
	return &Outcome{
		Decision:           application.DecisionApproved,
		Reason:             fmt.Sprintf("Approved for the full requested amount of %d.", app.RequestedAmount),
		ApprovedAmount:     app.RequestedAmount,
		InterestRate:       ctx.rate,
		MonthlyInstallment: Installment(app.RequestedAmount, ctx.rate, app.TenureMonths),
	}
}
