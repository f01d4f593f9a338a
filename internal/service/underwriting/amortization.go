package underwriting

import "math"

// Installment computes the fixed monthly payment for an amortizing loan:
// P*r*(1+r)^n / ((1+r)^n - 1), with r the monthly rate. The result is
// rounded to the nearest whole unit.
func Installment(principal int64, annualRate float64, months int) int64 {
	if principal <= 0 || months <= 0 {
		return 0
	}
	r := annualRate / 12 / 100
	if r == 0 {
		return int64(math.Round(float64(principal) / float64(months)))
	}
	factor := math.Pow(1+r, float64(months))
	payment := float64(principal) * r * factor / (factor - 1)
	return int64(math.Round(payment))
}

// maxPrincipal inverts the installment formula: the largest principal whose
// payment at the given rate and tenure equals maxInstallment.
func maxPrincipal(maxInstallment, annualRate float64, months int) float64 {
	if maxInstallment <= 0 || months <= 0 {
		return 0
	}
	r := annualRate / 12 / 100
	if r == 0 {
		return maxInstallment * float64(months)
	}
	factor := math.Pow(1+r, float64(months))
	return maxInstallment * (factor - 1) / (r * factor)
}
