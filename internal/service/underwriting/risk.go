package underwriting

import "github.com/finpilot/loanflow/backend/internal/model/application"

// riskScore grades the application 0-100 from four weighted components:
// credit tier (0-40), salary tier (0-30), employment stability (12 or 20)
// and loan-to-annual-income ratio (0-10). It is informational output only
// and never feeds back into the decision rules.
func riskScore(app *application.Application) int {
	return creditComponent(app.CreditScore) +
		salaryComponent(app.MonthlySalary) +
		employmentComponent(app.EmploymentType) +
		leverageComponent(app.RequestedAmount, app.MonthlySalary)
}

func creditComponent(score int) int {
	switch {
	case score >= 800:
		return 40
	case score >= 750:
		return 34
	case score >= 700:
		return 26
	case score >= 650:
		return 18
	default:
		return 8
	}
}

func salaryComponent(salary int64) int {
	switch {
	case salary >= 150_000:
		return 30
	case salary >= 100_000:
		return 26
	case salary >= 75_000:
		return 22
	case salary >= 50_000:
		return 16
	case salary >= 25_000:
		return 10
	default:
		return 4
	}
}

func employmentComponent(kind application.EmploymentType) int {
	if kind == application.EmploymentSalaried {
		return 20
	}
	return 12
}

func leverageComponent(requested, salary int64) int {
	if salary <= 0 {
		return 0
	}
	ratio := float64(requested) / (float64(salary) * 12)
	switch {
	case ratio <= 0.5:
		return 10
	case ratio <= 1:
		return 8
	case ratio <= 2:
		return 5
	case ratio <= 4:
		return 2
	default:
		return 0
	}
}
