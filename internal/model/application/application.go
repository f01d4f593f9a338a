package application

import "time"

// EmploymentType classifies how the applicant earns their income.
type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "salaried"
	EmploymentSelfEmployed EmploymentType = "self-employed"
)

// Decision is the terminal underwriting verdict for an application.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Application is the data bag collected over one conversation. Fields start
// empty and are filled incrementally; once set they are never cleared except
// by a full session reset.
type Application struct {
	ID        string    `json:"applicationId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	LoanTypeID      string `json:"loanType,omitempty"`
	LoanTypeName    string `json:"loanTypeName,omitempty"`
	RequestedAmount int64  `json:"requestedAmount,omitempty"`
	TenureMonths    int    `json:"tenureMonths,omitempty"`

	FullName    string `json:"fullName,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	TaxID       string `json:"taxId,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`

	EmploymentType EmploymentType `json:"employmentType,omitempty"`
	Employer       string         `json:"employer,omitempty"`
	MonthlySalary  int64          `json:"monthlySalary,omitempty"`
	YearsEmployed  float64        `json:"yearsEmployed,omitempty"`

	CreditScore      int  `json:"creditScore,omitempty"`
	IdentityVerified bool `json:"identityVerified,omitempty"`

	Decision           Decision `json:"decision,omitempty"`
	DecisionReason     string   `json:"decisionReason,omitempty"`
	ApprovedAmount     int64    `json:"approvedAmount,omitempty"`
	InterestRate       float64  `json:"interestRate,omitempty"`
	MonthlyInstallment int64    `json:"monthlyInstallment,omitempty"`
	RiskScore          int      `json:"riskScore,omitempty"`
}

// Patch describes field updates produced by one conversation turn. Nil fields
// are left untouched; Apply never clears a value that is already set.
type Patch struct {
	LoanTypeID      *string
	LoanTypeName    *string
	RequestedAmount *int64
	TenureMonths    *int

	FullName    *string
	Email       *string
	Phone       *string
	TaxID       *string
	DateOfBirth *string

	EmploymentType *EmploymentType
	Employer       *string
	MonthlySalary  *int64
	YearsEmployed  *float64

	CreditScore      *int
	IdentityVerified *bool
}

// IsZero reports whether the patch carries no updates at all.
func (p Patch) IsZero() bool {
	return p == Patch{}
}

// Apply copies the patch onto the application. Set fields win over empty ones
// but an existing value is never overwritten, which keeps identity back-fill
// from clobbering what the applicant already told us.
func (a *Application) Apply(p Patch) {
	if p.LoanTypeID != nil && a.LoanTypeID == "" {
		a.LoanTypeID = *p.LoanTypeID
	}
	if p.LoanTypeName != nil && a.LoanTypeName == "" {
		a.LoanTypeName = *p.LoanTypeName
	}
	if p.RequestedAmount != nil && a.RequestedAmount == 0 {
		a.RequestedAmount = *p.RequestedAmount
	}
	if p.TenureMonths != nil && a.TenureMonths == 0 {
		a.TenureMonths = *p.TenureMonths
	}
	if p.FullName != nil && a.FullName == "" {
		a.FullName = *p.FullName
	}
	if p.Email != nil && a.Email == "" {
		a.Email = *p.Email
	}
	if p.Phone != nil && a.Phone == "" {
		a.Phone = *p.Phone
	}
	if p.TaxID != nil && a.TaxID == "" {
		a.TaxID = *p.TaxID
	}
	if p.DateOfBirth != nil && a.DateOfBirth == "" {
		a.DateOfBirth = *p.DateOfBirth
	}
	if p.EmploymentType != nil && a.EmploymentType == "" {
		a.EmploymentType = *p.EmploymentType
	}
	if p.Employer != nil && a.Employer == "" {
		a.Employer = *p.Employer
	}
	if p.MonthlySalary != nil && a.MonthlySalary == 0 {
		a.MonthlySalary = *p.MonthlySalary
	}
	if p.YearsEmployed != nil && a.YearsEmployed == 0 {
		a.YearsEmployed = *p.YearsEmployed
	}
	if p.CreditScore != nil && a.CreditScore == 0 {
		a.CreditScore = *p.CreditScore
	}
	if p.IdentityVerified != nil && !a.IdentityVerified {
		a.IdentityVerified = *p.IdentityVerified
	}
}

// Decided reports whether underwriting has already run for this application.
func (a *Application) Decided() bool {
	return a.Decision != ""
}

// MissingFields lists the required fields that are still empty, in the order
// the conversation collects them. Empty result means the application is ready
// for underwriting.
func (a *Application) MissingFields() []string {
	var missing []string
	if a.LoanTypeID == "" {
		missing = append(missing, "loan type")
	}
	if a.RequestedAmount == 0 {
		missing = append(missing, "loan amount")
	}
	if a.TenureMonths == 0 {
		missing = append(missing, "tenure")
	}
	if a.FullName == "" {
		missing = append(missing, "full name")
	}
	if a.Email == "" {
		missing = append(missing, "email")
	}
	if a.Phone == "" {
		missing = append(missing, "phone number")
	}
	if a.EmploymentType == "" {
		missing = append(missing, "employment type")
	}
	if a.Employer == "" {
		missing = append(missing, "employer")
	}
	if a.MonthlySalary == 0 {
		missing = append(missing, "monthly salary")
	}
	if a.TaxID == "" {
		missing = append(missing, "tax id")
	}
	if a.CreditScore == 0 {
		missing = append(missing, "credit score")
	}
	return missing
}
