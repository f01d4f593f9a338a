package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestApplySetsEmptyFields(t *testing.T) {
	app := &Application{}
	app.Apply(Patch{
		FullName:        strPtr("Asha Verma"),
		RequestedAmount: int64Ptr(500_000),
		CreditScore:     intPtr(720),
	})

	assert.Equal(t, "Asha Verma", app.FullName)
	assert.Equal(t, int64(500_000), app.RequestedAmount)
	assert.Equal(t, 720, app.CreditScore)
}

func TestApplyNeverOverwrites(t *testing.T) {
	app := &Application{FullName: "Asha Verma", MonthlySalary: 95_000}
	app.Apply(Patch{
		FullName:      strPtr("Someone Else"),
		MonthlySalary: int64Ptr(10_000),
		Email:         strPtr("asha@example.com"),
	})

	assert.Equal(t, "Asha Verma", app.FullName)
	assert.Equal(t, int64(95_000), app.MonthlySalary)
	assert.Equal(t, "asha@example.com", app.Email)
}

func TestMissingFields(t *testing.T) {
	app := &Application{}
	assert.Len(t, app.MissingFields(), 11)

	app = &Application{
		LoanTypeID:      "personal",
		RequestedAmount: 500_000,
		TenureMonths:    36,
		FullName:        "Asha Verma",
		Email:           "asha@example.com",
		Phone:           "9812345670",
		EmploymentType:  EmploymentSalaried,
		Employer:        "Meridian Analytics",
		MonthlySalary:   95_000,
		TaxID:           "ABCDE1234F",
		CreditScore:     780,
	}
	assert.Empty(t, app.MissingFields())

	app.Employer = ""
	assert.Equal(t, []string{"employer"}, app.MissingFields())
}

func TestPatchIsZero(t *testing.T) {
	assert.True(t, Patch{}.IsZero())
	assert.False(t, Patch{FullName: strPtr("x")}.IsZero())
}
