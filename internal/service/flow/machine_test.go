package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpilot/loanflow/backend/internal/model/application"
	"github.com/finpilot/loanflow/backend/internal/model/conversation"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
)

func newMachine() *Machine {
	return NewMachine(loan.NewMemoryCatalog(loan.Seed()))
}

func sessionAt(stage conversation.Stage, sub conversation.SubState, app *application.Application) *conversation.Session {
	if app == nil {
		app = &application.Application{ID: "app-1"}
	}
	return &conversation.Session{
		SessionID:   "sess-1",
		Stage:       stage,
		SubState:    sub,
		Application: app,
	}
}

func TestGreetingAdvancesToLoanType(t *testing.T) {
	m := newMachine()
	res := m.Transition(sessionAt(conversation.StageGreeting, conversation.SubNone, nil), "hi there")

	assert.Equal(t, conversation.StageLoanType, res.NextStage)
	assert.True(t, res.Patch.IsZero())
	assert.Contains(t, res.Reply, "Personal Loan")
}

func TestGreetingShortcutSkipsLoanType(t *testing.T) {
	m := newMachine()
	res := m.Transition(sessionAt(conversation.StageGreeting, conversation.SubNone, nil), "I need a home loan")

	assert.Equal(t, conversation.StageAmount, res.NextStage)
	require.NotNil(t, res.Patch.LoanTypeID)
	assert.Equal(t, "home", *res.Patch.LoanTypeID)
	assert.Contains(t, res.Reply, "borrow")
}

func TestLoanTypeRepeatsOnMiss(t *testing.T) {
	m := newMachine()
	sess := sessionAt(conversation.StageLoanType, conversation.SubNone, nil)
	res := m.Transition(sess, "something else entirely")

	assert.Equal(t, conversation.StageLoanType, res.NextStage)
	assert.True(t, res.Patch.IsZero())
}

func TestAmountBounds(t *testing.T) {
	m := newMachine()
	app := &application.Application{LoanTypeID: "personal", LoanTypeName: "Personal Loan"}

	// Below the personal-loan minimum of 50,000.
	res := m.Transition(sessionAt(conversation.StageAmount, conversation.SubNone, app), "10000")
	assert.Equal(t, conversation.StageAmount, res.NextStage)
	assert.True(t, res.Patch.IsZero())
	assert.Contains(t, res.Reply, "50,000")
	assert.Contains(t, res.Reply, "2,000,000")

	// In bounds advances to tenure.
	res = m.Transition(sessionAt(conversation.StageAmount, conversation.SubNone, app), "5 lakh")
	assert.Equal(t, conversation.StageTenure, res.NextStage)
	require.NotNil(t, res.Patch.RequestedAmount)
	assert.Equal(t, int64(500_000), *res.Patch.RequestedAmount)
}

func TestAmountUnparsableRepeats(t *testing.T) {
	m := newMachine()
	app := &application.Application{LoanTypeID: "personal"}
	res := m.Transition(sessionAt(conversation.StageAmount, conversation.SubNone, app), "a good chunk")

	assert.Equal(t, conversation.StageAmount, res.NextStage)
	assert.True(t, res.Patch.IsZero())
}

func TestTenureSnapsToNearest(t *testing.T) {
	m := newMachine()
	app := &application.Application{LoanTypeID: "personal"}

	res := m.Transition(sessionAt(conversation.StageTenure, conversation.SubNone, app), "20 months")
	assert.Equal(t, conversation.StagePersonalInfo, res.NextStage)
	assert.Equal(t, conversation.SubName, res.NextSubState)
	require.NotNil(t, res.Patch.TenureMonths)
	assert.Equal(t, 24, *res.Patch.TenureMonths)
	assert.Contains(t, res.Reply, "24 months")
}

func TestTenureMidpointSnapsToFirstListed(t *testing.T) {
	m := newMachine()
	app := &application.Application{LoanTypeID: "personal"}

	// 18 is equidistant between 12 and 24; the earlier tenure wins.
	res := m.Transition(sessionAt(conversation.StageTenure, conversation.SubNone, app), "18 months")
	require.NotNil(t, res.Patch.TenureMonths)
	assert.Equal(t, 12, *res.Patch.TenureMonths)
}

func TestPersonalInfoSubSequence(t *testing.T) {
	m := newMachine()

	res := m.Transition(sessionAt(conversation.StagePersonalInfo, conversation.SubName, nil), "my name is Asha Verma")
	assert.Equal(t, conversation.SubEmail, res.NextSubState)
	require.NotNil(t, res.Patch.FullName)
	assert.Equal(t, "Asha Verma", *res.Patch.FullName)

	res = m.Transition(sessionAt(conversation.StagePersonalInfo, conversation.SubEmail, nil), "asha@example.com")
	assert.Equal(t, conversation.SubPhone, res.NextSubState)
	require.NotNil(t, res.Patch.Email)

	res = m.Transition(sessionAt(conversation.StagePersonalInfo, conversation.SubPhone, nil), "9812345670")
	assert.Equal(t, conversation.StageEmploymentInfo, res.NextStage)
	assert.Equal(t, conversation.SubEmploymentType, res.NextSubState)
	require.NotNil(t, res.Patch.Phone)
}

func TestPersonalInfoRepromptsOneFieldAtATime(t *testing.T) {
	m := newMachine()

	res := m.Transition(sessionAt(conversation.StagePersonalInfo, conversation.SubEmail, nil), "not an address")
	assert.Equal(t, conversation.StagePersonalInfo, res.NextStage)
	assert.Equal(t, conversation.SubEmail, res.NextSubState)
	assert.True(t, res.Patch.IsZero())
}

func TestEmploymentInfoSubSequence(t *testing.T) {
	m := newMachine()

	res := m.Transition(sessionAt(conversation.StageEmploymentInfo, conversation.SubEmploymentType, nil), "I'm salaried")
	assert.Equal(t, conversation.SubEmployer, res.NextSubState)
	require.NotNil(t, res.Patch.EmploymentType)
	assert.Equal(t, application.EmploymentSalaried, *res.Patch.EmploymentType)

	res = m.Transition(sessionAt(conversation.StageEmploymentInfo, conversation.SubEmployer, nil), "Meridian Analytics")
	assert.Equal(t, conversation.SubSalary, res.NextSubState)
	require.NotNil(t, res.Patch.Employer)
	assert.Equal(t, "Meridian Analytics", *res.Patch.Employer)

	res = m.Transition(sessionAt(conversation.StageEmploymentInfo, conversation.SubSalary, nil), "95000")
	assert.Equal(t, conversation.StageVerification, res.NextStage)
	require.NotNil(t, res.Patch.MonthlySalary)
	assert.Equal(t, int64(95_000), *res.Patch.MonthlySalary)
}

func TestSalaryPlausibilityBound(t *testing.T) {
	m := newMachine()

	res := m.Transition(sessionAt(conversation.StageEmploymentInfo, conversation.SubSalary, nil), "50")
	assert.Equal(t, conversation.SubSalary, res.NextSubState)
	assert.True(t, res.Patch.IsZero())
}

func TestVerificationCapturesTaxID(t *testing.T) {
	m := newMachine()

	res := m.Transition(sessionAt(conversation.StageVerification, conversation.SubNone, nil), "ABCDE1234F")
	assert.True(t, res.NeedsIdentity)
	require.NotNil(t, res.Patch.TaxID)
	assert.Equal(t, "ABCDE1234F", *res.Patch.TaxID)

	res = m.Transition(sessionAt(conversation.StageVerification, conversation.SubNone, nil), "not a pan")
	assert.False(t, res.NeedsIdentity)
	assert.True(t, res.Patch.IsZero())
	assert.Equal(t, conversation.StageVerification, res.NextStage)
}

func TestVerificationCollectsMissingFields(t *testing.T) {
	m := newMachine()
	app := &application.Application{
		LoanTypeID:      "personal",
		RequestedAmount: 500_000,
		TenureMonths:    36,
		FullName:        "Asha Verma",
		Email:           "asha@example.com",
		Phone:           "9812345670",
		TaxID:           "ZZZZZ9999Z",
		CreditScore:     700,
	}

	// Employment fields are missing; the stage asks for them by name.
	res := m.Transition(sessionAt(conversation.StageVerification, conversation.SubNone, app), "what now?")
	assert.Equal(t, conversation.StageVerification, res.NextStage)
	assert.Contains(t, res.Reply, "employment type")

	res = m.Transition(sessionAt(conversation.StageVerification, conversation.SubNone, app), "salaried")
	assert.True(t, res.Recheck)
	require.NotNil(t, res.Patch.EmploymentType)
}

func TestAfterVerification(t *testing.T) {
	m := newMachine()

	complete := &application.Application{
		LoanTypeID:      "personal",
		RequestedAmount: 500_000,
		TenureMonths:    36,
		FullName:        "Asha Verma",
		Email:           "asha@example.com",
		Phone:           "9812345670",
		EmploymentType:  application.EmploymentSalaried,
		Employer:        "Meridian Analytics",
		MonthlySalary:   95_000,
		TaxID:           "ABCDE1234F",
		CreditScore:     780,
	}
	res := m.AfterVerification(complete)
	assert.Equal(t, conversation.StageUnderwriting, res.NextStage)
	assert.True(t, res.NeedsDecision)

	incomplete := &application.Application{TaxID: "ABCDE1234F", CreditScore: 700}
	res = m.AfterVerification(incomplete)
	assert.Equal(t, conversation.StageVerification, res.NextStage)
	assert.False(t, res.NeedsDecision)
	assert.Contains(t, res.Reply, "loan type")
}

func TestTerminalKeywords(t *testing.T) {
	m := newMachine()
	approved := &application.Application{Decision: application.DecisionApproved}

	res := m.Transition(sessionAt(conversation.StageDecision, conversation.SubNone, approved), "start over please")
	assert.True(t, res.Reset)

	res = m.Transition(sessionAt(conversation.StageDecision, conversation.SubNone, approved), "can I download the letter?")
	assert.True(t, res.Download)
	assert.Equal(t, conversation.StageCompleted, res.NextStage)

	rejected := &application.Application{Decision: application.DecisionRejected}
	res = m.Transition(sessionAt(conversation.StageCompleted, conversation.SubNone, rejected), "download")
	assert.False(t, res.Download)

	res = m.Transition(sessionAt(conversation.StageCompleted, conversation.SubNone, approved), "thanks!")
	assert.Equal(t, conversation.StageCompleted, res.NextStage)
	assert.False(t, res.Reset)
}

// Stage index must never decrease on valid input, apart from the documented
// greeting shortcut target and the explicit reset.
func TestStageOrderMonotonic(t *testing.T) {
	m := newMachine()
	app := &application.Application{LoanTypeID: "personal"}

	cases := []struct {
		stage conversation.Stage
		sub   conversation.SubState
		text  string
	}{
		{conversation.StageGreeting, conversation.SubNone, "hello"},
		{conversation.StageLoanType, conversation.SubNone, "personal"},
		{conversation.StageAmount, conversation.SubNone, "5 lakh"},
		{conversation.StageTenure, conversation.SubNone, "36 months"},
		{conversation.StagePersonalInfo, conversation.SubName, "Asha Verma"},
		{conversation.StageEmploymentInfo, conversation.SubEmploymentType, "salaried"},
		{conversation.StageVerification, conversation.SubNone, "ABCDE1234F"},
	}
	for _, tc := range cases {
		res := m.Transition(sessionAt(tc.stage, tc.sub, app), tc.text)
		assert.GreaterOrEqual(t, res.NextStage.Index(), tc.stage.Index(),
			"stage %s regressed to %s", tc.stage, res.NextStage)
	}
}
