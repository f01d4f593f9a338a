package conversation

// Stage is the position of a session in the guided application flow.
type Stage string

const (
	StageGreeting       Stage = "greeting"
	StageLoanType       Stage = "loan_type"
	StageAmount         Stage = "amount"
	StageTenure         Stage = "tenure"
	StagePersonalInfo   Stage = "personal_info"
	StageEmploymentInfo Stage = "employment_info"
	StageVerification   Stage = "verification"
	StageUnderwriting   Stage = "underwriting"
	StageDecision       Stage = "decision"
	StageCompleted      Stage = "completed"
)

var stageOrder = []Stage{
	StageGreeting,
	StageLoanType,
	StageAmount,
	StageTenure,
	StagePersonalInfo,
	StageEmploymentInfo,
	StageVerification,
	StageUnderwriting,
	StageDecision,
	StageCompleted,
}

// Index returns the ordinal of the stage in flow order, or -1 for an unknown
// stage. Stages only ever move to a higher index, apart from the session
// reset back to greeting.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether the conversation has reached a decision.
func (s Stage) Terminal() bool {
	return s == StageDecision || s == StageCompleted
}

// SubState tags the next datum owed inside the multi-field stages. It is
// stored explicitly rather than re-derived from which fields happen to be
// empty.
type SubState string

const (
	SubNone           SubState = ""
	SubName           SubState = "name"
	SubEmail          SubState = "email"
	SubPhone          SubState = "phone"
	SubEmploymentType SubState = "employment_type"
	SubEmployer       SubState = "employer"
	SubSalary         SubState = "salary"
)
