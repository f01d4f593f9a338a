// Package flow implements the per-session stage machine that drives the
// loan application conversation. Transition is a pure function: it never
// touches the clock, the store, or any external capability, so the
// orchestrator can run it on a session snapshot and commit the result
// atomically.
package flow

import (
	"fmt"
	"strings"

	"github.com/finpilot/loanflow/backend/internal/extract"
	"github.com/finpilot/loanflow/backend/internal/model/application"
	"github.com/finpilot/loanflow/backend/internal/model/conversation"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
)

// Salary answers outside this band are treated as extraction misses rather
// than stored verbatim.
const (
	minPlausibleSalary = 1_000
	maxPlausibleSalary = 10_000_000
)

// Result is the outcome of one pure transition step. The orchestrator applies
// Patch, moves the session to NextStage/NextSubState, and acts on the
// signalling flags.
type Result struct {
	NextStage    conversation.Stage
	NextSubState conversation.SubState
	Patch        application.Patch
	Reply        string

	// NeedsIdentity asks the orchestrator to run the bureau lookup for the
	// captured tax id and then call AfterVerification.
	NeedsIdentity bool
	// Recheck asks the orchestrator to re-run AfterVerification after
	// applying the patch, without another bureau lookup.
	Recheck bool
	// NeedsDecision asks the orchestrator to run underwriting now.
	NeedsDecision bool
	// Reset asks the orchestrator to drop the session and start a fresh
	// application under the same session id.
	Reset bool
	// Download asks the orchestrator to point the applicant at their
	// sanction letter.
	Download bool
}

// Machine evaluates conversation turns against the product catalog.
type Machine struct {
	catalog loan.Catalog
}

// NewMachine builds a stage machine over the given catalog.
func NewMachine(catalog loan.Catalog) *Machine {
	return &Machine{catalog: catalog}
}

// Greeting is the opening line for a brand-new or freshly reset session.
func (m *Machine) Greeting() string {
	return "Hi! I can help you apply for a loan in a few minutes. " +
		"Which loan are you looking for? We offer " + m.productMenu() + "."
}

// Transition maps (stage, application, user text) to the next conversation
// step. Extraction misses keep the stage and write nothing; each reply asks
// for exactly one datum.
func (m *Machine) Transition(sess *conversation.Session, text string) Result {
	switch sess.Stage {
	case conversation.StageGreeting:
		return m.fromGreeting(text)
	case conversation.StageLoanType:
		return m.fromLoanType(text)
	case conversation.StageAmount:
		return m.fromAmount(sess.Application, text)
	case conversation.StageTenure:
		return m.fromTenure(sess.Application, text)
	case conversation.StagePersonalInfo:
		return m.fromPersonalInfo(sess.SubState, text)
	case conversation.StageEmploymentInfo:
		return m.fromEmploymentInfo(sess.SubState, text)
	case conversation.StageVerification:
		return m.fromVerification(sess.Application, text)
	case conversation.StageUnderwriting, conversation.StageDecision, conversation.StageCompleted:
		return m.fromTerminal(sess.Stage, sess.Application, text)
	default:
		return Result{
			NextStage: conversation.StageGreeting,
			Reply:     m.Greeting(),
		}
	}
}

// fromGreeting advances to loan-type selection, or straight to the amount
// question when the opening message already names a product. That jump is the
// one sanctioned skip in the flow.
func (m *Machine) fromGreeting(text string) Result {
	if product, ok := m.catalog.Match(text); ok {
		return Result{
			NextStage: conversation.StageAmount,
			Patch:     productPatch(product),
			Reply:     m.amountPrompt(product),
		}
	}
	return Result{
		NextStage: conversation.StageLoanType,
		Reply: "Welcome! Let's get your application going. " +
			"Which loan would you like? We offer " + m.productMenu() + ".",
	}
}

func (m *Machine) fromLoanType(text string) Result {
	product, ok := m.catalog.Match(text)
	if !ok {
		return Result{
			NextStage: conversation.StageLoanType,
			Reply: "I didn't catch a loan type there. Please pick one of " +
				m.productMenu() + ".",
		}
	}
	return Result{
		NextStage: conversation.StageAmount,
		Patch:     productPatch(product),
		Reply:     m.amountPrompt(product),
	}
}

func (m *Machine) fromAmount(app *application.Application, text string) Result {
	product, ok := m.catalog.FindByID(app.LoanTypeID)
	if !ok {
		// Catalog changed under a live session; send them back to pick again.
		return Result{
			NextStage: conversation.StageLoanType,
			Reply:     "That loan product is no longer offered. Please pick one of " + m.productMenu() + ".",
		}
	}

	amount, found := extract.Amount(text)
	if !found {
		return Result{
			NextStage: conversation.StageAmount,
			Reply:     "How much would you like to borrow? " + boundsHint(product),
		}
	}
	if amount < product.MinAmount || amount > product.MaxAmount {
		return Result{
			NextStage: conversation.StageAmount,
			Reply: fmt.Sprintf("%s amounts range from %s to %s. Please choose an amount within that range.",
				product.Name, formatAmount(product.MinAmount), formatAmount(product.MaxAmount)),
		}
	}

	return Result{
		NextStage: conversation.StageTenure,
		Patch:     application.Patch{RequestedAmount: &amount},
		Reply: fmt.Sprintf("Got it, %s. Over how many months would you like to repay? Available tenures: %s.",
			formatAmount(amount), tenureMenu(product)),
	}
}

// fromTenure snaps the requested duration to the closest allowed tenure, so
// the stored value may differ from what the applicant typed.
func (m *Machine) fromTenure(app *application.Application, text string) Result {
	product, ok := m.catalog.FindByID(app.LoanTypeID)
	if !ok {
		return Result{
			NextStage: conversation.StageLoanType,
			Reply:     "That loan product is no longer offered. Please pick one of " + m.productMenu() + ".",
		}
	}

	months, found := extract.TenureMonths(text)
	if !found {
		return Result{
			NextStage: conversation.StageTenure,
			Reply:     fmt.Sprintf("How long would you like the loan for? Available tenures: %s.", tenureMenu(product)),
		}
	}

	snapped := product.NearestTenure(months)
	reply := fmt.Sprintf("Tenure set to %d months.", snapped)
	if snapped != months {
		reply = fmt.Sprintf("The closest available tenure is %d months, so I've set that.", snapped)
	}

	return Result{
		NextStage:    conversation.StagePersonalInfo,
		NextSubState: conversation.SubName,
		Patch:        application.Patch{TenureMonths: &snapped},
		Reply:        reply + " Now a few details about you. What's your full name?",
	}
}

func (m *Machine) fromPersonalInfo(sub conversation.SubState, text string) Result {
	switch sub {
	case conversation.SubName:
		name, ok := extract.FullName(text)
		if !ok {
			return Result{
				NextStage:    conversation.StagePersonalInfo,
				NextSubState: conversation.SubName,
				Reply:        "I need your full name as it appears on your id, for example \"Asha Verma\".",
			}
		}
		return Result{
			NextStage:    conversation.StagePersonalInfo,
			NextSubState: conversation.SubEmail,
			Patch:        application.Patch{FullName: &name},
			Reply:        fmt.Sprintf("Thanks, %s. What's your email address?", name),
		}
	case conversation.SubEmail:
		email, ok := extract.Email(text)
		if !ok {
			return Result{
				NextStage:    conversation.StagePersonalInfo,
				NextSubState: conversation.SubEmail,
				Reply:        "That doesn't look like an email address. Could you re-enter it?",
			}
		}
		return Result{
			NextStage:    conversation.StagePersonalInfo,
			NextSubState: conversation.SubPhone,
			Patch:        application.Patch{Email: &email},
			Reply:        "And your 10-digit mobile number?",
		}
	default: // SubPhone
		phone, ok := extract.Phone(text)
		if !ok {
			return Result{
				NextStage:    conversation.StagePersonalInfo,
				NextSubState: conversation.SubPhone,
				Reply:        "Please share a valid 10-digit mobile number.",
			}
		}
		return Result{
			NextStage:    conversation.StageEmploymentInfo,
			NextSubState: conversation.SubEmploymentType,
			Patch:        application.Patch{Phone: &phone},
			Reply:        "Great. Are you salaried or self-employed?",
		}
	}
}

func (m *Machine) fromEmploymentInfo(sub conversation.SubState, text string) Result {
	switch sub {
	case conversation.SubEmploymentType:
		kind, ok := extract.EmploymentKind(text)
		if !ok {
			return Result{
				NextStage:    conversation.StageEmploymentInfo,
				NextSubState: conversation.SubEmploymentType,
				Reply:        "Just so I record it right: are you salaried or self-employed?",
			}
		}
		empType := application.EmploymentType(kind)
		return Result{
			NextStage:    conversation.StageEmploymentInfo,
			NextSubState: conversation.SubEmployer,
			Patch:        application.Patch{EmploymentType: &empType},
			Reply:        "Who is your employer (or what's your business called)?",
		}
	case conversation.SubEmployer:
		employer := strings.TrimSpace(text)
		if employer == "" {
			return Result{
				NextStage:    conversation.StageEmploymentInfo,
				NextSubState: conversation.SubEmployer,
				Reply:        "Please tell me your employer or business name.",
			}
		}
		return Result{
			NextStage:    conversation.StageEmploymentInfo,
			NextSubState: conversation.SubSalary,
			Patch:        application.Patch{Employer: &employer},
			Reply:        "What's your monthly income?",
		}
	default: // SubSalary
		salary, ok := extract.Amount(text)
		if !ok || salary < minPlausibleSalary || salary > maxPlausibleSalary {
			return Result{
				NextStage:    conversation.StageEmploymentInfo,
				NextSubState: conversation.SubSalary,
				Reply:        "Please share your monthly income as a number, for example 75,000.",
			}
		}
		return Result{
			NextStage: conversation.StageVerification,
			Patch:     application.Patch{MonthlySalary: &salary},
			Reply: "Almost there. To verify your identity, please share your " +
				"tax id (PAN), for example ABCDE1234F.",
		}
	}
}

// fromVerification only validates the tax id pattern; the bureau lookup is an
// external capability, so the machine hands back NeedsIdentity and the
// orchestrator calls AfterVerification once the lookup has completed. Once
// identity is done, later turns in this stage collect whatever required
// fields the back-fill still left empty.
func (m *Machine) fromVerification(app *application.Application, text string) Result {
	if app.TaxID == "" {
		taxID, ok := extract.TaxID(text)
		if !ok {
			return Result{
				NextStage: conversation.StageVerification,
				Reply:     "That tax id doesn't look right. It should be five letters, four digits and a letter, like ABCDE1234F.",
			}
		}
		verified := true
		return Result{
			NextStage:     conversation.StageVerification,
			Patch:         application.Patch{TaxID: &taxID, IdentityVerified: &verified},
			NeedsIdentity: true,
		}
	}

	patch, ok := m.missingFieldPatch(app, text)
	if !ok {
		return Result{
			NextStage: conversation.StageVerification,
			Reply: "I couldn't read that. I still need your " +
				joinNatural(app.MissingFields()) + " to finish the application.",
		}
	}
	return Result{
		NextStage: conversation.StageVerification,
		Patch:     patch,
		Recheck:   true,
	}
}

// missingFieldPatch parses the first still-missing field out of the reply.
func (m *Machine) missingFieldPatch(app *application.Application, text string) (application.Patch, bool) {
	missing := app.MissingFields()
	if len(missing) == 0 {
		return application.Patch{}, false
	}
	switch missing[0] {
	case "full name":
		if name, ok := extract.FullName(text); ok {
			return application.Patch{FullName: &name}, true
		}
	case "email":
		if email, ok := extract.Email(text); ok {
			return application.Patch{Email: &email}, true
		}
	case "phone number":
		if phone, ok := extract.Phone(text); ok {
			return application.Patch{Phone: &phone}, true
		}
	case "employment type":
		if kind, ok := extract.EmploymentKind(text); ok {
			empType := application.EmploymentType(kind)
			return application.Patch{EmploymentType: &empType}, true
		}
	case "employer":
		if employer := strings.TrimSpace(text); employer != "" {
			return application.Patch{Employer: &employer}, true
		}
	case "monthly salary":
		if salary, ok := extract.Amount(text); ok && salary >= minPlausibleSalary && salary <= maxPlausibleSalary {
			return application.Patch{MonthlySalary: &salary}, true
		}
	}
	return application.Patch{}, false
}

// AfterVerification runs once the bureau result has been merged into the
// application. Either everything required is present and underwriting can
// fire, or the applicant is asked for the specific fields still missing.
func (m *Machine) AfterVerification(app *application.Application) Result {
	missing := app.MissingFields()
	if len(missing) == 0 {
		return Result{
			NextStage:     conversation.StageUnderwriting,
			NeedsDecision: true,
			Reply:         "Identity verified. Give me a moment while I review your application.",
		}
	}
	return Result{
		NextStage: conversation.StageVerification,
		Reply: "Identity verified, but I still need your " +
			joinNatural(missing) + " before I can process the application.",
	}
}

// fromTerminal interprets post-decision chatter with keyword matching.
func (m *Machine) fromTerminal(stage conversation.Stage, app *application.Application, text string) Result {
	switch {
	case extract.ContainsAny(text, "new", "another", "start over"):
		return Result{Reset: true}
	case extract.ContainsAny(text, "download", "letter", "document"):
		if app != nil && app.Decision == application.DecisionApproved {
			return Result{
				NextStage: conversation.StageCompleted,
				Download:  true,
				Reply:     "Your sanction letter is ready. You can download it from the documents link.",
			}
		}
		return Result{
			NextStage: conversation.StageCompleted,
			Reply:     "There's no sanction letter for this application. Say \"new\" to start another one.",
		}
	default:
		return Result{
			NextStage: conversation.StageCompleted,
			Reply:     "This application is wrapped up. Say \"download\" for your letter or \"new\" to start another application.",
		}
	}
}

func productPatch(product loan.Product) application.Patch {
	id, name := product.ID, product.Name
	return application.Patch{LoanTypeID: &id, LoanTypeName: &name}
}

func (m *Machine) amountPrompt(product loan.Product) string {
	return fmt.Sprintf("%s it is. How much would you like to borrow? %s",
		product.Name, boundsHint(product))
}

func (m *Machine) productMenu() string {
	products := m.catalog.List()
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return joinNatural(names)
}
