// Package document renders the sanction letter for approved applications.
package document

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finpilot/loanflow/backend/internal/model/application"
	"github.com/finpilot/loanflow/backend/internal/service/underwriting"
)

var ErrNotApproved = errors.New("application has no approval to document")

// Service renders sanction letters. The installment is recomputed from the
// approved amount, rate and tenure so the letter can never disagree with the
// underwriting output.
type Service struct {
	now func() time.Time
}

// NewService builds the renderer; now is injectable for tests.
func NewService(now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{now: now}
}

// SanctionLetter renders the plain-text letter for an approved application.
func (s *Service) SanctionLetter(app *application.Application) (string, error) {
	if app == nil || app.Decision != application.DecisionApproved {
		return "", ErrNotApproved
	}

	installment := underwriting.Installment(app.ApprovedAmount, app.InterestRate, app.TenureMonths)

	var b strings.Builder
	fmt.Fprintf(&b, "SANCTION LETTER\n")
	fmt.Fprintf(&b, "Date: %s\n\n", s.now().Format("02 Jan 2006"))
	fmt.Fprintf(&b, "Dear %s,\n\n", app.FullName)
	fmt.Fprintf(&b, "We are pleased to sanction your %s application %s.\n\n", app.LoanTypeName, app.ID)
	fmt.Fprintf(&b, "  Sanctioned amount:  %d\n", app.ApprovedAmount)
	fmt.Fprintf(&b, "  Interest rate:      %.2f%% p.a.\n", app.InterestRate)
	fmt.Fprintf(&b, "  Tenure:             %d months\n", app.TenureMonths)
	fmt.Fprintf(&b, "  Monthly installment: %d\n\n", installment)
	fmt.Fprintf(&b, "This sanction is valid for 30 days and subject to document verification.\n")
	return b.String(), nil
}
