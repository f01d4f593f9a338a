// Package orchestrator drives one conversation turn end to end: load or
// create the session, run the pure stage transition, invoke the external
// capabilities the machine asked for, commit the session atomically and
// produce the reply.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finpilot/loanflow/backend/internal/metrics"
	"github.com/finpilot/loanflow/backend/internal/model/application"
	"github.com/finpilot/loanflow/backend/internal/model/conversation"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
	"github.com/finpilot/loanflow/backend/internal/service/flow"
	"github.com/finpilot/loanflow/backend/internal/service/identity"
	"github.com/finpilot/loanflow/backend/internal/service/session"
	"github.com/finpilot/loanflow/backend/internal/service/underwriting"
)

const retryReply = "Sorry, something went wrong on my side. Please send that again."

// errResetRequested aborts a Mutate without committing, so the reset path can
// delete and recreate the session instead.
var errResetRequested = errors.New("session reset requested")

// Phraser rewords a deterministic draft reply. Implementations must treat the
// context deadline as a hard stop.
type Phraser interface {
	Polish(ctx context.Context, history []conversation.Message, draft string) (string, error)
}

// TurnReply is the outcome of one processed turn. DownloadReady tells the
// frontend the sanction letter can now be fetched from the documents
// endpoint.
type TurnReply struct {
	Reply         string                  `json:"reply"`
	Application   application.Application `json:"application"`
	Stage         conversation.Stage      `json:"stage"`
	Terminal      bool                    `json:"isTerminal"`
	DownloadReady bool                    `json:"downloadReady,omitempty"`
}

// Deps lists the collaborators the orchestrator composes. Phraser and
// Metrics may be nil; Log and Now default when nil.
type Deps struct {
	Store         session.Store
	Machine       *flow.Machine
	Catalog       loan.Catalog
	Identity      *identity.Service
	Engine        *underwriting.Engine
	Phraser       Phraser
	PhraseTimeout time.Duration
	Metrics       *metrics.Metrics
	Log           *zap.Logger
	Now           func() time.Time
}

// Orchestrator processes turns. Safe for concurrent use; per-session ordering
// is delegated to the store.
type Orchestrator struct {
	deps Deps
}

// New validates and wires the orchestrator.
func New(deps Deps) *Orchestrator {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.PhraseTimeout <= 0 {
		deps.PhraseTimeout = 3 * time.Second
	}
	return &Orchestrator{deps: deps}
}

// ProcessTurn handles one inbound message for a session. Any unexpected
// internal fault is contained here: the session keeps its pre-turn state and
// the caller gets a generic retry prompt.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, text string) (reply TurnReply, err error) {
	start := o.deps.Now()
	defer func() {
		if r := recover(); r != nil {
			o.deps.Log.Error("turn panicked, session left unmodified",
				zap.String("sessionId", sessionID), zap.Any("panic", r))
			reply, err = TurnReply{Reply: retryReply}, nil
		}
		o.observeTurn(reply.Stage, start)
	}()

	var draft string
	var download bool
	committed, err := o.deps.Store.Mutate(ctx, sessionID, o.newSession, func(s *conversation.Session) error {
		o.appendMessage(s, conversation.SenderUser, text)

		res := o.deps.Machine.Transition(s, text)
		if res.Reset {
			return errResetRequested
		}
		download = res.Download
		var applyErr error
		draft, applyErr = o.applyResult(ctx, s, res)
		return applyErr
	})

	if errors.Is(err, errResetRequested) {
		return o.resetSession(ctx, sessionID)
	}
	if err != nil {
		o.deps.Log.Error("turn failed, session left unmodified",
			zap.String("sessionId", sessionID), zap.Error(err))
		return TurnReply{Reply: retryReply}, nil
	}

	final := o.phrase(ctx, committed.History, draft)
	committed = o.recordReply(ctx, sessionID, committed, final)

	return TurnReply{
		Reply:         final,
		Application:   *committed.Application,
		Stage:         committed.Stage,
		Terminal:      committed.Stage.Terminal(),
		DownloadReady: download,
	}, nil
}

// Snapshot returns the current session state without processing a turn.
func (o *Orchestrator) Snapshot(ctx context.Context, sessionID string) (*conversation.Session, error) {
	return o.deps.Store.Get(ctx, sessionID)
}

// applyResult commits a transition result onto the working session copy and
// runs the follow-up capabilities the machine asked for.
func (o *Orchestrator) applyResult(ctx context.Context, s *conversation.Session, res flow.Result) (string, error) {
	s.Application.Apply(res.Patch)
	if !res.Patch.IsZero() {
		s.Application.UpdatedAt = o.deps.Now()
	}
	s.Stage = res.NextStage
	s.SubState = res.NextSubState
	reply := res.Reply

	if res.NeedsIdentity {
		record := o.deps.Identity.Verify(ctx, s.Application.TaxID)
		s.Application.Apply(backfillPatch(record))
		s.Application.UpdatedAt = o.deps.Now()
	}
	if res.NeedsIdentity || res.Recheck {
		after := o.deps.Machine.AfterVerification(s.Application)
		s.Stage = after.NextStage
		s.SubState = after.NextSubState
		reply = after.Reply
		res.NeedsDecision = after.NeedsDecision
	}

	if res.NeedsDecision {
		decisionReply, err := o.runUnderwriting(s)
		if err != nil {
			return "", err
		}
		reply = decisionReply
	}
	return reply, nil
}

// runUnderwriting evaluates the completed application exactly once and stamps
// the full outcome in one shot.
func (o *Orchestrator) runUnderwriting(s *conversation.Session) (string, error) {
	app := s.Application
	if app.Decided() {
		return "", fmt.Errorf("application %s already decided", app.ID)
	}
	product, ok := o.deps.Catalog.FindByID(app.LoanTypeID)
	if !ok {
		return "", fmt.Errorf("unknown loan type %q on application %s", app.LoanTypeID, app.ID)
	}

	outcome := o.deps.Engine.Evaluate(app, product)
	app.Decision = outcome.Decision
	app.DecisionReason = outcome.Reason
	app.ApprovedAmount = outcome.ApprovedAmount
	app.InterestRate = outcome.InterestRate
	app.MonthlyInstallment = outcome.MonthlyInstallment
	app.RiskScore = outcome.RiskScore
	app.UpdatedAt = o.deps.Now()
	s.Stage = conversation.StageDecision
	s.SubState = conversation.SubNone

	o.deps.Log.Info("application decided",
		zap.String("applicationId", app.ID),
		zap.String("decision", string(outcome.Decision)),
		zap.Int64("approvedAmount", outcome.ApprovedAmount),
		zap.Int("riskScore", outcome.RiskScore))
	o.observeDecision(outcome.Decision)

	return decisionReply(app, outcome), nil
}

// resetSession implements the "new application" shortcut: same session id,
// fresh application, fresh greeting.
func (o *Orchestrator) resetSession(ctx context.Context, sessionID string) (TurnReply, error) {
	if err := o.deps.Store.Delete(ctx, sessionID); err != nil {
		o.deps.Log.Error("session reset failed", zap.String("sessionId", sessionID), zap.Error(err))
		return TurnReply{Reply: retryReply}, nil
	}

	greeting := o.deps.Machine.Greeting()
	committed, err := o.deps.Store.Mutate(ctx, sessionID, o.newSession, func(s *conversation.Session) error {
		o.appendMessage(s, conversation.SenderAssistant, greeting)
		return nil
	})
	if err != nil {
		return TurnReply{Reply: retryReply}, nil
	}

	o.deps.Log.Info("session reset", zap.String("sessionId", sessionID))
	return TurnReply{
		Reply:       greeting,
		Application: *committed.Application,
		Stage:       committed.Stage,
	}, nil
}

// phrase runs the optional LLM polish with a hard timeout; the deterministic
// draft always wins on any problem.
func (o *Orchestrator) phrase(ctx context.Context, history []conversation.Message, draft string) string {
	if o.deps.Phraser == nil || draft == "" {
		return draft
	}

	phraseCtx, cancel := context.WithTimeout(ctx, o.deps.PhraseTimeout)
	defer cancel()

	polished, err := o.deps.Phraser.Polish(phraseCtx, history, draft)
	if err != nil {
		o.deps.Log.Warn("phrasing fallback to canned reply", zap.Error(err))
		if o.deps.Metrics != nil {
			o.deps.Metrics.PhrasingFallbacks.Inc()
		}
		return draft
	}
	return polished
}

// recordReply appends the outbound message in a second, best-effort commit so
// a slow or failing phraser can never lose the turn's state.
func (o *Orchestrator) recordReply(ctx context.Context, sessionID string, committed *conversation.Session, reply string) *conversation.Session {
	updated, err := o.deps.Store.Mutate(ctx, sessionID, nil, func(s *conversation.Session) error {
		o.appendMessage(s, conversation.SenderAssistant, reply)
		return nil
	})
	if err != nil {
		o.deps.Log.Warn("failed to record assistant reply",
			zap.String("sessionId", sessionID), zap.Error(err))
		return committed
	}
	return updated
}

func (o *Orchestrator) newSession(sessionID string) *conversation.Session {
	now := o.deps.Now()
	return &conversation.Session{
		SessionID: sessionID,
		Stage:     conversation.StageGreeting,
		CreatedAt: now,
		UpdatedAt: now,
		Application: &application.Application{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (o *Orchestrator) appendMessage(s *conversation.Session, sender, content string) {
	s.History = append(s.History, conversation.Message{
		ID:        uuid.NewString(),
		SessionID: s.SessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: o.deps.Now(),
	})
}

func (o *Orchestrator) observeTurn(stage conversation.Stage, start time.Time) {
	if o.deps.Metrics == nil {
		return
	}
	label := string(stage)
	if label == "" {
		// Failed or panicked turns have no landing stage.
		label = "error"
	}
	o.deps.Metrics.TurnsTotal.WithLabelValues(label).Inc()
	o.deps.Metrics.TurnDuration.Observe(o.deps.Now().Sub(start).Seconds())
}

func (o *Orchestrator) observeDecision(decision application.Decision) {
	if o.deps.Metrics == nil {
		return
	}
	o.deps.Metrics.DecisionsTotal.WithLabelValues(string(decision)).Inc()
}

func backfillPatch(record identity.Record) application.Patch {
	p := application.Patch{CreditScore: &record.CreditScore}
	if record.FullName != "" {
		p.FullName = &record.FullName
	}
	if record.Email != "" {
		p.Email = &record.Email
	}
	if record.Phone != "" {
		p.Phone = &record.Phone
	}
	if record.EmploymentType != "" {
		p.EmploymentType = &record.EmploymentType
	}
	if record.Employer != "" {
		p.Employer = &record.Employer
	}
	if record.MonthlySalary > 0 {
		p.MonthlySalary = &record.MonthlySalary
	}
	return p
}

func decisionReply(app *application.Application, outcome underwriting.Outcome) string {
	if outcome.Decision == application.DecisionApproved {
		return fmt.Sprintf("Good news, %s! Your %s is approved for %d at %.2f%% p.a. "+
			"over %d months, with a monthly installment of %d. %s "+
			"Say \"download\" for your sanction letter or \"new\" to start another application.",
			app.FullName, app.LoanTypeName, outcome.ApprovedAmount, outcome.InterestRate,
			app.TenureMonths, outcome.MonthlyInstallment, outcome.Reason)
	}
	return fmt.Sprintf("I'm sorry, %s, we couldn't approve this application. %s "+
		"Say \"new\" if you'd like to try a different loan.",
		app.FullName, outcome.Reason)
}
