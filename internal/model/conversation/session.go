package conversation

import (
	"time"

	"github.com/finpilot/loanflow/backend/internal/model/application"
)

// Session captures one applicant conversation and the application it owns.
type Session struct {
	SessionID   string                   `json:"sessionId"`
	Application *application.Application `json:"application"`
	Stage       Stage                    `json:"stage"`
	SubState    SubState                 `json:"subState,omitempty"`
	History     []Message                `json:"history"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate freely without touching the
// stored session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	if s.Application != nil {
		app := *s.Application
		copied.Application = &app
	}
	copied.History = append([]Message(nil), s.History...)
	return &copied
}
