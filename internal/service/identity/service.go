// Package identity wraps the credit-bureau capability. The demo deployment
// runs against a stub bureau; real integrations only need to satisfy
// Verifier.
package identity

import (
	"context"
	"errors"
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/finpilot/loanflow/backend/internal/model/application"
)

// ErrNotFound means the bureau has no record for the tax id. Any other error
// from a Verifier is treated as a backend failure.
var ErrNotFound = errors.New("no bureau record for tax id")

// Record is what a bureau lookup can return. Everything besides the credit
// score is optional back-fill for fields the applicant has not supplied yet.
type Record struct {
	CreditScore    int
	FullName       string
	Email          string
	Phone          string
	EmploymentType application.EmploymentType
	Employer       string
	MonthlySalary  int64
}

// Verifier is the external lookup capability.
type Verifier interface {
	Lookup(ctx context.Context, taxID string) (Record, error)
}

// Service layers the fallback policy over a Verifier: any lookup problem
// produces a synthesized score so the conversation can continue. Lookup miss
// and backend failure are deliberately indistinguishable to the applicant,
// but the logs tell them apart.
//
// NOTE: synthesizing on failure is a demo policy and needs product sign-off
// before any production rollout.
type Service struct {
	bureau Verifier
	log    *zap.Logger
}

// NewService wires the fallback policy over the given bureau.
func NewService(bureau Verifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{bureau: bureau, log: log}
}

// Verify resolves a tax id to a bureau record, synthesizing one when the
// lookup cannot. Scores outside [300, 900] are treated as a bad bureau
// response and also synthesized over.
func (s *Service) Verify(ctx context.Context, taxID string) Record {
	record, err := s.bureau.Lookup(ctx, taxID)
	switch {
	case errors.Is(err, ErrNotFound):
		s.log.Warn("bureau record not found, synthesizing score",
			zap.String("taxId", taxID))
		return Record{CreditScore: synthesizeScore(taxID)}
	case err != nil:
		s.log.Error("bureau lookup failed, synthesizing score",
			zap.String("taxId", taxID), zap.Error(err))
		return Record{CreditScore: synthesizeScore(taxID)}
	case record.CreditScore < 300 || record.CreditScore > 900:
		s.log.Error("bureau returned out-of-range score, synthesizing",
			zap.String("taxId", taxID), zap.Int("creditScore", record.CreditScore))
		return Record{CreditScore: synthesizeScore(taxID)}
	default:
		return record
	}
}

// synthesizeScore derives a stable score in [650, 850] from the tax id, so
// repeat turns for the same applicant stay deterministic.
func synthesizeScore(taxID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taxID))
	return 650 + int(h.Sum32()%201)
}

// StubBureau is the in-memory bureau used by the demo deployment and tests.
type StubBureau struct {
	records map[string]Record
}

// NewStubBureau seeds the stub with the given records.
func NewStubBureau(records map[string]Record) *StubBureau {
	if records == nil {
		records = make(map[string]Record)
	}
	return &StubBureau{records: records}
}

// SeedRecords returns a handful of matched identities for demos.
func SeedRecords() map[string]Record {
	return map[string]Record{
		"ABCDE1234F": {
			CreditScore:    780,
			FullName:       "Asha Verma",
			Email:          "asha.verma@example.com",
			Phone:          "9812345670",
			EmploymentType: application.EmploymentSalaried,
			Employer:       "Meridian Analytics",
			MonthlySalary:  95_000,
		},
		"PQRSX9876K": {
			CreditScore:    640,
			FullName:       "Rohan Iyer",
			EmploymentType: application.EmploymentSelfEmployed,
			Employer:       "Iyer Traders",
			MonthlySalary:  60_000,
		},
	}
}

// Lookup returns the seeded record or ErrNotFound.
func (b *StubBureau) Lookup(_ context.Context, taxID string) (Record, error) {
	record, ok := b.records[taxID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}
