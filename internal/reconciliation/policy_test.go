package reconciliation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"intake/internal/extraction"
	"intake/internal/handoff"
	"intake/internal/record"
	"intake/internal/verification"
	"intake/pkg/domain"
	"intake/pkg/platform/sentinel"
)

func verifiedView(docType domain.DocumentType, res extraction.Result, fields ...domain.Field) verification.View {
	v := verification.View{SessionID: "session-1", DocumentType: docType, Result: res}
	for _, f := range fields {
		v.Fields = append(v.Fields, verification.FieldView{Field: f, Value: res.Field(f), Status: verification.StatusVerified})
	}
	return v
}

func taxIDView(name string) verification.View {
	return verifiedView(domain.DocumentTaxID, &extraction.TaxIDResult{
		TaxID:       "ABCDE1234F",
		Name:        name,
		FatherName:  "Mohan Sharma",
		DateOfBirth: "01/02/1990",
	}, domain.FieldName, domain.FieldTaxID)
}

func transcriptView(candidate string) verification.View {
	return verifiedView(domain.DocumentTranscript, &extraction.TranscriptResult{
		CandidateName: candidate,
		MotherName:    "Sunita",
		Percentage:    "81.5",
		Subjects:      []domain.Subject{{Subject: "English", Obtained: "78", Max: "100"}},
	}, domain.FieldCandidateName, domain.FieldMotherName)
}

type PolicySuite struct {
	suite.Suite
	ctx    context.Context
	slot   *handoff.MemorySlot
	policy *Policy
	store  *record.Store
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicySuite))
}

func (s *PolicySuite) SetupTest() {
	s.ctx = context.Background()
	s.slot = handoff.NewMemorySlot()
	s.policy = New(s.slot)
	s.policy.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	s.store = record.NewStore()
}

func (s *PolicySuite) seedName(name string) {
	s.store.Apply(record.MergeIdentity(name, "3160 9723 2695"))
}

func (s *PolicySuite) TestTaxIDMiddleNameIgnored() {
	s.seedName("Ravi Sharma")

	res, err := s.policy.CheckAndCommit(s.ctx, taxIDView("Ravi Kumar Sharma"), s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)

	rec := s.store.Snapshot()
	s.Equal("ABCDE1234F", rec.TaxID)
	s.Equal("Mohan Sharma", rec.FatherName)
	s.Equal("01/02/1990", rec.DateOfBirth)
	s.Equal("Ravi Sharma", rec.Name)
}

func (s *PolicySuite) TestTaxIDMismatchClearsTriple() {
	s.seedName("Ravi Sharma")
	s.store.Apply(record.MergeTaxID("OLDPAN0000X", "Old Father", "01/01/1980"))

	res, err := s.policy.CheckAndCommit(s.ctx, taxIDView("Suresh Sharma"), s.store)
	s.Require().NoError(err)
	s.Equal(KindNameMismatch, res.Kind)
	s.Equal("Ravi Sharma", res.RecordName)
	s.Equal("Suresh Sharma", res.ExtractedName)
	s.Contains(res.Message(), "Name mismatch!")

	rec := s.store.Snapshot()
	s.Empty(rec.TaxID)
	s.Empty(rec.FatherName)
	s.Empty(rec.DateOfBirth)
	s.Equal("Ravi Sharma", rec.Name)
	s.Equal("3160 9723 2695", rec.IdentityNumber)
}

func (s *PolicySuite) TestTaxIDWithoutRecordNameSkipsCheck() {
	res, err := s.policy.CheckAndCommit(s.ctx, taxIDView("Suresh Sharma"), s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)
	s.Equal("ABCDE1234F", s.store.Snapshot().TaxID)
}

func (s *PolicySuite) TestMissingPrerequisite() {
	view := taxIDView("Ravi Sharma")
	view.Fields[1].Status = verification.StatusInvalid
	s.seedName("Ravi Sharma")
	before := s.store.Snapshot()

	res, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
	s.Require().NoError(err)
	s.Equal(KindMissingPrerequisite, res.Kind)
	s.Equal([]domain.Field{domain.FieldTaxID}, res.Missing)
	s.Equal(before, s.store.Snapshot())
	s.Equal("Verify taxId before committing.", res.Message())
}

func (s *PolicySuite) TestMissingResultIsMissingPrerequisite() {
	view := verification.View{DocumentType: domain.DocumentIdentity}

	res, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
	s.Require().NoError(err)
	s.Equal(KindMissingPrerequisite, res.Kind)
	s.Equal([]domain.Field{domain.FieldName}, res.Missing)
}

func (s *PolicySuite) TestTranscriptRotatedNameCommits() {
	s.seedName("Ravi Sharma")

	res, err := s.policy.CheckAndCommit(s.ctx, transcriptView("Sharma Ravi"), s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)

	rec := s.store.Snapshot()
	s.Equal("Sunita", rec.MotherName)
	s.Equal("81.5", rec.Percentage)
	s.Equal([]domain.Subject{{Subject: "English", Obtained: "78", Max: "100"}}, rec.Subjects)
}

func (s *PolicySuite) TestTranscriptThreeTokens() {
	s.seedName("Ravi Sharma Kumar")

	res, err := s.policy.CheckAndCommit(s.ctx, transcriptView("Kumar Ravi Sharma"), s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)
}

func (s *PolicySuite) TestTranscriptMismatchLeavesRecord() {
	s.seedName("Ravi Sharma")
	before := s.store.Snapshot()

	res, err := s.policy.CheckAndCommit(s.ctx, transcriptView("Ravi Sharma"), s.store)
	s.Require().NoError(err)
	s.Equal(KindNameMismatch, res.Kind)
	s.Equal("Sharma Ravi", res.ExtractedName)
	s.Equal(before, s.store.Snapshot())
}

func (s *PolicySuite) TestTranscriptSingleTokenIsMalformed() {
	s.seedName("Ravi Sharma")
	before := s.store.Snapshot()

	res, err := s.policy.CheckAndCommit(s.ctx, transcriptView("Ravi"), s.store)
	s.Require().NoError(err)
	s.Equal(KindMalformedName, res.Kind)
	s.Equal(before, s.store.Snapshot())
}

func (s *PolicySuite) TestIdentityFirstCommitSetsName() {
	view := verifiedView(domain.DocumentIdentity,
		&extraction.IdentityResult{Name: "Ravi Sharma", IdentityNumber: "3160 9723 2695"}, domain.FieldName)

	res, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)
	s.Equal(record.Record{Name: "Ravi Sharma", IdentityNumber: "3160 9723 2695"}, s.store.Snapshot())
}

func (s *PolicySuite) TestIdentityMismatchClearsNumberKeepsName() {
	s.seedName("Ravi Sharma")
	view := verifiedView(domain.DocumentIdentity,
		&extraction.IdentityResult{Name: "Suresh Verma", IdentityNumber: "1111 2222 3333"}, domain.FieldName)

	res, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
	s.Require().NoError(err)
	s.Equal(KindNameMismatch, res.Kind)
	s.Equal(record.Record{Name: "Ravi Sharma"}, s.store.Snapshot())
}

func (s *PolicySuite) TestRecommitIsIdempotent() {
	s.seedName("Ravi Sharma")
	view := taxIDView("Ravi Kumar Sharma")

	first, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
	s.Require().NoError(err)
	afterFirst := s.store.Snapshot()

	second, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(afterFirst, s.store.Snapshot())
}

func (s *PolicySuite) TestResidencyDefersThroughSlot() {
	s.seedName("Ravi Sharma")
	view := verifiedView(domain.DocumentResidency, &extraction.ResidencyResult{
		UID:           "3160 9723 2695",
		CandidateName: "Ravi Sharma",
		MotherName:    "Sunita Sharma",
		Caste:         "OBC",
	}, domain.FieldCandidateName)

	res, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)
	s.True(res.Deferred)
	s.Empty(s.store.Snapshot().Caste)

	t, err := s.slot.Take(s.ctx)
	s.Require().NoError(err)
	s.Equal("session-1", t.SessionID)
	s.Equal("OBC", t.Caste)

	rec, applied := s.policy.ApplyTransfer(t, s.store)
	s.True(applied)
	s.Equal("OBC", rec.Caste)
}

func residencyView(candidate string) verification.View {
	return verifiedView(domain.DocumentResidency, &extraction.ResidencyResult{
		UID:           "1111 2222 3333",
		CandidateName: candidate,
		Caste:         "OBC",
	}, domain.FieldCandidateName)
}

func (s *PolicySuite) TestResidencyMismatchParksNothing() {
	s.seedName("Ravi Sharma")

	res, err := s.policy.CheckAndCommit(s.ctx, residencyView("Suresh Verma"), s.store)
	s.Require().NoError(err)
	s.Equal(KindNameMismatch, res.Kind)
	s.False(res.Deferred)
	s.Equal("Ravi Sharma", res.RecordName)

	_, err = s.slot.Take(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Empty(s.store.Snapshot().Caste)
}

func (s *PolicySuite) TestTransferRecheckedWhenRecordNameArrivesLater() {
	res, err := s.policy.CheckAndCommit(s.ctx, residencyView("Suresh Verma"), s.store)
	s.Require().NoError(err)
	s.Require().True(res.Deferred)

	s.seedName("Ravi Sharma")
	t, err := s.slot.Take(s.ctx)
	s.Require().NoError(err)

	rec, applied := s.policy.ApplyTransfer(t, s.store)
	s.False(applied)
	s.Empty(rec.Caste)
}

func (s *PolicySuite) TestMatchingIdentityKeepsReferenceName() {
	identity := func(name, number string) verification.View {
		return verifiedView(domain.DocumentIdentity,
			&extraction.IdentityResult{Name: name, IdentityNumber: number}, domain.FieldName)
	}

	res, err := s.policy.CheckAndCommit(s.ctx, identity("Ravi Sharma", "1111 2222 3333"), s.store)
	s.Require().NoError(err)
	s.Require().Equal(KindCommitted, res.Kind)

	res, err = s.policy.CheckAndCommit(s.ctx, identity("Ravi Kumar Sharma", "3160 9723 2695"), s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)
	s.Equal(record.Record{Name: "Ravi Sharma", IdentityNumber: "3160 9723 2695"}, s.store.Snapshot())

	res, err = s.policy.CheckAndCommit(s.ctx, transcriptView("Sharma Ravi"), s.store)
	s.Require().NoError(err)
	s.Equal(KindCommitted, res.Kind)
	s.Equal("Sunita", s.store.Snapshot().MotherName)
}

func (s *PolicySuite) TestConcurrentIdentityCommitsAgreeOnOneName() {
	names := []string{"Ravi Sharma", "Suresh Verma", "Anil Kapoor", "Meena Iyer"}
	results := make([]Result, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view := verifiedView(domain.DocumentIdentity,
				&extraction.IdentityResult{Name: name, IdentityNumber: "1111 2222 3333"}, domain.FieldName)
			res, err := s.policy.CheckAndCommit(s.ctx, view, s.store)
			s.NoError(err)
			results[i] = res
		}()
	}
	wg.Wait()

	committed := 0
	for _, res := range results {
		if res.Committed() {
			committed++
			s.Equal(s.store.Snapshot().Name, res.ExtractedName)
		}
	}
	s.Equal(1, committed, "only the first writer sets the reference name")
}

type failingSlot struct{}

func (failingSlot) Put(context.Context, handoff.Transfer) error {
	return sentinel.ErrUnavailable
}

func (failingSlot) Take(context.Context) (handoff.Transfer, error) {
	return handoff.Transfer{}, sentinel.ErrUnavailable
}

func TestResidencySlotFailure(t *testing.T) {
	p := New(failingSlot{})
	view := verifiedView(domain.DocumentResidency, &extraction.ResidencyResult{CandidateName: "Ravi Sharma"}, domain.FieldCandidateName)

	_, err := p.CheckAndCommit(context.Background(), view, record.NewStore())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
}
