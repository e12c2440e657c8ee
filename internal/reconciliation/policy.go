// Package reconciliation decides, at commit time, whether a document's
// verified fields may be merged into the canonical record.
//
// The record is only mutated here, and only after every field the document
// type requires is Verified. A mismatch never leaves a partial merge behind.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"intake/internal/extraction"
	"intake/internal/handoff"
	"intake/internal/namematch"
	"intake/internal/record"
	"intake/internal/verification"
	"intake/pkg/domain"
)

// Kind is the outcome of a commit attempt.
type Kind string

const (
	KindCommitted           Kind = "committed"
	KindNameMismatch        Kind = "name_mismatch"
	KindMissingPrerequisite Kind = "missing_prerequisite"
	KindMalformedName       Kind = "malformed_name"
)

// Result describes what a commit did. It is never a silent no-op.
type Result struct {
	Kind          Kind                `json:"kind"`
	DocumentType  domain.DocumentType `json:"documentType"`
	RecordName    string              `json:"recordName,omitempty"`
	ExtractedName string              `json:"extractedName,omitempty"`
	Missing       []domain.Field      `json:"missing,omitempty"`
	// Deferred is set when the merge waits in the hand-off slot.
	Deferred bool `json:"deferred,omitempty"`
}

// Committed reports whether the document's fields were accepted.
func (r Result) Committed() bool {
	return r.Kind == KindCommitted
}

// Message renders the result for the operator.
func (r Result) Message() string {
	switch r.Kind {
	case KindCommitted:
		if r.Deferred {
			return "Certificate verified. Details will be applied when the record is next opened."
		}
		return fmt.Sprintf("%s details committed to the record.", label(r.DocumentType))
	case KindNameMismatch:
		return fmt.Sprintf("Name mismatch!\nRecord: %q\nExtracted: %q", r.RecordName, r.ExtractedName)
	case KindMissingPrerequisite:
		names := make([]string, len(r.Missing))
		for i, f := range r.Missing {
			names[i] = f.String()
		}
		return "Verify " + strings.Join(names, ", ") + " before committing."
	case KindMalformedName:
		return fmt.Sprintf("Extracted name %q cannot be matched against the record.", r.ExtractedName)
	}
	return string(r.Kind)
}

func label(d domain.DocumentType) string {
	switch d {
	case domain.DocumentIdentity:
		return "Identity card"
	case domain.DocumentTaxID:
		return "Tax-ID card"
	case domain.DocumentTranscript:
		return "Transcript"
	case domain.DocumentResidency:
		return "Residency certificate"
	}
	return string(d)
}

// Policy applies the cross-document name rules.
type Policy struct {
	slot handoff.Slot
	now  func() time.Time
}

// New builds a policy that defers residency merges through slot.
func New(slot handoff.Slot) *Policy {
	return &Policy{slot: slot, now: time.Now}
}

// CheckAndCommit reconciles a session view against the record and applies
// the merge or clear the outcome calls for. The only error is a failure to
// reach the hand-off slot.
func (p *Policy) CheckAndCommit(ctx context.Context, view verification.View, store *record.Store) (Result, error) {
	res := Result{DocumentType: view.DocumentType}

	rules, ok := verification.RulesFor(view.DocumentType)
	if !ok {
		return res, fmt.Errorf("no rules for document type %q", view.DocumentType)
	}
	for _, f := range rules.CommitRequires {
		if !view.Verified(f) {
			res.Missing = append(res.Missing, f)
		}
	}
	if len(res.Missing) > 0 || view.Result == nil {
		res.Kind = KindMissingPrerequisite
		return res, nil
	}

	switch r := view.Result.(type) {
	case *extraction.IdentityResult:
		return p.commit(store, res, func(res Result) (Result, []record.Mutation) {
			return decideIdentity(res, r)
		}), nil
	case *extraction.TaxIDResult:
		return p.commit(store, res, func(res Result) (Result, []record.Mutation) {
			return decideTaxID(res, r)
		}), nil
	case *extraction.TranscriptResult:
		return p.commit(store, res, func(res Result) (Result, []record.Mutation) {
			return decideTranscript(res, r)
		}), nil
	case *extraction.ResidencyResult:
		return p.commitResidency(ctx, res, view.SessionID, r, store)
	}
	return res, fmt.Errorf("unexpected result type %T", view.Result)
}

// commit runs decide against the record and applies its mutations under the
// store's write lock.
func (p *Policy) commit(store *record.Store, res Result, decide func(Result) (Result, []record.Mutation)) Result {
	store.Update(func(rec record.Record) []record.Mutation {
		res.RecordName = rec.Name
		var muts []record.Mutation
		res, muts = decide(res)
		return muts
	})
	return res
}

// decideIdentity keeps an existing reference name: a matching card only
// contributes its number.
func decideIdentity(res Result, r *extraction.IdentityResult) (Result, []record.Mutation) {
	res.ExtractedName = r.Name
	if r.Name == "" {
		res.Kind = KindMalformedName
		return res, nil
	}
	if res.RecordName == "" {
		res.Kind = KindCommitted
		return res, []record.Mutation{record.MergeIdentity(r.Name, r.IdentityNumber)}
	}
	if ok, _ := namematch.TokensEqual(res.RecordName, r.Name); !ok {
		res.Kind = KindNameMismatch
		return res, []record.Mutation{record.ClearIdentityNumber()}
	}
	res.Kind = KindCommitted
	return res, []record.Mutation{record.MergeIdentityNumber(r.IdentityNumber)}
}

func decideTaxID(res Result, r *extraction.TaxIDResult) (Result, []record.Mutation) {
	res.ExtractedName = r.Name
	if r.Name == "" {
		res.Kind = KindMalformedName
		return res, nil
	}
	if res.RecordName != "" {
		if ok, _ := namematch.TokensEqual(res.RecordName, r.Name); !ok {
			res.Kind = KindNameMismatch
			return res, []record.Mutation{record.ClearTaxID()}
		}
	}
	res.Kind = KindCommitted
	return res, []record.Mutation{record.MergeTaxID(r.TaxID, r.FatherName, r.DateOfBirth)}
}

func decideTranscript(res Result, r *extraction.TranscriptResult) (Result, []record.Mutation) {
	res.ExtractedName = r.CandidateName
	if r.CandidateName == "" {
		res.Kind = KindMalformedName
		return res, nil
	}
	if res.RecordName != "" {
		ok, err := namematch.RotatedEquals(r.CandidateName, res.RecordName)
		if errors.Is(err, namematch.ErrCannotRotate) {
			res.Kind = KindMalformedName
			return res, nil
		}
		if rotated, rerr := namematch.Rotate(r.CandidateName); rerr == nil {
			res.ExtractedName = rotated
		}
		if !ok {
			res.Kind = KindNameMismatch
			return res, nil
		}
	}
	res.Kind = KindCommitted
	return res, []record.Mutation{record.MergeTranscript(r.MotherName, r.Percentage, r.Subjects)}
}

// commitResidency checks the certificate's candidate against the record and
// parks it in the hand-off slot. Nothing is parked on a mismatch.
func (p *Policy) commitResidency(ctx context.Context, res Result, sessionID string, r *extraction.ResidencyResult, store *record.Store) (Result, error) {
	res.ExtractedName = r.CandidateName
	if r.CandidateName == "" {
		res.Kind = KindMalformedName
		return res, nil
	}
	res.RecordName = store.Snapshot().Name
	if !nameMatches(res.RecordName, r.CandidateName) {
		res.Kind = KindNameMismatch
		return res, nil
	}
	t := handoff.Transfer{
		SessionID:     sessionID,
		UID:           r.UID,
		CandidateName: r.CandidateName,
		MotherName:    r.MotherName,
		Caste:         r.Caste,
		VerifiedAt:    p.now().UTC(),
	}
	if err := p.slot.Put(ctx, t); err != nil {
		return res, fmt.Errorf("deferring residency transfer: %w", err)
	}
	res.Kind = KindCommitted
	res.Deferred = true
	return res, nil
}

// ApplyTransfer merges a consumed residency transfer into the record. The
// candidate is checked again against the record as it stands now, since the
// reference name may have been set after the certificate was parked; a
// mismatch merges nothing and reports false.
func (p *Policy) ApplyTransfer(t handoff.Transfer, store *record.Store) (record.Record, bool) {
	applied := false
	rec := store.Update(func(rec record.Record) []record.Mutation {
		if !nameMatches(rec.Name, t.CandidateName) {
			return nil
		}
		applied = true
		return []record.Mutation{record.MergeResidency(t.Caste)}
	})
	return rec, applied
}

// nameMatches applies TokensEqual when the record already has a name.
func nameMatches(recordName, extracted string) bool {
	if recordName == "" {
		return true
	}
	ok, _ := namematch.TokensEqual(recordName, extracted)
	return ok
}
