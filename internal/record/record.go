// Package record holds the canonical applicant record the operator fills from
// verified documents.
package record

import (
	"slices"
	"sync"

	"intake/pkg/domain"
)

// Record is the canonical applicant record. Every field is optional until a
// committed document fills it.
type Record struct {
	Name           string           `json:"name"`
	IdentityNumber string           `json:"identityNumber"`
	TaxID          string           `json:"taxId"`
	FatherName     string           `json:"fatherName"`
	DateOfBirth    string           `json:"dateOfBirth"`
	MotherName     string           `json:"motherName"`
	Percentage     string           `json:"percentage"`
	Subjects       []domain.Subject `json:"subjects"`
	Caste          string           `json:"caste"`
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	r.Subjects = slices.Clone(r.Subjects)
	return r
}

// Mutation is an explicit merge or clear. Mutations are built by the
// constructors below; nothing else writes the record.
type Mutation func(*Record)

// MergeIdentity sets the name and identity number.
func MergeIdentity(name, identityNumber string) Mutation {
	return func(r *Record) {
		r.Name = name
		r.IdentityNumber = identityNumber
	}
}

// MergeIdentityNumber sets the identity number and keeps the reference name.
func MergeIdentityNumber(identityNumber string) Mutation {
	return func(r *Record) {
		r.IdentityNumber = identityNumber
	}
}

// ClearIdentityNumber drops the identity number, leaving the name.
func ClearIdentityNumber() Mutation {
	return func(r *Record) {
		r.IdentityNumber = ""
	}
}

// MergeTaxID sets the tax-ID triple.
func MergeTaxID(taxID, fatherName, dateOfBirth string) Mutation {
	return func(r *Record) {
		r.TaxID = taxID
		r.FatherName = fatherName
		r.DateOfBirth = dateOfBirth
	}
}

// ClearTaxID drops the tax-ID triple.
func ClearTaxID() Mutation {
	return func(r *Record) {
		r.TaxID = ""
		r.FatherName = ""
		r.DateOfBirth = ""
	}
}

// MergeTranscript sets the mother's name, percentage and subjects.
func MergeTranscript(motherName, percentage string, subjects []domain.Subject) Mutation {
	subjects = slices.Clone(subjects)
	return func(r *Record) {
		r.MotherName = motherName
		r.Percentage = percentage
		r.Subjects = subjects
	}
}

// MergeResidency sets the caste.
func MergeResidency(caste string) Mutation {
	return func(r *Record) {
		r.Caste = caste
	}
}

// Store guards the live record.
type Store struct {
	mu  sync.RWMutex
	rec Record
}

// NewStore returns a store holding an empty record.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a deep copy of the record.
func (s *Store) Snapshot() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Clone()
}

// Apply runs the mutations atomically and returns the resulting record.
func (s *Store) Apply(muts ...Mutation) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range muts {
		m(&s.rec)
	}
	return s.rec.Clone()
}

// Update hands decide a copy of the record and applies the mutations it
// returns, all under one write lock, so a decision is never made against a
// record another writer has since changed.
func (s *Store) Update(decide func(Record) []Mutation) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range decide(s.rec.Clone()) {
		m(&s.rec)
	}
	return s.rec.Clone()
}
