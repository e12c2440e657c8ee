package verification

import (
	"intake/internal/extraction"
	"intake/pkg/domain"
)

// FieldRule declares one checkable field of a document type.
type FieldRule struct {
	Field domain.Field
	Kind  extraction.Kind
	// Requires lists fields that must be Verified before this one may be checked.
	Requires []domain.Field
}

// DocumentRules declares the checkable fields and commit gate of a document type.
type DocumentRules struct {
	Type           domain.DocumentType
	Fields         []FieldRule
	CommitRequires []domain.Field
}

// Rule returns the rule for f.
func (r DocumentRules) Rule(f domain.Field) (FieldRule, bool) {
	for _, fr := range r.Fields {
		if fr.Field == f {
			return fr, true
		}
	}
	return FieldRule{}, false
}

var documentRules = map[domain.DocumentType]DocumentRules{
	domain.DocumentIdentity: {
		Type:           domain.DocumentIdentity,
		Fields:         []FieldRule{{Field: domain.FieldName, Kind: extraction.KindName}},
		CommitRequires: []domain.Field{domain.FieldName},
	},
	domain.DocumentTaxID: {
		Type: domain.DocumentTaxID,
		Fields: []FieldRule{
			{Field: domain.FieldName, Kind: extraction.KindName},
			{Field: domain.FieldTaxID, Kind: extraction.KindTaxID, Requires: []domain.Field{domain.FieldName}},
		},
		CommitRequires: []domain.Field{domain.FieldName, domain.FieldTaxID},
	},
	domain.DocumentTranscript: {
		Type: domain.DocumentTranscript,
		Fields: []FieldRule{
			{Field: domain.FieldCandidateName, Kind: extraction.KindName},
			{Field: domain.FieldMotherName, Kind: extraction.KindName},
		},
		CommitRequires: []domain.Field{domain.FieldCandidateName, domain.FieldMotherName},
	},
	domain.DocumentResidency: {
		Type:           domain.DocumentResidency,
		Fields:         []FieldRule{{Field: domain.FieldCandidateName, Kind: extraction.KindName}},
		CommitRequires: []domain.Field{domain.FieldCandidateName},
	},
}

// RulesFor returns the rules for a document type.
func RulesFor(d domain.DocumentType) (DocumentRules, bool) {
	r, ok := documentRules[d]
	return r, ok
}
