package domain

import (
	"strings"

	dErrors "intake/pkg/domain-errors"
)

// DocumentType identifies a source document the operator can extract from.
// Invariant: the value must be one of the supported document types.
//
// Usage: construct via ParseDocumentType at trust boundaries; direct casting
// bypasses validation.
type DocumentType string

const (
	DocumentIdentity   DocumentType = "identity"
	DocumentTaxID      DocumentType = "tax_id"
	DocumentTranscript DocumentType = "transcript"
	DocumentResidency  DocumentType = "residency"
)

// DocumentTypes lists the supported types in the order the operator usually
// works through them.
var DocumentTypes = []DocumentType{
	DocumentIdentity,
	DocumentTaxID,
	DocumentTranscript,
	DocumentResidency,
}

var validDocumentTypes = map[DocumentType]bool{
	DocumentIdentity:   true,
	DocumentTaxID:      true,
	DocumentTranscript: true,
	DocumentResidency:  true,
}

// ParseDocumentType constructs a DocumentType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseDocumentType(s string) (DocumentType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document type cannot be empty")
	}
	d := DocumentType(s)
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported document type: "+s)
	}
	return d, nil
}

// IsValid checks if the document type is one of the supported values.
func (d DocumentType) IsValid() bool {
	return validDocumentTypes[d]
}

func (d DocumentType) String() string {
	return string(d)
}
