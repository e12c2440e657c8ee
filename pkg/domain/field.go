package domain

import (
	"strings"

	dErrors "intake/pkg/domain-errors"
)

// Field names a checkable value extracted from a document. Which fields a
// document type exposes is decided by the verification rules, not here.
type Field string

const (
	FieldName          Field = "name"
	FieldTaxID         Field = "taxId"
	FieldCandidateName Field = "candidateName"
	FieldMotherName    Field = "motherName"
)

var validFields = map[Field]bool{
	FieldName:          true,
	FieldTaxID:         true,
	FieldCandidateName: true,
	FieldMotherName:    true,
}

// ParseField constructs a Field from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unknown.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "field cannot be empty")
	}
	f := Field(s)
	if !validFields[f] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown field: "+s)
	}
	return f, nil
}

func (f Field) String() string {
	return string(f)
}
